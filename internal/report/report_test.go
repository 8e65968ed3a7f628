package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/ojs-tools/pnaudit/internal/manifest"
	"github.com/ojs-tools/pnaudit/internal/ojs"
	"github.com/ojs-tools/pnaudit/internal/optional"
	"github.com/ojs-tools/pnaudit/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const journal = "https://j.example/journal"

func TestNewRow_Matched(t *testing.T) {
	issue := ojs.Issue{
		ID:             11,
		Identification: "Vol. 2 No. 1 (2014)",
		Volume:         optional.Some("2"),
		Number:         optional.Some("1"),
		Year:           optional.SomeInt(2014),
		DatePublished:  optional.Some("2014-03-31 00:00:00"),
	}
	res := reconcile.Result{
		Matched:    true,
		Candidates: 1,
		Record: &manifest.Record{
			ISSN:      "1234-5678",
			Title:     "Journal of Examples",
			Published: "2014-03-31",
			Deposited: "2015-01-02",
		},
	}

	row := NewRow(journal, issue, res)
	assert.Equal(t, []string{
		journal, "11", "Vol. 2 No. 1 (2014)", "2", "1", "2014", "2014-03-31 00:00:00",
		"1234-5678", "Journal of Examples", "2014-03-31", "2015-01-02",
	}, row.Fields())
	assert.True(t, row.Preserved())
}

func TestNewRow_Unmatched(t *testing.T) {
	issue := ojs.Issue{ID: 12, Identification: "Draft"}
	row := NewRow(journal, issue, reconcile.Result{})

	assert.Equal(t, []string{journal, "12", "Draft", "", "", "", "", "", "", "", ""}, row.Fields())
	assert.False(t, row.Preserved())
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(Row{JournalURL: journal, IssueID: "1", IssueTitle: "Vol. 1, special", PNDeposited: "2020-01-01"}))
	require.NoError(t, w.Write(EmptyJournalRow("https://empty.example")))
	assert.Equal(t, 2, w.Rows())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, "Vol. 1, special", records[1][2])
	assert.Equal(t, "2020-01-01", records[1][10])
	assert.Equal(t, "https://empty.example", records[2][0])
	for _, cell := range records[2][1:] {
		assert.Empty(t, cell)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriter_FailureIsWriteError(t *testing.T) {
	w := NewWriter(failingWriter{})

	err := w.Write(Row{JournalURL: journal})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, w.Rows())
}
