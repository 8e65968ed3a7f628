package manifest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ojs-tools/pnaudit/internal/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `Generated,2023-01-09
ISSN,Title,Publisher,Url,Vol,No,Published,Deposited
1715-720X,"Evidence Based Library and Information Practice","University of Alberta Library",https://journals.library.ualberta.ca/eblip/index.php/EBLIP,1,4,2006-12-13,2022-11-26
1715-720X,"Evidence Based Library and Information Practice","University of Alberta Library",https://journals.library.ualberta.ca/eblip/index.php/EBLIP,01,4,2007-03-01,2022-11-26
2292-1923,"Other Journal","Some Press",https://j.example/journal,,,2020-05-01,2020-06-01
2292-1923,"Other Journal, Annual","Some Press",https://j.example/journal,4,,2021-05-01,2021-06-01
0000-0000,"Unrelated","Elsewhere",https://unrelated.example/ojs,7,2,2019-01-01,2019-02-01
`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "2023-01-09", m.Generated)
	require.Len(t, m.Records, 5)

	first := m.Records[0]
	assert.Equal(t, "1715-720X", first.ISSN)
	assert.Equal(t, "Evidence Based Library and Information Practice", first.Title)
	assert.Equal(t, "University of Alberta Library", first.Publisher)
	assert.Equal(t, "https://journals.library.ualberta.ca/eblip/index.php/EBLIP", first.URL)
	assert.Equal(t, optional.Some("1"), first.Volume)
	assert.Equal(t, optional.Some("4"), first.Number)
	assert.Equal(t, "2006-12-13", first.Published)
	assert.Equal(t, "2022-11-26", first.Deposited)

	assert.Equal(t, "Other Journal, Annual", m.Records[3].Title)
}

func TestParse_VolumeNumberStayStrings(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	// "01" must not be normalised to "1", and blanks are absent, not "".
	assert.Equal(t, optional.Some("01"), m.Records[1].Volume)
	assert.Equal(t, optional.None(), m.Records[2].Volume)
	assert.Equal(t, optional.None(), m.Records[2].Number)
	assert.Equal(t, optional.Some("4"), m.Records[3].Volume)
	assert.False(t, m.Records[3].Number.Valid)
}

func TestParse_ReorderedColumns(t *testing.T) {
	input := "Generated,2024-02-02\r\nUrl,Vol,No,Published,Deposited,ISSN,Title,Publisher\r\nhttps://j.example/journal,3,1,2020-01-01,2020-02-02,1234-5678,T,P\r\n"
	m, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, m.Records, 1)
	assert.Equal(t, "2024-02-02", m.Generated)
	assert.Equal(t, "1234-5678", m.Records[0].ISSN)
	assert.Equal(t, optional.Some("3"), m.Records[0].Volume)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"metadata only", "Generated,2023-01-09\n"},
		{"missing column", "Generated,2023-01-09\nISSN,Title,Url\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestFilterAndURLs(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://journals.library.ualberta.ca/eblip/index.php/EBLIP",
		"https://j.example/journal",
		"https://unrelated.example/ojs",
	}, m.URLs())

	filtered := m.Filter(URLSet([]string{"https://j.example/journal", "https://not-in-pn.example"}))
	assert.Equal(t, "2023-01-09", filtered.Generated)
	require.Len(t, filtered.Records, 2)
	for _, r := range filtered.Records {
		assert.Equal(t, "https://j.example/journal", r.URL)
	}

	// Original is untouched.
	assert.Len(t, m.Records, 5)
}

type stringSource string

func (s stringSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

func TestLoad_Idempotent(t *testing.T) {
	urls := URLSet([]string{"https://journals.library.ualberta.ca/eblip/index.php/EBLIP"})

	a, err := Load(context.Background(), stringSource(sampleManifest), urls)
	require.NoError(t, err)
	b, err := Load(context.Background(), stringSource(sampleManifest), urls)
	require.NoError(t, err)

	assert.Len(t, a.Records, 2)
	assert.Equal(t, a, b)
}

func TestLoad_NilFilterKeepsAll(t *testing.T) {
	m, err := Load(context.Background(), stringSource(sampleManifest), nil)
	require.NoError(t, err)
	assert.Len(t, m.Records, 5)
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/pkppn/onix.csv" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, sampleManifest)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL + "/files/pkppn/onix.csv")
	m, err := Load(context.Background(), src, URLSet([]string{"https://j.example/journal"}))
	require.NoError(t, err)
	assert.Len(t, m.Records, 2)
}

func TestHTTPSource_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := Load(context.Background(), NewHTTPSource(server.URL), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
}

func TestHTTPSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := Load(context.Background(), NewHTTPSource(url), nil)
	assert.ErrorIs(t, err, ErrFetch)
}

// cutReader serves data and then fails instead of returning io.EOF.
type cutReader struct {
	r   io.Reader
	err error
}

func (c *cutReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, c.err
	}
	return n, err
}

func TestParse_StreamCutIsFetchError(t *testing.T) {
	reset := errors.New("connection reset by peer")
	tests := []struct {
		name string
		body string
	}{
		{"during metadata line", "Generated,2023-"},
		{"during header", "Generated,2023-01-09\nISSN,Title,Pub"},
		{"during records", sampleManifest + "2292-1923,\"Other"},
		{"after a full line", sampleManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(&cutReader{r: strings.NewReader(tt.body), err: reset})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFetch)
			assert.ErrorIs(t, err, reset)
			assert.NotErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestHTTPSource_TruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		_, _ = io.WriteString(w, sampleManifest)
	}))
	defer server.Close()

	_, err := Load(context.Background(), NewHTTPSource(server.URL), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.NotErrorIs(t, err, ErrMalformed)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, server.URL, fe.URL)
}
