// Package manifest loads the PKP Preservation Network journal status file.
//
// The file is of the form:
//
//	Generated,2023-01-09
//	ISSN,Title,Publisher,Url,Vol,No,Published,Deposited
//	1715-720X,"Evidence Based Library and Information Practice","University of Alberta Library",https://journals.library.ualberta.ca/eblip/index.php/EBLIP,1,4,2006-12-13,2022-11-26
//
// Vol and No are kept as opaque strings; they are compared textually, never
// as numbers.
package manifest

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ojs-tools/pnaudit/internal/optional"
)

// Column names in the manifest header row.
const (
	ColISSN      = "ISSN"
	ColTitle     = "Title"
	ColPublisher = "Publisher"
	ColURL       = "Url"
	ColVolume    = "Vol"
	ColNumber    = "No"
	ColPublished = "Published"
	ColDeposited = "Deposited"
)

var requiredColumns = []string{
	ColISSN, ColTitle, ColPublisher, ColURL, ColVolume, ColNumber, ColPublished, ColDeposited,
}

// Record is one preserved issue in the PN manifest.
type Record struct {
	ISSN      string
	Title     string
	Publisher string
	URL       string
	Volume    optional.String // absent when the cell is blank
	Number    optional.String
	Published string // YYYY-MM-DD
	Deposited string // YYYY-MM-DD
}

// Manifest is the parsed status file. It is never mutated after loading.
type Manifest struct {
	Generated string // value of the metadata line, e.g. "2023-01-09"
	Records   []Record
}

// Source fetches the raw manifest text.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Load fetches, parses and filters the manifest to rows whose Url is in urls.
// A nil urls set keeps every row.
func Load(ctx context.Context, src Source, urls map[string]bool) (*Manifest, error) {
	body, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	m, err := Parse(body)
	if err != nil {
		var ferr *FetchError
		if hs, ok := src.(*HTTPSource); ok && errors.As(err, &ferr) && ferr.URL == "" {
			ferr.URL = hs.URL
		}
		return nil, err
	}
	if urls != nil {
		m = m.Filter(urls)
	}
	return m, nil
}

// Parse reads a manifest, discarding the leading "Generated,<date>" line.
func Parse(r io.Reader) (*Manifest, error) {
	br := bufio.NewReader(r)

	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &FetchError{Err: fmt.Errorf("reading metadata line: %w", err)}
	}
	first = strings.TrimRight(first, "\r\n")
	if first == "" {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}

	m := &Manifest{Generated: parseGenerated(first)}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrMalformed)
		}
		return nil, readFailure("reading header", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, col)
		}
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readFailure(fmt.Sprintf("after %d records", len(m.Records)), err)
		}

		cell := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		m.Records = append(m.Records, Record{
			ISSN:      cell(ColISSN),
			Title:     cell(ColTitle),
			Publisher: cell(ColPublisher),
			URL:       cell(ColURL),
			Volume:    optionalCell(cell(ColVolume)),
			Number:    optionalCell(cell(ColNumber)),
			Published: cell(ColPublished),
			Deposited: cell(ColDeposited),
		})
	}

	return m, nil
}

// readFailure separates bad CSV (ErrMalformed) from a body that stopped
// streaming, which is a failed download.
func readFailure(where string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, where, err)
	}
	return &FetchError{Err: fmt.Errorf("%s: %w", where, err)}
}

// parseGenerated extracts the date from "Generated,2023-01-09".
func parseGenerated(line string) string {
	_, date, found := strings.Cut(line, ",")
	if !found {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(date)
}

func optionalCell(s string) optional.String {
	if s == "" {
		return optional.None()
	}
	return optional.Some(s)
}

// Filter returns a manifest holding only the rows whose Url is in urls,
// in manifest order.
func (m *Manifest) Filter(urls map[string]bool) *Manifest {
	out := &Manifest{Generated: m.Generated}
	for _, rec := range m.Records {
		if urls[rec.URL] {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

// URLs returns the distinct journal URLs in first-seen order.
func (m *Manifest) URLs() []string {
	seen := make(map[string]bool)
	var urls []string
	for _, rec := range m.Records {
		if rec.URL == "" || seen[rec.URL] {
			continue
		}
		seen[rec.URL] = true
		urls = append(urls, rec.URL)
	}
	return urls
}

// URLSet builds a membership set from a list of journal URLs.
func URLSet(urls []string) map[string]bool {
	set := make(map[string]bool, len(urls))
	for _, u := range urls {
		set[u] = true
	}
	return set
}
