package ojs

import (
	"encoding/json"
	"sort"

	"github.com/ojs-tools/pnaudit/internal/optional"
)

// Issue is one entry from GET /api/v1/issues.
//
// Volume and number may be null, missing, a string or a number depending on
// the OJS version and journal setup; they are always kept as text.
type Issue struct {
	ID             int             `json:"id"`
	Identification string          `json:"identification"` // e.g. "Vol. 2 No. 1 (2014)"
	Volume         optional.String `json:"volume"`
	Number         optional.String `json:"number"`
	Year           optional.Int    `json:"year"`
	DatePublished  optional.String `json:"datePublished"`
	IsPublished    bool            `json:"isPublished"`
}

// Submission is one entry from GET /api/v1/submissions.
type Submission struct {
	ID           int             `json:"id"`
	Status       int             `json:"status"`
	Publications []Publication   `json:"publications"`
	URLPublished optional.String `json:"urlPublished"`
}

// Publication is the subset of a submission's publication we report on.
type Publication struct {
	ID        int             `json:"id"`
	FullTitle json.RawMessage `json:"fullTitle"`
}

// Title returns the first publication's title, preferring en_US when the
// title is a locale map.
func (s Submission) Title() string {
	if len(s.Publications) == 0 {
		return ""
	}
	return localized(s.Publications[0].FullTitle)
}

// localized decodes either a plain string or a {locale: text} map.
func localized(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var byLocale map[string]string
	if err := json.Unmarshal(raw, &byLocale); err != nil {
		return ""
	}
	if t := byLocale["en_US"]; t != "" {
		return t
	}

	locales := make([]string, 0, len(byLocale))
	for l := range byLocale {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	for _, l := range locales {
		if byLocale[l] != "" {
			return byLocale[l]
		}
	}
	return ""
}
