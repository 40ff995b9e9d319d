// Package mal searches MyAnimeList and renders the results as embeds.
package mal

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/keshon/plankboat/pkg/cmd"
)

// Kind selects the MyAnimeList catalogue.
type Kind string

const (
	Anime Kind = "anime"
	Manga Kind = "manga"
)

// Placeholder stands in for missing optional fields.
const Placeholder = "—"

// DefaultSynopsisLimit is the embed description limit.
const DefaultSynopsisLimit = 2048

// ErrNotFound is returned when a response holds no entries.
var ErrNotFound = cmd.Argument("found no entries in xml response")

// Entry is the first search result.
type Entry struct {
	ID        string `xml:"id" json:"id"`
	Title     string `xml:"title" json:"title"`
	English   string `xml:"english" json:"english"`
	Synonyms  string `xml:"synonyms" json:"synonyms"`
	Score     string `xml:"score" json:"score"`
	Type      string `xml:"type" json:"type"`
	Status    string `xml:"status" json:"status"`
	Episodes  string `xml:"episodes" json:"episodes"`
	Chapters  string `xml:"chapters" json:"chapters"`
	Volumes   string `xml:"volumes" json:"volumes"`
	StartDate string `xml:"start_date" json:"start_date"`
	EndDate   string `xml:"end_date" json:"end_date"`
	Synopsis  string `xml:"synopsis" json:"synopsis"`
	Image     string `xml:"image" json:"image"`
}

var synopsisCleaner = strings.NewReplacer(
	"<br />", "",
	"&#039;", "'",
	"[i]", "*",
	"[/i]", "*",
	"&quot;", `"`,
	"&mdash;", "—",
	"&ndash;", "–",
)

// Parse decodes the first <entry> of a search response. limit bounds the
// synopsis length in runes; values below 4 mean DefaultSynopsisLimit.
func Parse(r io.Reader, limit int) (*Entry, error) {
	if limit < 4 {
		limit = DefaultSynopsisLimit
	}

	d := xml.NewDecoder(r)
	d.Entity = xml.HTMLEntity

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "entry" {
			continue
		}

		var e Entry
		if err := d.DecodeElement(&e, &start); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		e.normalize(limit)
		return &e, nil
	}
}

func (e *Entry) normalize(limit int) {
	fields := []*string{
		&e.ID, &e.Title, &e.English, &e.Synonyms, &e.Score, &e.Type, &e.Status,
		&e.Episodes, &e.Chapters, &e.Volumes, &e.StartDate, &e.EndDate, &e.Image,
	}
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}

	e.Synopsis = truncate(synopsisCleaner.Replace(strings.TrimSpace(e.Synopsis)), limit)

	for _, f := range []*string{
		&e.English, &e.Synonyms, &e.Score, &e.Type, &e.Status, &e.Episodes,
		&e.Chapters, &e.Volumes, &e.StartDate, &e.EndDate,
	} {
		if *f == "" {
			*f = Placeholder
		}
	}
}

// truncate cuts s to limit-4 runes plus "..." once it reaches limit runes.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) < limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-4]) + "..."
}
