package util

import (
	"strings"
	"time"
)

// Longer tokens come first so "YYYY" is never read as two "YY".
var layoutReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// Layout turns a placeholder template into a time layout.
//
// Supported placeholders:
//   - YYYY: 4-digit year
//   - YY: 2-digit year
//   - MM: 2-digit month (01-12)
//   - DD: 2-digit day (01-31)
//   - hh: 2-digit hour (00-23)
//   - mm: 2-digit minute (00-59)
//   - ss: 2-digit second (00-59)
func Layout(tpl string) string {
	return layoutReplacer.Replace(tpl)
}

// FormatTime formats t in UTC using a placeholder template. The zero time
// formats as an empty string.
//
//	FormatTime(t, "YYYY.MM.DD")       // "2023.11.10"
//	FormatTime(t, "MM-DD hh:mm")      // "11-10 08:15"
func FormatTime(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(Layout(tpl))
}
