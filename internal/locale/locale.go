// Package locale maps the LOCALE setting to the clock and date conventions
// used on the screen.
package locale

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Regions that read a 12-hour clock; everything else gets 24-hour time.
var twelveHourRegions = map[string]bool{
	"US": true, "CA": true, "AU": true, "NZ": true, "PH": true,
	"IN": true, "PK": true, "EG": true, "SA": true, "CO": true,
}

// Parse accepts POSIX ("en_GB", "de_DE.UTF-8") or BCP 47 tags and falls back
// to British English.
func Parse(s string) language.Tag {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return language.BritishEnglish
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.BritishEnglish
	}
	return tag
}

// TwelveHour reports whether tag's region uses a 12-hour clock.
func TwelveHour(tag language.Tag) bool {
	region, _ := tag.Region()
	return twelveHourRegions[region.String()]
}

// Clock renders the short wall-clock time for tag.
func Clock(t time.Time, tag language.Tag) string {
	if TwelveHour(tag) {
		return t.Format("3:04 PM")
	}
	return t.Format("15:04")
}

// Day renders a calendar day heading such as "Monday 04.03.".
func Day(t time.Time) string {
	return t.Format("Monday 02.01.")
}
