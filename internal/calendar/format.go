package calendar

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/i474232898/epaper-dashboard/internal/locale"
	"github.com/i474232898/epaper-dashboard/internal/render"
)

// LayoutDays is the number of days shown, starting today.
const LayoutDays = 6

const (
	textOpen    = `<text text-anchor="beginning" font-family="sans-serif" font-size="25px">`
	textClose   = `</text>`
	blankLine   = `<tspan x="0" dy="1em" font-weight="bold"></tspan>`
	headingOpen = `<tspan x="0" dy="1em" font-weight="bold">`
	eventOpen   = `<tspan x="0" dy="1em"><![CDATA[`
	eventClose  = `]]></tspan>`
	tspanClose  = `</tspan>`
)

// Day groups the events covering one local date.
type Day struct {
	Index  int
	Date   time.Time
	Events []Event
}

// Layout assigns events to LayoutDays consecutive days starting at today's
// local date. An event appears on every day in [FirstDay, LastDay].
func Layout(events []Event, today time.Time) []Day {
	day := startOfDay(today)
	days := make([]Day, 0, LayoutDays)
	for i := 0; i < LayoutDays; i++ {
		d := Day{Index: i, Date: day}
		for _, e := range events {
			if e.Occurs(day) {
				d.Events = append(d.Events, e)
			}
		}
		days = append(days, d)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// Format renders CAL_DAY_i headings and the CAL_EVENTS text block. Headings
// inside CAL_EVENTS carry WEATHER_TEMP_i and WEATHER_DESC_i tokens that the
// weather stage fills in afterwards.
func Format(events []Event, today time.Time, tag string) render.Values {
	lang := locale.Parse(tag)
	values := render.Values{}

	var b strings.Builder
	b.WriteString(textOpen)
	for _, d := range Layout(events, today) {
		idx := strconv.Itoa(d.Index)
		heading := locale.Day(d.Date)
		values["CAL_DAY_"+idx] = heading

		b.WriteString(headingOpen)
		b.WriteString(heading)
		b.WriteString(tspanClose)
		b.WriteString("<tspan> (WEATHER_TEMP_" + idx + " WEATHER_DESC_" + idx + ")</tspan>")
		for _, e := range d.Events {
			b.WriteString(eventOpen)
			b.WriteString(cdata(eventLine(e, today.Location(), lang)))
			b.WriteString(eventClose)
		}
		b.WriteString(blankLine)
	}
	b.WriteString(textClose)

	values["CAL_EVENTS"] = b.String()
	return values
}

func eventLine(e Event, loc *time.Location, lang language.Tag) string {
	if e.AllDay {
		return e.Summary
	}
	return e.Summary + " " + locale.Clock(e.Start.In(loc), lang) + " - " + locale.Clock(e.End.In(loc), lang)
}

// cdata keeps a literal "]]>" from terminating the section early.
func cdata(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
