package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-03-04 10:00 UTC
var now = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func at(d, h int) time.Time {
	return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC)
}

func TestNewWindow(t *testing.T) {
	w := NewWindow(now, false, 0)
	assert.Equal(t, now, w.Start)
	assert.Equal(t, now.Add(365*24*time.Hour), w.End)
	assert.Equal(t, DefaultMaxResults, w.MaxResults)

	w = NewWindow(now, true, 5)
	assert.Equal(t, at(4, 0), w.Start)
	assert.Equal(t, 5, w.MaxResults)
}

func TestNormalize(t *testing.T) {
	w := NewWindow(now, false, 15)
	lastDay := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	events := []Event{
		{Summary: "later", Start: at(6, 9), End: at(6, 10)},
		{Summary: "ended yesterday", Start: at(3, 9), End: at(3, 23)},
		{Summary: "ended this morning", Start: at(4, 8), End: at(4, 9)},
		{Summary: "running now", Start: at(4, 9), End: at(4, 11)},
		{Summary: "last window day", Start: lastDay, End: lastDay.AddDate(0, 0, 1), AllDay: true},
		{Summary: "beyond window", Start: w.End.Add(time.Minute), End: w.End.Add(time.Hour)},
		{Summary: "at window end", Start: w.End, End: w.End.Add(time.Hour)},
	}
	got := w.Normalize(events)

	var names []string
	for _, e := range got {
		names = append(names, e.Summary)
	}
	assert.Equal(t, []string{"running now", "later", "last window day", "at window end"}, names)
}

func TestNormalize_IncludePastToday(t *testing.T) {
	w := NewWindow(now, true, 15)
	got := w.Normalize([]Event{
		{Summary: "ended this morning", Start: at(4, 8), End: at(4, 9)},
		{Summary: "ended yesterday", Start: at(3, 9), End: at(3, 23)},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "ended this morning", got[0].Summary)
}

func TestNormalize_Truncates(t *testing.T) {
	w := NewWindow(now, false, 2)
	got := w.Normalize([]Event{
		{Summary: "c", Start: at(8, 9), End: at(8, 10)},
		{Summary: "a", Start: at(5, 9), End: at(5, 10)},
		{Summary: "b", Start: at(6, 9), End: at(6, 10)},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Summary)
	assert.Equal(t, "b", got[1].Summary)
}

func TestEventDays(t *testing.T) {
	allDay := Event{Start: at(4, 0), End: at(6, 0), AllDay: true}
	assert.Equal(t, at(4, 0), allDay.FirstDay(time.UTC))
	assert.Equal(t, at(5, 0), allDay.LastDay(time.UTC), "end is exclusive")

	zero := Event{Start: at(7, 9), End: at(7, 9)}
	assert.Equal(t, at(7, 0), zero.LastDay(time.UTC))
	assert.True(t, zero.Occurs(at(7, 0)))
	assert.False(t, zero.Occurs(at(8, 0)))
}

func TestLayout(t *testing.T) {
	events := []Event{
		{Summary: "trip", Start: at(4, 0), End: at(6, 0), AllDay: true},
		{Summary: "saturday", Start: at(9, 0), End: at(10, 0), AllDay: true},
		{Summary: "next week", Start: at(11, 9), End: at(11, 10)},
	}
	days := Layout(events, now)
	require.Len(t, days, LayoutDays)
	assert.Equal(t, at(4, 0), days[0].Date)
	assert.Len(t, days[0].Events, 1)
	assert.Len(t, days[1].Events, 1)
	assert.Empty(t, days[2].Events)
	require.Len(t, days[5].Events, 1, "event on the last shown day is included")
	assert.Equal(t, "saturday", days[5].Events[0].Summary)
}

func TestFormat(t *testing.T) {
	events := []Event{
		{Summary: "Standup", Start: at(4, 9), End: at(4, 9).Add(15 * time.Minute)},
		{Summary: "Holiday ]]> tricky", Start: at(5, 0), End: at(6, 0), AllDay: true},
	}
	values := Format(events, now, "en_GB")

	assert.Equal(t, "Monday 04.03.", values["CAL_DAY_0"])
	assert.Equal(t, "Saturday 09.03.", values["CAL_DAY_5"])

	block := values["CAL_EVENTS"]
	assert.True(t, strings.HasPrefix(block, "<text "))
	assert.True(t, strings.HasSuffix(block, "</text>"))
	assert.Contains(t, block, `<tspan x="0" dy="1em" font-weight="bold">Monday 04.03.</tspan><tspan> (WEATHER_TEMP_0 WEATHER_DESC_0)</tspan>`)
	assert.Contains(t, block, `<tspan x="0" dy="1em"><![CDATA[Standup 09:00 - 09:15]]></tspan>`)
	assert.Contains(t, block, `<![CDATA[Holiday ]]]]><![CDATA[> tricky]]>`)
	assert.Contains(t, block, "WEATHER_DESC_5")
	assert.Equal(t, LayoutDays, strings.Count(block, blankLine))
}

func TestFormat_TwelveHourLocale(t *testing.T) {
	events := []Event{{Summary: "Lunch", Start: at(4, 12), End: at(4, 13)}}
	values := Format(events, now, "en_US")
	assert.Contains(t, values["CAL_EVENTS"], "Lunch 12:00 PM - 1:00 PM")
}
