package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/epaper-dashboard/internal/locale"
	"github.com/i474232898/epaper-dashboard/internal/render"
)

const (
	descWidth       = 20
	descLines       = 2
	descPlaceholder = "..."
)

// Format renders the forecast into WEATHER_* tokens, one group per sample, plus
// the "now" tokens shown in the screen header.
func Format(f Forecast, units Units, now time.Time, tag string) render.Values {
	values := render.Values{}
	for i, s := range f {
		idx := strconv.Itoa(i)
		line1, line2 := WrapDescription(s.Description)
		values["WEATHER_DAY_"+idx] = s.Date.Format("Mon")
		values["WEATHER_TEMP_"+idx] = FormatTemperature(s.Min, s.Max, units)
		values["WEATHER_ICON_"+idx] = string(s.Icon)
		values["WEATHER_DESC_"+idx] = line1
		values["WEATHER_DESC2_"+idx] = line2
	}
	if len(f) > 0 {
		values["WEATHER_ICON_NOW"] = values["WEATHER_ICON_0"]
		values["WEATHER_NOW"] = values["WEATHER_TEMP_0"] + " " + values["WEATHER_DESC_0"]
	}
	values["TIME_NOW"] = locale.Clock(now, locale.Parse(tag))
	values["HOUR_NOW"] = now.Format("15:04")
	values["DAY_ONE"] = now.Format("02.01.2006")
	values["DAY_NAME"] = now.Format("Monday")
	return values
}

// FormatTemperature renders "min / max °C".
func FormatTemperature(lo, hi float64, units Units) string {
	return fmt.Sprintf("%d / %d %s", roundHalfEven(lo), roundHalfEven(hi), units.Degrees())
}

func roundHalfEven(v float64) int {
	return int(math.RoundToEven(v))
}

// WrapDescription splits a description into at most two lines of 20 display
// columns, breaking on spaces only. Text that does not fit ends with "...".
func WrapDescription(s string) (string, string) {
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) < descWidth {
		return s, ""
	}

	var lines [][]string
	var cur []string
	curWidth := 0
	for _, w := range strings.Fields(s) {
		ww := runewidth.StringWidth(w)
		switch {
		case len(cur) == 0:
			cur, curWidth = []string{w}, ww
		case curWidth+1+ww <= descWidth:
			cur = append(cur, w)
			curWidth += 1 + ww
		default:
			lines = append(lines, cur)
			cur, curWidth = []string{w}, ww
		}
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}

	if len(lines) <= descLines {
		first := strings.Join(lines[0], " ")
		if len(lines) == 1 {
			return first, ""
		}
		return first, strings.Join(lines[1], " ")
	}

	last := lines[descLines-1]
	for len(last) > 0 {
		line := strings.Join(last, " ")
		if runewidth.StringWidth(line)+len(descPlaceholder) <= descWidth {
			return strings.Join(lines[0], " "), line + descPlaceholder
		}
		last = last[:len(last)-1]
	}
	// nothing from the second line fits beside the placeholder
	first := strings.Join(lines[0], " ")
	if runewidth.StringWidth(first)+len(descPlaceholder) <= descWidth {
		return first + descPlaceholder, ""
	}
	return first, descPlaceholder
}

// Describe turns a lower-case or code-like condition ("light rain",
// "heavysnow_showers") into display text.
func Describe(text string) string {
	text = strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(text)), " ")
	return cases.Title(language.English).String(text)
}
