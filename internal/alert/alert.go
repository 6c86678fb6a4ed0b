// Package alert defines the weather warning contract and its template tokens.
package alert

import (
	"context"
	"html"
	"strings"

	"github.com/i474232898/epaper-dashboard/internal/render"
)

// Provider returns the current warning headline, or "" when there is none.
type Provider interface {
	Name() string
	GetAlert(ctx context.Context) (string, error)
}

const (
	Visible = "visible"
	Hidden  = "hidden"
)

// Format builds ALERT_MESSAGE and ALERT_MESSAGE_VISIBILITY. The message is
// HTML-escaped since it lands inside SVG text.
func Format(msg string) render.Values {
	msg = strings.TrimSpace(msg)
	visibility := Hidden
	if msg != "" {
		visibility = Visible
	}
	return render.Values{
		"ALERT_MESSAGE":            html.EscapeString(msg),
		"ALERT_MESSAGE_VISIBILITY": visibility,
	}
}
