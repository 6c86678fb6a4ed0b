package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/render"
)

type stubDashboard struct {
	values map[provider.Category]render.Values
	errs   map[provider.Category]error
	runErr error
	ran    []provider.Category
}

func (s *stubDashboard) Values(_ context.Context, c provider.Category) (render.Values, error) {
	if err := s.errs[c]; err != nil {
		return nil, err
	}
	return s.values[c], nil
}

func (s *stubDashboard) Run(_ context.Context, categories ...provider.Category) error {
	s.ran = categories
	return s.runErr
}

func newApp(dash Dashboard) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, dash)
	return app
}

func do(t *testing.T, app *fiber.App, method, target string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	resp, body := do(t, newApp(&stubDashboard{}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","service":"epaper-dashboard"}`, body)
}

func TestDashboardValues(t *testing.T) {
	dash := &stubDashboard{values: map[provider.Category]render.Values{
		provider.CategoryAlert: {"ALERT_MESSAGE": "Yellow warning", "ALERT_MESSAGE_VISIBILITY": "visible"},
	}}
	app := newApp(dash)

	resp, body := do(t, app, http.MethodGet, "/api/v1/dashboard/alert")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Category string            `json:"category"`
		Values   map[string]string `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "alert", got.Category)
	assert.Equal(t, "Yellow warning", got.Values["ALERT_MESSAGE"])

	resp, body = do(t, app, http.MethodGet, "/api/v1/dashboard/alert?format=text")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ALERT_MESSAGE=Yellow warning\nALERT_MESSAGE_VISIBILITY=visible\n", body)
}

func TestDashboardValues_Validation(t *testing.T) {
	app := newApp(&stubDashboard{})

	for _, target := range []string{
		"/api/v1/dashboard/news",
		"/api/v1/dashboard/weather?format=xml",
	} {
		resp, body := do(t, app, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
		assert.Contains(t, body, `"error":true`)
	}
}

func TestDashboardValues_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "not configured",
			err:  &provider.NoProviderConfiguredError{Category: provider.CategoryWeather},
			want: http.StatusNotFound,
		},
		{
			name: "upstream failure",
			err:  fmt.Errorf("get weather from metno: %w", fetch.ClassifyHTTPError("https://api.met.no", 503, nil)),
			want: http.StatusBadGateway,
		},
		{
			name: "malformed",
			err:  fetch.Malformedf("smhi", "day 0: missing icon"),
			want: http.StatusBadGateway,
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dash := &stubDashboard{errs: map[provider.Category]error{provider.CategoryWeather: tt.err}}
			resp, _ := do(t, newApp(dash), http.MethodGet, "/api/v1/dashboard/weather")
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestDashboardRender(t *testing.T) {
	dash := &stubDashboard{}
	app := newApp(dash)

	resp, body := do(t, app, http.MethodPost, "/api/v1/dashboard/render?categories=weather,alert")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"rendered":true}`, body)
	assert.Equal(t, []provider.Category{provider.CategoryWeather, provider.CategoryAlert}, dash.ran)

	resp, _ = do(t, app, http.MethodPost, "/api/v1/dashboard/render?categories=weather,news")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	dash.runErr = errors.Join(errors.New("calendar: no calendar provider configured"))
	resp, body = do(t, app, http.MethodPost, "/api/v1/dashboard/render")
	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	assert.JSONEq(t, `{"rendered":false,"errors":["calendar: no calendar provider configured"]}`, body)
	assert.Empty(t, dash.ran)
}
