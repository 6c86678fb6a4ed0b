package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/epaper-dashboard/internal/fetch"
	"github.com/i474232898/epaper-dashboard/internal/provider"
	"github.com/i474232898/epaper-dashboard/internal/render"
)

var validate = validator.New()

// Dashboard is the part of dashboard.Runner the API serves.
type Dashboard interface {
	Values(ctx context.Context, c provider.Category) (render.Values, error)
	Run(ctx context.Context, categories ...provider.Category) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, dash Dashboard) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "epaper-dashboard",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/dashboard/:category", func(c *fiber.Ctx) error {
		var req valuesQuery
		req.bind(c)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		category := provider.Category(req.Category)
		values, err := dash.Values(c.UserContext(), category)
		if err != nil {
			return providerError(err)
		}

		if req.Format == "text" {
			return c.SendString(values.Lines())
		}
		return c.JSON(fiber.Map{
			"category": category,
			"values":   values,
		})
	})

	v1.Post("/dashboard/render", func(c *fiber.Ctx) error {
		var req renderQuery
		req.bind(c)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		categories := make([]provider.Category, 0, len(req.Categories))
		for _, name := range req.Categories {
			categories = append(categories, provider.Category(name))
		}
		if err := dash.Run(c.UserContext(), categories...); err != nil {
			return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{
				"rendered": false,
				"errors":   strings.Split(err.Error(), "\n"),
			})
		}
		return c.JSON(fiber.Map{"rendered": true})
	})
}

// valuesQuery holds the path and query parameters of the values endpoint.
type valuesQuery struct {
	Category string `validate:"required,oneof=weather calendar alert"`
	Format   string `validate:"omitempty,oneof=json text"`
}

func (q *valuesQuery) bind(c *fiber.Ctx) {
	q.Category = c.Params("category")
	q.Format = c.Query("format")
}

// renderQuery selects the stages to render; empty means all.
type renderQuery struct {
	Categories []string `validate:"dive,oneof=weather calendar alert"`
}

func (q *renderQuery) bind(c *fiber.Ctx) {
	if raw := c.Query("categories"); raw != "" {
		q.Categories = strings.Split(raw, ",")
	}
}

// ErrorHandler renders every error as a JSON body with the matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// providerError maps provider failures onto HTTP statuses.
func providerError(err error) error {
	var (
		fetchErr  *fetch.FetchError
		malformed *fetch.MalformedResponseError
	)
	switch {
	case errors.Is(err, provider.ErrNoProviderConfigured):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &fetchErr), errors.As(err, &malformed):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
