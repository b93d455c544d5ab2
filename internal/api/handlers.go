package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/usecase"
)

type handlers struct {
	articles ArticleReader
	logger   *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GET /articles?page=&limit=&category=
func (h *handlers) listArticles(c echo.Context) error {
	page, err := intParam(c, "page")
	if err != nil {
		return h.fail(c, err)
	}
	limit, err := intParam(c, "limit")
	if err != nil {
		return h.fail(c, err)
	}

	result, err := h.articles.List(c.Request().Context(), page, limit, c.QueryParam("category"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handlers) articleByID(c echo.Context) error {
	article, err := h.articles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, article)
}

func (h *handlers) articleByTitle(c echo.Context) error {
	title, err := url.PathUnescape(c.Param("title"))
	if err != nil {
		return h.fail(c, fmt.Errorf("%w: title: %v", usecase.ErrInvalidQuery, err))
	}
	article, err := h.articles.GetByTitle(c.Request().Context(), title)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, article)
}

func (h *handlers) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidQuery):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// intParam returns 0 when the parameter is absent.
func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidQuery, name)
	}
	return v, nil
}
