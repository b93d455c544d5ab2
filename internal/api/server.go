package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsAggregator/internal/domain"
)

const shutdownTimeout = 10 * time.Second

// ArticleReader is the read side consumed by the HTTP handlers.
type ArticleReader interface {
	List(ctx context.Context, page, limit int, category string) (domain.Page, error)
	Get(ctx context.Context, id string) (domain.Article, error)
	GetByTitle(ctx context.Context, title string) (domain.Article, error)
}

// Server exposes the article read API over HTTP.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// NewServer registers routes and middleware.
func NewServer(addr string, articles ArticleReader, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogError:   true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				log.Error("request failed", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			log.Debug("request completed", attrs...)
			return nil
		},
	}))

	h := &handlers{articles: articles, logger: log}
	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/articles", h.listArticles)
	e.GET("/articles/by-title/:title", h.articleByTitle)
	e.GET("/articles/:id", h.articleByID)

	return &Server{echo: e, addr: addr, logger: log}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	return s.echo.Shutdown(shutdownCtx)
}
