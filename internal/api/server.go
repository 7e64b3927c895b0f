// Package api serves the species read API and the background-removed
// image proxy for the frontend.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/lindaliu1/endangered-ocean/internal/imageutil"
	"github.com/lindaliu1/endangered-ocean/internal/observability"
	"github.com/lindaliu1/endangered-ocean/internal/store"
)

// DefaultCORSOrigins allows the local frontend dev servers.
const DefaultCORSOrigins = "http://localhost:3000,http://127.0.0.1:3000"

// SpeciesStore is the slice of the persistence layer the API reads from.
type SpeciesStore interface {
	ListSpecies(ctx context.Context, f store.SpeciesFilter) ([]store.SpeciesRecord, error)
	GetSpecies(ctx context.Context, id int64) (*store.SpeciesRecord, error)
	ListThreats(ctx context.Context) ([]store.ThreatRecord, error)
	RedactedURL() string
}

// Options configures a Server. Zero values get sensible defaults.
type Options struct {
	Store SpeciesStore

	// CORSOrigins is a comma-separated origin list, DefaultCORSOrigins
	// when empty.
	CORSOrigins string

	// ImageCacheDir holds processed PNGs keyed by URL hash.
	ImageCacheDir string

	// Remover turns raw image bytes into a transparent PNG. Defaults to
	// imageutil.RemoveBackground. DisableImageProxy makes the endpoint
	// answer 503 instead.
	Remover           func([]byte) ([]byte, error)
	DisableImageProxy bool

	// ImageClient fetches remote images. Defaults to a 20s
	// redirect-following client.
	ImageClient *http.Client

	Metrics *observability.Metrics
	Logger  zerolog.Logger
}

// Server is the HTTP layer over the species store.
type Server struct {
	app     *fiber.App
	store   SpeciesStore
	images  *imageProxy
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewServer builds the fiber app with all routes registered.
func NewServer(opts Options) *Server {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	origins := opts.CORSOrigins
	if origins == "" {
		origins = DefaultCORSOrigins
	}

	s := &Server{
		store:   opts.Store,
		images:  newImageProxy(opts),
		metrics: metrics,
		logger:  opts.Logger,
	}

	app := fiber.New(fiber.Config{
		AppName:               "endangered-ocean",
		ErrorHandler:          newErrorHandler(opts.Logger),
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             10 * 1024 * 1024,
	})

	app.Use(recoverer.New())
	app.Use(s.observe)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,HEAD,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/debug/db", s.handleDebugDB)
	api.Get("/species", s.handleListSpecies)
	api.Get("/species/:id", s.handleGetSpecies)
	api.Get("/threats", s.handleListThreats)
	api.Get("/image/bg-remove", s.handleBgRemove)

	s.app = app
	return s
}

func newImageProxy(opts Options) *imageProxy {
	client := opts.ImageClient
	if client == nil {
		client = &http.Client{Timeout: imageFetchTimeout}
	}
	cacheDir := opts.ImageCacheDir
	if cacheDir == "" {
		cacheDir = "data/cache/bg_remove"
	}
	remover := opts.Remover
	if remover == nil {
		remover = imageutil.RemoveBackground
	}
	if opts.DisableImageProxy {
		remover = nil
	}
	return &imageProxy{
		client:   client,
		cacheDir: cacheDir,
		remover:  remover,
		logger:   opts.Logger,
	}
}

// Run serves on addr until the context is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down api server")
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

// App exposes the fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	elapsed := time.Since(start)
	route := c.Route().Path

	s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	s.metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())

	s.logger.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("request")
	return err
}

// newErrorHandler renders every error as a JSON body. Messages from
// fiber errors pass through; anything else is masked and logged.
func newErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}
