package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jjutv/tubesource/cache"
	"github.com/jjutv/tubesource/config"
	"github.com/jjutv/tubesource/handlers"
	"github.com/jjutv/tubesource/httpclient"
	"github.com/jjutv/tubesource/logger"
	"github.com/jjutv/tubesource/repository/sqlite"
	"github.com/jjutv/tubesource/resolver"
	"github.com/jjutv/tubesource/services/extract"
	"github.com/jjutv/tubesource/services/groups"
	"github.com/jjutv/tubesource/sources/backend"
	"github.com/jjutv/tubesource/sources/embedded"
	"github.com/jjutv/tubesource/sources/invidious"
	"github.com/jjutv/tubesource/sources/piped"
	"github.com/jjutv/tubesource/sources/scrape"
	"github.com/jjutv/tubesource/validation"
	"github.com/jjutv/tubesource/ytdlp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLog, requestLog, err := logger.New(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := sqlite.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewRepository(db)
	validator := validation.NewValidator()

	// Initialize yt-dlp runner
	runner, err := ytdlp.NewRunner(ytdlp.Config{
		Path:              cfg.Extract.YTDLPPath,
		Timeout:           cfg.Extract.YTDLPTimeout,
		CookiesFile:       cfg.Extract.CookiesFile,
		RequestsPerMinute: cfg.Extract.UpstreamRPM,
		Burst:             cfg.Extract.UpstreamBurst,
	}, appLog)
	if err != nil {
		log.Fatalf("Failed to initialize yt-dlp runner: %v", err)
	}

	// Initialize extraction service with the public-source fallback chain
	extractService := extract.NewService(
		cache.New(cfg.Extract.CacheTTL),
		runner,
		buildFallback(cfg, appLog),
		validator,
		extract.Config{MaxResults: cfg.Extract.MaxResults},
		appLog,
	)
	groupsService := groups.NewService(repo, validator)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.NewErrorHandler(appLog),
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         false,
		CaseSensitive:         true,
		AppName:               "tubesource " + cfg.Version,
	})

	setupMiddleware(app, cfg, requestLog)
	setupRoutes(app, extractService, groupsService, cfg.Version)

	// Graceful shutdown setup
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		appLog.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			appLog.WithField("error", err).Error("Server shutdown error")
		}
		if err := db.Close(); err != nil {
			appLog.WithField("error", err).Error("Database shutdown error")
		}
	}()

	serverAddr := ":" + cfg.ServerPort
	appLog.WithField("addr", serverAddr).Info("Server starting")

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// buildFallback assembles the degradation chain consulted when yt-dlp
// fails, in fixed reliability order: remote backend (when one is
// configured), mirror family 1, mirror family 2, page scrape, embedded
// library.
func buildFallback(cfg *config.Config, appLog *logrus.Logger) *resolver.Resolver {
	mirrorClient := httpclient.New(cfg.Extract.MirrorTimeout)
	browserClient := httpclient.NewBrowser(cfg.Extract.ScrapeTimeout,
		"https://www.youtube.com/", "https://www.youtube.com")
	embeddedClient := httpclient.NewBrowser(cfg.Extract.EmbeddedTimeout,
		"https://www.youtube.com/", "https://www.youtube.com")

	var extractors []resolver.Extractor
	if cfg.Extract.BackendURL != "" {
		backendClient := httpclient.New(cfg.Extract.BackendTimeout)
		extractors = append(extractors,
			backend.New(cfg.Extract.BackendURL, backendClient, cfg.Extract.MaxResults))
	}
	extractors = append(extractors,
		piped.New(cfg.Mirrors.Piped, mirrorClient, appLog),
		invidious.New(cfg.Mirrors.Invidious, mirrorClient, appLog),
		scrape.New(browserClient, appLog),
		embedded.New(embeddedClient),
	)

	return resolver.New(appLog, extractors...)
}

func setupMiddleware(app *fiber.App, cfg *config.Config, requestLog *fiberLogger.Config) {
	if cfg.Middleware.EnableRecover {
		app.Use(recover.New(recover.Config{
			EnableStackTrace: cfg.Debug,
		}))
	}

	if cfg.Middleware.EnableRequestID {
		app.Use(requestid.New(requestid.Config{
			Header: "X-Request-ID",
			Generator: func() string {
				return uuid.New().String()
			},
		}))
	}

	if cfg.Middleware.EnableLogger {
		app.Use(fiberLogger.New(*requestLog))
	}

	if cfg.Middleware.EnableCORS {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.CORS.AllowedOrigins, ","),
			AllowMethods:     strings.Join(cfg.CORS.AllowedMethods, ","),
			AllowHeaders:     strings.Join(cfg.CORS.AllowedHeaders, ","),
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}))
	}

	if cfg.Middleware.EnableRateLimit && cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded",
				})
			},
		}))
	}

	if cfg.Middleware.EnableCompress {
		app.Use(compress.New(compress.Config{
			Level: compress.LevelDefault,
		}))
	}
}

func setupRoutes(
	app *fiber.App,
	extractService extract.Service,
	groupsService groups.Service,
	version string,
) {
	extractHandler := handlers.NewExtractHandler(extractService, version)
	groupsHandler := handlers.NewGroupsHandler(groupsService)

	// Extraction API
	app.Get("/api/extract", extractHandler.Extract)
	app.Post("/api/extract", extractHandler.Extract)
	app.Get("/api/playlist", extractHandler.Playlist)
	app.Post("/api/playlist", extractHandler.Playlist)
	app.Get("/api/channel/:name", extractHandler.Channel)
	app.Post("/api/cache/clear", extractHandler.ClearCache)

	// Channel management API
	app.Get("/api/channels", groupsHandler.Channels)
	app.Post("/api/channels", groupsHandler.AddChannel)
	app.Delete("/api/channels/:id", groupsHandler.DeleteChannel)

	// Video group management API
	app.Get("/api/groups", groupsHandler.Groups)
	app.Post("/api/groups", groupsHandler.CreateGroup)
	app.Delete("/api/groups/:id", groupsHandler.DeleteGroup)
	app.Get("/api/groups/:id/videos", groupsHandler.GroupVideos)
	app.Post("/api/groups/:id/videos", groupsHandler.AddGroupVideo)
	app.Delete("/api/groups/:id/videos/:vid", groupsHandler.RemoveGroupVideo)

	// Health check
	app.Get("/", extractHandler.Health)
}
