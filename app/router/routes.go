// Package router provides HTTP routing, middleware configuration, and server setup for the editor API
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/amirphl/issue-composer/app/dto"
	"github.com/amirphl/issue-composer/app/handlers"
	"github.com/amirphl/issue-composer/app/middleware"
	"github.com/amirphl/issue-composer/config"
	"github.com/amirphl/issue-composer/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const healthPath = "/api/v1/health"

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	Shutdown(ctx context.Context) error
	GetApp() *fiber.App
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker func(ctx context.Context) error

// Handlers groups the handlers mounted by the router
type Handlers struct {
	Issue     handlers.IssueHandlerInterface
	Module    handlers.ModuleHandlerInterface
	ShortLink handlers.ShortLinkHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	handlers Handlers
	server   config.ServerConfig
	metrics  config.MetricsConfig
	checks   map[string]HealthChecker
	logger   *zap.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, checks map[string]HealthChecker, logger *zap.Logger) Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &FiberRouter{
		handlers: h,
		server:   cfg.Server,
		metrics:  cfg.Metrics,
		checks:   checks,
		logger:   logger,
	}
	r.app = fiber.New(fiber.Config{
		AppName:      "Issue Composer API",
		ServerHeader: "issue-composer",
		ErrorHandler: r.errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ProxyHeader:  cfg.Server.ProxyHeader,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	return r
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	if r.metrics.Enabled {
		r.app.Get(r.metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Public short link redirect, tracked per visit
	r.app.Get("/s/:uid", r.handlers.ShortLink.Visit)

	api := r.app.Group("/api/v1")
	api.Get("/health", r.healthCheck)

	api.Use(limiter.New(limiter.Config{
		Max:        r.server.RateLimitPerMin,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	issues := api.Group("/issues/:issueID")
	issues.Post("/selections/initialize", r.handlers.Issue.InitializeSelections)
	issues.Get("/selections", r.handlers.Issue.ListSelections)
	issues.Put("/selections/:family/:moduleID", r.handlers.Issue.ManuallySelect)
	issues.Delete("/selections/:family/:moduleID", r.handlers.Issue.ClearSelection)
	issues.Post("/selections/:family/:moduleID/repick", r.handlers.Issue.RepickSelection)
	issues.Put("/text-boxes/:moduleID/content", r.handlers.Issue.StoreTextBoxContent)
	issues.Post("/text-boxes/:moduleID/generate", r.handlers.Issue.GenerateTextBoxContent)
	issues.Get("/html", r.handlers.Issue.RenderHTML)
	issues.Post("/send", r.handlers.Issue.Send)

	api.Patch("/modules/:family/:moduleID", r.handlers.Module.UpdateConfig)

	r.app.Use(r.notFoundHandler)

	r.logger.Info("Routes configured", zap.Int("handlers", int(r.app.HandlersCount())))
}

func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: generateRequestID,
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error("Panic recovered",
				zap.String("request_id", requestid.FromContext(c)),
				zap.Any("error", e),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("ip", c.IP()),
				zap.Stack("stack"),
			)
		},
	}))

	// Preview html embeds remote images and inline styles
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		HSTSMaxAge:                31536000,
		ContentSecurityPolicy:     "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' https:; frame-ancestors 'self';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.server.AllowOrigins,
		AllowMethods: []string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete, fiber.MethodHead, fiber.MethodOptions,
		},
		AllowHeaders: []string{
			fiber.HeaderOrigin,
			fiber.HeaderContentType,
			fiber.HeaderAccept,
			fiber.HeaderAuthorization,
			fiber.HeaderXRequestID,
		},
		ExposeHeaders: []string{fiber.HeaderXRequestID},
		MaxAge:        utils.CORSMaxAge,
	}))

	if r.server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	skip := []string{healthPath, r.metrics.Path}
	if r.metrics.Enabled {
		r.app.Use(middleware.Metrics(skip...))
	}
	r.app.Use(middleware.RequestLogger(r.logger, skip...))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info("Starting server", zap.String("address", address))
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown drains in-flight requests until ctx expires
func (r *FiberRouter) Shutdown(ctx context.Context) error {
	return r.app.ShutdownWithContext(ctx)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// healthCheck pings every registered dependency; any failure turns the response into a 503
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	status := fiber.Map{}
	healthy := true
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			healthy = false
			status[name] = err.Error()
			r.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		status[name] = "ok"
	}

	code := fiber.StatusOK
	message := "Service is healthy"
	if !healthy {
		code = fiber.StatusServiceUnavailable
		message = "Service is degraded"
	}
	return c.Status(code).JSON(dto.APIResponse{
		Success: healthy,
		Message: message,
		Data: fiber.Map{
			"timestamp":    utils.UTCNow().Unix(),
			"service":      "issue-composer",
			"dependencies": status,
		},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func (r *FiberRouter) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	if code >= fiber.StatusInternalServerError {
		r.logger.Error("Unhandled request error", zap.Int("status", code), zap.Error(err))
	}

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_")),
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
