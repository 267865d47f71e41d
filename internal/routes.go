package internal

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "portfolio/api/v1"
	"portfolio/internal/config"
	"portfolio/internal/http"
	"portfolio/internal/http/middleware"
	"portfolio/internal/uploads"
)

// apiCORSConfig returns the CORS configuration shared by every /api route.
// The portfolio site and the admin UI live on other origins.
func apiCORSConfig(cfg *config.Config) *cors.Config {
	return &cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodDelete,
			fiber.MethodOptions,
		}, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match, " + middleware.APISecretHeader,
		ExposeHeaders:    "ETag",
		AllowCredentials: cfg.AllowedOrigins != "*", // session cookies need an explicit allow list
	}
}

// SetupSession configures session management on the server.
func SetupSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := cartridge.NewSessionManager(cartridge.SessionConfig{
		CookieName: cfg.AppName + "_session",
		Secret:     cfg.GetSessionSecret(),
		TTL:        time.Duration(cfg.GetLoginSessionTimeout()) * time.Second,
		Secure:     cfg.IsProduction(),
		LoginPath:  "/api/auth/login",
	})
	srv.SetSession(sessionMgr)
}

// RouteMounter returns a RouteMountFunc bound to store.
func RouteMounter(store uploads.Store) func(*cartridge.Server) {
	return func(srv *cartridge.Server) {
		MountAppRoutes(srv, store)
	}
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server, store uploads.Store) {
	SetupSession(srv)

	cfg := config.GetConfig()
	sessionMgr := srv.Session()
	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()

	if cfg.AccessLog {
		out := middleware.NewAccessLogWriter(middleware.AccessLogConfig{
			Directory:  cfg.GetLogDirectory(),
			MaxSizeMB:  cfg.GetLogMaxSizeMB(),
			MaxBackups: cfg.GetLogMaxBackups(),
			MaxAgeDays: cfg.GetLogMaxAgeDays(),
			Compress:   cfg.IsProduction(),
		})
		srv.App().Use(middleware.AccessLog(out))
		srv.App().Hooks().OnShutdown(out.Close)
	}

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Public API: 70 requests per minute per IP
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Login: 10 requests per minute, brute force protection
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	apiSecret := middleware.APISecret(cfg.APISecret, logger)
	corsConfig := apiCORSConfig(cfg)

	// ============================================
	// ROUTE CONFIGURATIONS
	// CORS runs first so rejections carry CORS headers. Every /api route
	// requires the shared secret; the browser-only Sec-Fetch-Site check does
	// not apply to a cross-origin JSON API.
	// ============================================

	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		EnableSecFetchSite: cartridge.Bool(false),
		WriteConcurrency:   false,
		CustomMiddleware:   []fiber.Handler{publicRateLimiter, apiSecret},
		CORSConfig:         corsConfig,
	}

	loginConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware: []fiber.Handler{
			authRateLimiter,
			apiSecret,
			middleware.SetupCheck(db, logger),
		},
		CORSConfig: corsConfig,
	}

	adminAPIConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware: []fiber.Handler{
			apiSecret,
			middleware.RequireSession(sessionMgr),
		},
		CORSConfig: corsConfig,
	}

	preflight := func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}
	preflightConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		EnableSecFetchSite: cartridge.Bool(false),
		CORSConfig:         corsConfig,
	}

	// === ROOT ROUTES ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// Stored files are public, the site links to them directly
	srv.Get(cfg.UploadsURLPrefix+"/:key", http.ServeUploadAction(store), &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
	})

	// === PUBLIC API ROUTES ===
	srv.Post("/api/visitors", v1.RecordVisitHandler, publicAPIConfig)
	srv.Get("/api/content", v1.GetContentHandler, publicAPIConfig)
	srv.Get("/api/content/:section", v1.GetSectionHandler, publicAPIConfig)
	srv.Post("/api/messages", v1.CreateMessageHandler, publicAPIConfig)

	// === AUTHENTICATION ROUTES ===
	srv.Post("/api/auth/login", http.LoginAction, loginConfig)
	srv.Post("/api/auth/logout", http.LogoutAction, publicAPIConfig)
	srv.Get("/api/auth/session", http.SessionAction, publicAPIConfig)

	// === ADMIN API ROUTES ===
	srv.Get("/api/admin/dashboard", http.DashboardAction, adminAPIConfig)

	srv.Post("/api/admin/content/:section", http.ContentUpdateAction, adminAPIConfig)

	srv.Get("/api/admin/messages", http.MessagesIndexAction, adminAPIConfig)
	srv.Post("/api/admin/messages/:id/read", http.MessageMarkReadAction, adminAPIConfig)
	srv.Delete("/api/admin/messages/:id", http.MessageDeleteAction, adminAPIConfig)

	srv.Post("/api/admin/uploads/:kind", http.UploadFileAction(store), adminAPIConfig)
	srv.Delete("/api/admin/uploads/:kind", http.DeleteFileAction(store), adminAPIConfig)

	srv.Get("/api/admin/visitors", http.VisitorsIndexAction, adminAPIConfig)
	srv.Get("/api/admin/visitors/:id", http.VisitorShowAction, adminAPIConfig)
	srv.Delete("/api/admin/visitors/:id", http.VisitorDeleteAction, adminAPIConfig)

	srv.Post("/api/admin/account/password", http.AccountChangePasswordAction, adminAPIConfig)

	// === SYSTEM API ROUTES ===
	srv.Get("/api/admin/system/status", http.SystemStatusAction(store), adminAPIConfig)
	srv.Get("/api/admin/system/export-database", http.SystemExportDatabaseAction, adminAPIConfig)
	srv.Post("/api/admin/system/purge-cache", http.SystemPurgeCacheAction, adminAPIConfig)

	// === CORS PREFLIGHT ===
	for _, path := range []string{
		"/api/visitors",
		"/api/content",
		"/api/content/:section",
		"/api/messages",
		"/api/auth/login",
		"/api/auth/logout",
		"/api/auth/session",
		"/api/admin/*",
	} {
		srv.Options(path, preflight, preflightConfig)
	}
}
