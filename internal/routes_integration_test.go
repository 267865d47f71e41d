package internal

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/uploads"
)

func newTestRoutes(t *testing.T) []fiber.Route {
	t.Helper()

	store, err := uploads.NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: RouteMounter(store),
	})
	return srv.App.GetRoutes(true)
}

func findRoute(routes []fiber.Route, method, path string) *fiber.Route {
	for idx := range routes {
		if routes[idx].Method == method && routes[idx].Path == path {
			return &routes[idx]
		}
	}
	return nil
}

func TestPublicVisitsRouteRateLimited(t *testing.T) {
	visitRoute := findRoute(newTestRoutes(t), fiber.MethodPost, "/api/visitors")
	require.NotNil(t, visitRoute, "expected visitors route to be registered")

	// The rate limiter is wrapped in a conditional function that only applies
	// in production. In test environment, it passes through but the wrapper
	// still exists. Check for the conditional wrapper (defined in MountAppRoutes).
	hasRateLimiter := false
	var handlerNames []string
	for _, handler := range visitRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		handlerNames = append(handlerNames, name)
		if strings.Contains(name, "middleware/limiter") || strings.Contains(name, "MountAppRoutes.func") {
			hasRateLimiter = true
			break
		}
	}

	require.Truef(t, hasRateLimiter, "expected rate limiter middleware for public visitors route, handlers: %v", handlerNames)
}

func TestAdminRoutesRegistered(t *testing.T) {
	routes := newTestRoutes(t)

	expected := []struct {
		method string
		path   string
	}{
		{fiber.MethodPost, "/api/auth/login"},
		{fiber.MethodGet, "/api/admin/dashboard"},
		{fiber.MethodPost, "/api/admin/content/:section"},
		{fiber.MethodGet, "/api/admin/messages"},
		{fiber.MethodPost, "/api/admin/uploads/:kind"},
		{fiber.MethodDelete, "/api/admin/visitors/:id"},
		{fiber.MethodGet, "/api/admin/system/export-database"},
		{fiber.MethodGet, "/uploads/:key"},
		{fiber.MethodOptions, "/api/admin/*"},
	}

	for _, route := range expected {
		assert.NotNilf(t, findRoute(routes, route.method, route.path), "expected %s %s to be registered", route.method, route.path)
	}
}
