package http_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/testsupport"
)

const adminPassword = "correct-horse-battery"

func TestLoginAction(t *testing.T) {
	t.Run("requires setup before login", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)
		app, _ := testsupport.CreateTestApp(t, db)

		req := testsupport.NewAPIRequest(fiber.MethodPost, "/api/auth/login", map[string]string{"password": adminPassword})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
		assert.Equal(t, "SETUP_REQUIRED", testsupport.DecodeJSON(t, resp)["code"])
	})

	t.Run("wrong password", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)
		testsupport.CreateTestUserForAuth(t, db, "admin@example.com", adminPassword)
		app, _ := testsupport.CreateTestApp(t, db)

		req := testsupport.NewAPIRequest(fiber.MethodPost, "/api/auth/login", map[string]string{"password": "nope"})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", testsupport.DecodeJSON(t, resp)["code"])
	})

	t.Run("missing password", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)
		testsupport.CreateTestUserForAuth(t, db, "admin@example.com", adminPassword)
		app, _ := testsupport.CreateTestApp(t, db)

		req := testsupport.NewAPIRequest(fiber.MethodPost, "/api/auth/login", map[string]string{})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("session round trip", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)
		testsupport.CreateTestUserForAuth(t, db, "admin@example.com", adminPassword)
		app, _ := testsupport.CreateTestApp(t, db)

		resp, err := app.Test(testsupport.NewAPIRequest(fiber.MethodGet, "/api/auth/session", nil))
		require.NoError(t, err)
		assert.Equal(t, false, testsupport.DecodeJSON(t, resp)["authenticated"])

		session := testsupport.LoginTestUser(t, app, adminPassword)

		req := testsupport.WithSession(testsupport.NewAPIRequest(fiber.MethodGet, "/api/auth/session", nil), session)
		resp, err = app.Test(req)
		require.NoError(t, err)
		body := testsupport.DecodeJSON(t, resp)
		assert.Equal(t, true, body["authenticated"])
		user, ok := body["user"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "admin@example.com", user["email"])
		assert.NotNil(t, user["lastLoginAt"])
	})
}

func TestAdminRoutesRequireSession(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)
	testsupport.CreateTestUserForAuth(t, db, "admin@example.com", adminPassword)
	app, _ := testsupport.CreateTestApp(t, db)

	routes := []struct {
		method string
		path   string
	}{
		{fiber.MethodGet, "/api/admin/dashboard"},
		{fiber.MethodGet, "/api/admin/messages"},
		{fiber.MethodGet, "/api/admin/visitors"},
		{fiber.MethodPost, "/api/admin/content/hero"},
		{fiber.MethodDelete, "/api/admin/uploads/photo"},
		{fiber.MethodGet, "/api/admin/system/status"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			resp, err := app.Test(testsupport.NewAPIRequest(route.method, route.path, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHORIZED", testsupport.DecodeJSON(t, resp)["code"])

			req := testsupport.WithSession(testsupport.NewAPIRequest(route.method, route.path, nil), "forged")
			resp, err = app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestLogoutAction(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)
	testsupport.CreateTestUserForAuth(t, db, "admin@example.com", adminPassword)
	app, _ := testsupport.CreateTestApp(t, db)

	session := testsupport.LoginTestUser(t, app, adminPassword)

	req := testsupport.WithSession(testsupport.NewAPIRequest(fiber.MethodPost, "/api/auth/logout", nil), session)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, testsupport.DecodeJSON(t, resp)["success"])
}

func TestAccountChangePasswordAction(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)
	testsupport.CreateTestUserForAuth(t, db, "admin@example.com", adminPassword)
	app, _ := testsupport.CreateTestApp(t, db)
	session := testsupport.LoginTestUser(t, app, adminPassword)

	change := func(current, next string) *http.Response {
		req := testsupport.NewAPIRequest(fiber.MethodPost, "/api/admin/account/password", map[string]string{
			"currentPassword": current,
			"newPassword":     next,
		})
		resp, err := app.Test(testsupport.WithSession(req, session))
		require.NoError(t, err)
		return resp
	}

	resp := change("wrong-password", "another-password")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", testsupport.DecodeJSON(t, resp)["code"])

	resp = change(adminPassword, "short")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", testsupport.DecodeJSON(t, resp)["code"])

	resp = change(adminPassword, "another-password")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	testsupport.LoginTestUser(t, app, "another-password")
}
