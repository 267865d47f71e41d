package http_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"portfolio/internal/content"
	"portfolio/internal/messages"
	"portfolio/internal/testsupport"
	"portfolio/internal/uploads"
	"portfolio/internal/visitors"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	pdfHeader = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
)

type adminFixture struct {
	app       *fiber.App
	dbManager *testsupport.TestDBManager
	db        *gorm.DB
	store   uploads.Store
	session string
}

func setupAdmin(t *testing.T) *adminFixture {
	t.Helper()

	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)
	testsupport.CreateTestUserForAuth(t, db, "admin@example.com", adminPassword)
	app, store := testsupport.CreateTestApp(t, db)

	return &adminFixture{
		app:       app,
		dbManager: dbManager,
		db:        db,
		store:     store,
		session:   testsupport.LoginTestUser(t, app, adminPassword),
	}
}

func (f *adminFixture) do(t *testing.T, method, target string, body interface{}) *http.Response {
	t.Helper()
	resp, err := f.app.Test(testsupport.WithSession(testsupport.NewAPIRequest(method, target, body), f.session))
	require.NoError(t, err)
	return resp
}

func (f *adminFixture) upload(t *testing.T, kind string, data []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/admin/uploads/"+kind, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-API-Secret", testsupport.TestAPISecret)
	resp, err := f.app.Test(testsupport.WithSession(req, f.session))
	require.NoError(t, err)
	return resp
}

func TestContentUpdateAction(t *testing.T) {
	t.Run("replaces the section", func(t *testing.T) {
		f := setupAdmin(t)

		resp := f.do(t, fiber.MethodPost, "/api/admin/content/about", map[string]interface{}{
			"text": map[string]string{"fr": "Bonjour", "en": "Hello"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := testsupport.DecodeJSON(t, resp)
		assert.Equal(t, "about", body["section"])

		data, err := content.GetSection(f.db, content.SectionAbout)
		require.NoError(t, err)
		assert.JSONEq(t, `{"text":{"fr":"Bonjour","en":"Hello"}}`, string(data))
	})

	t.Run("rejects non-object bodies", func(t *testing.T) {
		f := setupAdmin(t)

		resp := f.do(t, fiber.MethodPost, "/api/admin/content/about", []string{"a", "b"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_CONTENT", testsupport.DecodeJSON(t, resp)["code"])
	})

	t.Run("files section is read only", func(t *testing.T) {
		f := setupAdmin(t)

		resp := f.do(t, fiber.MethodPost, "/api/admin/content/files", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "READ_ONLY_SECTION", testsupport.DecodeJSON(t, resp)["code"])
	})

	t.Run("unknown section", func(t *testing.T) {
		f := setupAdmin(t)

		resp := f.do(t, fiber.MethodPost, "/api/admin/content/blog", map[string]string{})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestMessagesActions(t *testing.T) {
	f := setupAdmin(t)
	logger := testsupport.GetLogger()

	var ids []uint
	for i := 0; i < 3; i++ {
		msg, err := messages.CreateMessage(f.db, logger, messages.CreateMessageInput{
			Name:  fmt.Sprintf("Sender %d", i),
			Email: fmt.Sprintf("sender%d@example.com", i),
			Body:  "Hello there",
		})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	resp := f.do(t, fiber.MethodGet, "/api/admin/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := testsupport.DecodeJSON(t, resp)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(3), body["unread"])
	list, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Equal(t, "Hello there", list[0].(map[string]interface{})["preview"])

	resp = f.do(t, fiber.MethodPost, fmt.Sprintf("/api/admin/messages/%d/read", ids[0]), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, fiber.MethodGet, "/api/admin/messages?unread=true", nil)
	body = testsupport.DecodeJSON(t, resp)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(2), body["unread"])

	resp = f.do(t, fiber.MethodDelete, fmt.Sprintf("/api/admin/messages/%d", ids[1]), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, fiber.MethodDelete, fmt.Sprintf("/api/admin/messages/%d", ids[1]), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, fiber.MethodPost, "/api/admin/messages/abc/read", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	count, err := messages.CountMessages(f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestUploadActions(t *testing.T) {
	t.Run("stores, serves and replaces a photo", func(t *testing.T) {
		f := setupAdmin(t)

		resp := f.upload(t, content.FilePhoto, pngHeader)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		first := testsupport.DecodeJSON(t, resp)
		firstKey := first["key"].(string)
		assert.Regexp(t, `^photo-[0-9a-f-]{36}\.png$`, firstKey)
		assert.Equal(t, "/uploads/"+firstKey, first["url"])

		served, err := f.app.Test(httptest.NewRequest(fiber.MethodGet, "/uploads/"+firstKey, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, served.StatusCode)
		data, err := io.ReadAll(served.Body)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data)

		resp = f.upload(t, content.FilePhoto, pngHeader)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		secondKey := testsupport.DecodeJSON(t, resp)["key"].(string)
		assert.NotEqual(t, firstKey, secondKey)

		_, err = f.store.Open(firstKey)
		assert.ErrorIs(t, err, uploads.ErrObjectNotFound)

		files, err := content.GetFiles(f.db)
		require.NoError(t, err)
		assert.Equal(t, secondKey, files[content.FilePhoto].Key)
	})

	t.Run("cv accepts pdf only", func(t *testing.T) {
		f := setupAdmin(t)

		resp := f.upload(t, content.FileCVEnglish, pngHeader)
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

		resp = f.upload(t, content.FileCVEnglish, pdfHeader)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Regexp(t, `\.pdf$`, testsupport.DecodeJSON(t, resp)["key"])
	})

	t.Run("unknown kind and missing file", func(t *testing.T) {
		f := setupAdmin(t)

		resp := f.upload(t, "avatar", pngHeader)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = f.do(t, fiber.MethodPost, "/api/admin/uploads/photo", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "MISSING_FILE", testsupport.DecodeJSON(t, resp)["code"])
	})

	t.Run("delete removes the object and the reference", func(t *testing.T) {
		f := setupAdmin(t)

		resp := f.do(t, fiber.MethodDelete, "/api/admin/uploads/photo", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = f.upload(t, content.FilePhoto, pngHeader)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		key := testsupport.DecodeJSON(t, resp)["key"].(string)

		resp = f.do(t, fiber.MethodDelete, "/api/admin/uploads/photo", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		_, err := f.store.Open(key)
		assert.ErrorIs(t, err, uploads.ErrObjectNotFound)

		files, err := content.GetFiles(f.db)
		require.NoError(t, err)
		assert.NotContains(t, files, content.FilePhoto)
	})
}

func TestVisitorsActions(t *testing.T) {
	f := setupAdmin(t)
	logger := testsupport.GetLogger()

	events := []visitors.VisitEvent{
		{Fingerprint: "fp-a", IP: "203.0.113.10", UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", Country: "MA"},
		{Fingerprint: "fp-b", IP: "203.0.113.11", UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", Country: "MA"},
	}
	for _, event := range events {
		_, err := visitors.RecordVisit(f.dbManager, logger, event)
		require.NoError(t, err)
	}

	resp := f.do(t, fiber.MethodGet, "/api/admin/visitors?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := testsupport.DecodeJSON(t, resp)
	assert.Equal(t, float64(2), body["totalVisitors"])
	assert.Equal(t, float64(1), body["limit"])
	list := body["visitors"].([]interface{})
	require.Len(t, list, 1)

	first := list[0].(map[string]interface{})
	assert.Contains(t, []interface{}{"iOS", "Windows"}, first["inferredOS"])
	assert.Equal(t, visitors.VisitorAlias(first["fingerprint"].(string)), first["alias"])
	id := uint(first["id"].(float64))

	resp = f.do(t, fiber.MethodGet, fmt.Sprintf("/api/admin/visitors/%d", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	visitor := testsupport.DecodeJSON(t, resp)["visitor"].(map[string]interface{})
	assert.Len(t, visitor["history"], 1)

	resp = f.do(t, fiber.MethodDelete, fmt.Sprintf("/api/admin/visitors/%d", id), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, fiber.MethodGet, fmt.Sprintf("/api/admin/visitors/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	total, err := visitors.CountVisitors(f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestDashboardAction(t *testing.T) {
	f := setupAdmin(t)
	logger := testsupport.GetLogger()

	events := []visitors.VisitEvent{
		{Fingerprint: "fp-1", UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", Country: "FR"},
		{Fingerprint: "fp-2", UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4)", Country: "FR"},
		{Fingerprint: "fp-3", UserAgent: "Mozilla/5.0 (Linux; Android 14) Mobile"},
	}
	for _, event := range events {
		_, err := visitors.RecordVisit(f.dbManager, logger, event)
		require.NoError(t, err)
	}
	_, err := messages.CreateMessage(f.db, logger, messages.CreateMessageInput{
		Name: "Nadia", Email: "nadia@example.com", Body: "Hi",
	})
	require.NoError(t, err)

	resp := f.do(t, fiber.MethodGet, "/api/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dashboard := testsupport.DecodeJSON(t, resp)["dashboard"].(map[string]interface{})

	assert.Equal(t, float64(3), dashboard["totalVisitors"])
	assert.Equal(t, float64(1), dashboard["totalMessages"])
	assert.Equal(t, float64(1), dashboard["unreadMessages"])

	countries := map[string]float64{}
	for _, item := range dashboard["byCountry"].([]interface{}) {
		entry := item.(map[string]interface{})
		countries[entry["name"].(string)] += entry["count"].(float64)
	}
	assert.Equal(t, float64(3), countries["France"]+countries["Unknown"])
	assert.Equal(t, float64(2), countries["France"])
}

func TestSystemActions(t *testing.T) {
	f := setupAdmin(t)

	resp := f.upload(t, content.FilePhoto, pngHeader)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, fiber.MethodGet, "/api/admin/system/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := testsupport.DecodeJSON(t, resp)
	assert.Equal(t, "test", status["environment"])
	assert.Equal(t, true, status["apiSecretSet"])
	assert.Equal(t, float64(1), status["uploadCount"])
	assert.Equal(t, float64(len(pngHeader)), status["uploadBytes"])

	resp = f.do(t, fiber.MethodPost, "/api/admin/system/purge-cache", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, testsupport.DecodeJSON(t, resp)["success"])
}
