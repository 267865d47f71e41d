package content_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/content"
	"portfolio/internal/testsupport"
)

func TestSections(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("unsaved section reads as empty object", func(t *testing.T) {
		data, err := content.GetSection(db, content.SectionHero)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(data))
	})

	t.Run("unknown section is rejected", func(t *testing.T) {
		_, err := content.GetSection(db, "secrets")
		assert.ErrorIs(t, err, content.ErrUnknownSection)

		err = content.SaveSection(db, logger, "secrets", []byte(`{}`))
		assert.ErrorIs(t, err, content.ErrUnknownSection)
	})

	t.Run("non-object payloads are rejected", func(t *testing.T) {
		for _, payload := range []string{`[]`, `"text"`, `42`, `null`, `{broken`} {
			err := content.SaveSection(db, logger, content.SectionAbout, []byte(payload))
			assert.ErrorIs(t, err, content.ErrInvalidContent, payload)
		}
	})

	t.Run("save replaces the whole section", func(t *testing.T) {
		require.NoError(t, content.SaveSection(db, logger, content.SectionAbout,
			[]byte(`{"text": {"fr": "Bonjour", "en": "Hello"}}`)))
		require.NoError(t, content.SaveSection(db, logger, content.SectionAbout,
			[]byte(`{"text": {"ar": "مرحبا"}}`)))

		data, err := content.GetSection(db, content.SectionAbout)
		require.NoError(t, err)
		assert.JSONEq(t, `{"text": {"ar": "مرحبا"}}`, string(data))
	})

	t.Run("all sections are returned", func(t *testing.T) {
		all, err := content.GetAllSections(db)
		require.NoError(t, err)
		assert.Len(t, all, len(content.Sections))
		for _, name := range content.Sections {
			assert.Contains(t, all, name)
		}
		assert.JSONEq(t, `{"text": {"ar": "مرحبا"}}`, string(all[content.SectionAbout]))
	})
}

func TestSectionCache(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	content.LoadCache(db, logger)
	defer content.DisableCache()

	require.NoError(t, content.SaveSection(db, logger, content.SectionContact, []byte(`{"email": "a@example.com"}`)))
	data, err := content.GetSection(db, content.SectionContact)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email": "a@example.com"}`, string(data))

	// Saving clears the cache
	require.NoError(t, content.SaveSection(db, logger, content.SectionContact, []byte(`{"email": "b@example.com"}`)))
	data, err = content.GetSection(db, content.SectionContact)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email": "b@example.com"}`, string(data))
}

func TestFiles(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	files, err := content.GetFiles(db)
	require.NoError(t, err)
	assert.Empty(t, files)

	first := content.FileRef{Key: "photo-1.jpg", URL: "/uploads/photo-1.jpg"}
	previous, err := content.SetFile(db, logger, content.FilePhoto, first)
	require.NoError(t, err)
	assert.Nil(t, previous)

	second := content.FileRef{Key: "photo-2.png", URL: "/uploads/photo-2.png"}
	previous, err = content.SetFile(db, logger, content.FilePhoto, second)
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, first, *previous)

	_, err = content.SetFile(db, logger, content.FileCVEnglish, content.FileRef{Key: "cv_en-1.pdf", URL: "/uploads/cv_en-1.pdf"})
	require.NoError(t, err)

	raw, err := content.GetSection(db, content.SectionFiles)
	require.NoError(t, err)
	var stored map[string]content.FileRef
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, second, stored[content.FilePhoto])
	assert.Len(t, stored, 2)

	removed, err := content.RemoveFile(db, logger, content.FilePhoto)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, second, *removed)

	removed, err = content.RemoveFile(db, logger, content.FilePhoto)
	require.NoError(t, err)
	assert.Nil(t, removed)

	files, err = content.GetFiles(db)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Contains(t, files, content.FileCVEnglish)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"مرحبا بكم", 4, "مرح…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, content.Truncate(tt.in, tt.max), tt.in)
	}
}
