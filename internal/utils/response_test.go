package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/bookswap-backend/internal/i18n"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreatedResponse_Localized(t *testing.T) {
	require.NoError(t, i18n.Initialize())

	c, w := newTestContext()
	c.Set("lang", "es")
	CreatedResponse(c, i18n.KeyBookCreated, gin.H{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Libro subido correctamente", resp.Message)
}

func TestErrorResponses(t *testing.T) {
	require.NoError(t, i18n.Initialize())

	c, w := newTestContext()
	NotFoundResponse(c, i18n.KeyBookNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Book not found", resp.Error.Message)

	c, w = newTestContext()
	ValidationErrorResponse(c, []ValidationError{{Field: "isbn", Tag: "required"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp = decode(t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
}

func TestGetUserIDFromContext(t *testing.T) {
	c, _ := newTestContext()
	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)

	c.Set("user_id", "not-a-uuid")
	_, ok = GetUserIDFromContext(c)
	assert.False(t, ok)

	id := uuid.New()
	c.Set("user_id", id.String())
	got, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
