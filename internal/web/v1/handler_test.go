package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/card-service/internal/core/blob"
	"github.com/duynhne/card-service/internal/core/domain"
	"github.com/duynhne/card-service/internal/core/repository/memory"
	logicv1 "github.com/duynhne/card-service/internal/logic/v1"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type brokenRepository struct{}

func (brokenRepository) List(context.Context) ([]*domain.BusinessCard, error) {
	return nil, errors.New("relation \"business_cards\" does not exist")
}
func (brokenRepository) Create(context.Context, domain.CardFields) (*domain.BusinessCard, error) {
	return nil, errors.New("insert failed")
}
func (brokenRepository) Update(context.Context, string, domain.CardFields) (*domain.BusinessCard, error) {
	return nil, errors.New("update failed")
}

func newRouter(t *testing.T, repo domain.CardRepository, store domain.BlobStore, maxBytes int64) *gin.Engine {
	t.Helper()
	r := gin.New()
	RegisterRoutes(r,
		NewCardHandler(logicv1.NewCardService(repo, nil, nil)),
		NewUploadHandler(logicv1.NewUploadService(store, "", maxBytes)),
	)
	return r
}

func newLocalStore(t *testing.T) domain.BlobStore {
	t.Helper()
	store, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestCardLifecycleScenario(t *testing.T) {
	r := newRouter(t, memory.NewCardRepository(), nil, 0)

	w := doJSON(t, r, http.MethodPost, "/cards", map[string]string{
		"first_name": "Ada", "last_name": "Co", "phone_number": "555-0100",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[domain.BusinessCard](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Nil(t, created.Note)
	assert.Nil(t, created.Email)
	assert.Nil(t, created.FrontImageURL)
	assert.Nil(t, created.BackImageURL)

	raw := decode[map[string]any](t, w)
	assert.Contains(t, raw, "note")
	assert.Nil(t, raw["note"], "optional fields serialize as null")

	w = doJSON(t, r, http.MethodGet, "/cards", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, listCacheControl, w.Header().Get("Cache-Control"))
	cards := decode[[]domain.BusinessCard](t, w)
	require.Len(t, cards, 1)
	assert.Equal(t, created.ID, cards[0].ID)

	w = doJSON(t, r, http.MethodPut, "/cards/"+created.ID, map[string]string{
		"first_name": "Ada", "last_name": "Co", "phone_number": "555-0101", "note": "met at conf",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[domain.BusinessCard](t, w)
	assert.Equal(t, "555-0101", updated.PhoneNumber)
	assert.Equal(t, "met at conf", domain.Deref(updated.Note))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	w = doJSON(t, r, http.MethodPost, "/cards", map[string]string{"last_name": "Co", "phone_number": "555"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Missing required fields", body["error"])
	assert.Equal(t, []any{"first_name"}, body["fields"])

	w = doJSON(t, r, http.MethodGet, "/cards", nil)
	assert.Len(t, decode[[]domain.BusinessCard](t, w), 1)
}

func TestUpdateErrors(t *testing.T) {
	r := newRouter(t, memory.NewCardRepository(), nil, 0)

	w := doJSON(t, r, http.MethodPut, "/cards/missing", map[string]string{
		"first_name": "Ada", "last_name": "Co", "phone_number": "1",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Card not found", decode[map[string]any](t, w)["error"])

	w = doJSON(t, r, http.MethodPut, "/cards/missing", map[string]string{"first_name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedBodies(t *testing.T) {
	r := newRouter(t, memory.NewCardRepository(), nil, 0)

	req := httptest.NewRequest(http.MethodPost, "/cards", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request", decode[map[string]any](t, w)["error"])

	req = httptest.NewRequest(http.MethodPost, "/cards", http.NoBody)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreErrorsPassMessageThrough(t *testing.T) {
	r := newRouter(t, brokenRepository{}, nil, 0)

	w := doJSON(t, r, http.MethodGet, "/cards", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["error"], "does not exist")

	w = doJSON(t, r, http.MethodPost, "/api/cards", map[string]string{
		"first_name": "Ada", "last_name": "Co", "phone_number": "1",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["error"], "insert failed")
}

func multipartRequest(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadRoundTrip(t *testing.T) {
	r := newRouter(t, memory.NewCardRepository(), newLocalStore(t), 1<<20)
	content := []byte("\xff\xd8\xff jpeg bytes of the card front")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/upload", "file", "front.jpg", content))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[domain.UploadResponse](t, w)
	require.True(t, strings.HasPrefix(resp.URL, "http://example.com/files/"), resp.URL)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(resp.URL, "http://example.com"), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")
}

func TestUploadErrors(t *testing.T) {
	t.Run("storage not configured", func(t *testing.T) {
		r := newRouter(t, memory.NewCardRepository(), nil, 0)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "/upload", "file", "a.png", []byte("x")))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Blob storage not configured", decode[map[string]any](t, w)["error"])
	})

	t.Run("no file", func(t *testing.T) {
		r := newRouter(t, memory.NewCardRepository(), newLocalStore(t), 1<<20)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "/api/upload", "", "", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No file provided", decode[map[string]any](t, w)["error"])
	})

	t.Run("too large", func(t *testing.T) {
		r := newRouter(t, memory.NewCardRepository(), newLocalStore(t), 8)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, "/upload", "file", "a.png", []byte("more than eight bytes")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "File too large", decode[map[string]any](t, w)["error"])
	})

	t.Run("unknown file", func(t *testing.T) {
		r := newRouter(t, memory.NewCardRepository(), newLocalStore(t), 0)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/missing.png", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSanitizeValidationError(t *testing.T) {
	assert.Equal(t, "", sanitizeValidationError(nil))
	assert.Equal(t, "Request body is required", sanitizeValidationError(io.EOF))
	assert.Equal(t, "Invalid request", sanitizeValidationError(errors.New("json: cannot unmarshal number into Go struct field")))
	assert.Equal(t, "short message", sanitizeValidationError(errors.New("short message")))
}
