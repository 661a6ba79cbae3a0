package meme

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (chi.Router, *fakeStore, *fakeStorage) {
	store := newFakeStore()
	objects := newFakeStorage()
	h := NewHandler(NewService(store, objects))

	r := chi.NewRouter()
	r.Route("/api/memes", h.Routes)
	return r, store, objects
}

// createMultipartBody builds a multipart form with an imageFile part carrying
// the given content type, plus an optional keywords field.
func createMultipartBody(t *testing.T, filename, contentType, contents, keywords string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="imageFile"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = io.WriteString(part, contents)
	require.NoError(t, err)

	if keywords != "" {
		require.NoError(t, writer.WriteField("keywords", keywords))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeMeme(t *testing.T, body io.Reader) Meme {
	t.Helper()
	var m Meme
	require.NoError(t, json.NewDecoder(body).Decode(&m))
	return m
}

func TestListOrdering(t *testing.T) {
	router, store, _ := newTestRouter()

	first, err := store.Create(context.Background(), &Meme{ImageURL: "http://example.com/old.png"})
	require.NoError(t, err)
	second, err := store.Create(context.Background(), &Meme{ImageURL: "http://example.com/new.png"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/memes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var memes []Meme
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&memes))
	require.Len(t, memes, 2)
	require.Equal(t, second.ID, memes[0].ID)
	require.Equal(t, first.ID, memes[1].ID)
}

func TestListEmpty(t *testing.T) {
	router, _, _ := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/memes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetNotFound(t *testing.T) {
	router, _, _ := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/memes/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"error"`)
}

func TestCreateMeme(t *testing.T) {
	router, _, _ := newTestRouter()

	payload := `{"imageUrl":"http://example.com/a.png","keywords":["cats","humor"]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/memes", strings.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rec.Code)
	m := decodeMeme(t, rec.Body)
	require.NotEmpty(t, m.ID)
	require.Equal(t, "/api/memes/"+m.ID, rec.Header().Get("Location"))
	require.Equal(t, []string{"cats", "humor"}, m.Keywords)
	require.False(t, m.CreatedAt.IsZero())
}

func TestCreateMemeInvalidURL(t *testing.T) {
	router, store, _ := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/memes", strings.NewReader(`{"imageUrl":""}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, store.memes)
}

func TestUpdateIDMismatch(t *testing.T) {
	router, store, _ := newTestRouter()
	existing, err := store.Create(context.Background(), &Meme{ImageURL: "http://example.com/a.png"})
	require.NoError(t, err)

	payload := `{"id":"` + uuid.NewString() + `","imageUrl":"http://example.com/b.png"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/memes/"+existing.ID, strings.NewReader(payload)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	unchanged, err := store.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	require.Equal(t, "http://example.com/a.png", unchanged.ImageURL)
}

func TestUpdateMeme(t *testing.T) {
	router, store, _ := newTestRouter()
	existing, err := store.Create(context.Background(), &Meme{ImageURL: "http://example.com/a.png"})
	require.NoError(t, err)

	payload := `{"id":"` + existing.ID + `","imageUrl":"http://example.com/b.png","keywords":["new"]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/memes/"+existing.ID, strings.NewReader(payload)))

	require.Equal(t, http.StatusNoContent, rec.Code)
	updated, err := store.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	require.Equal(t, "http://example.com/b.png", updated.ImageURL)
	require.Equal(t, []string{"new"}, updated.Keywords)
}

func TestUpdateNotFound(t *testing.T) {
	router, _, _ := newTestRouter()

	id := uuid.NewString()
	payload := `{"imageUrl":"http://example.com/b.png"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/memes/"+id, strings.NewReader(payload)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMeme(t *testing.T) {
	router, store, objects := newTestRouter()
	existing, err := store.Create(context.Background(), &Meme{ImageURL: "http://localhost:9000/memes/abc.png"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/memes/"+existing.ID, nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, store.memes)
	require.Equal(t, []string{"abc.png"}, objects.deleted)
}

func TestDeleteNotFoundResponse(t *testing.T) {
	router, _, _ := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/memes/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadMeme(t *testing.T) {
	router, _, objects := newTestRouter()

	body, contentType := createMultipartBody(t, "cat.png", "image/png", "png bytes", "cats, humor")
	req := httptest.NewRequest("POST", "/api/memes/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	m := decodeMeme(t, rec.Body)
	require.True(t, strings.HasPrefix(m.ImageURL, "http://localhost:9000/memes/"))
	require.True(t, strings.HasSuffix(m.ImageURL, ".png"))
	require.Equal(t, []string{"cats", "humor"}, m.Keywords)
	require.Equal(t, "/api/memes/"+m.ID, rec.Header().Get("Location"))
	require.Len(t, objects.uploads, 1)
}

func TestUploadRejectsPDF(t *testing.T) {
	router, _, objects := newTestRouter()

	body, contentType := createMultipartBody(t, "doc.pdf", "application/pdf", "%PDF-1.4", "")
	req := httptest.NewRequest("POST", "/api/memes/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "jpeg, jpg, png, gif, webp")
	require.Empty(t, objects.uploads)
}

func TestUploadMissingFile(t *testing.T) {
	router, _, _ := newTestRouter()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("keywords", "cats"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/memes/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "image file is required")
}

func TestUploadEmptyFile(t *testing.T) {
	router, _, objects := newTestRouter()

	body, contentType := createMultipartBody(t, "empty.png", "image/png", "", "")
	req := httptest.NewRequest("POST", "/api/memes/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, objects.uploads)
}
