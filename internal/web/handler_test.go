package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgechef/internal/capture"
	"fridgechef/internal/domain"
	"fridgechef/internal/session"
	"fridgechef/internal/storage"
)

type memBlobs struct {
	data map[string][]byte
}

func (m *memBlobs) Get(_ context.Context, name string) ([]byte, error) {
	data, ok := m.data[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memBlobs) Set(_ context.Context, name string, data []byte) error {
	m.data[name] = data
	return nil
}

type stubGenerator struct {
	recipe  *domain.Recipe
	err     error
	lastReq domain.GenerationRequest
}

func (g *stubGenerator) GenerateRecipe(_ context.Context, req domain.GenerationRequest) (*domain.Recipe, error) {
	g.lastReq = req
	return g.recipe, g.err
}

type fakeStream struct{}

func (fakeStream) Frame() (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	return img, nil
}

func (fakeStream) NewRecorder(string) (capture.Recorder, error) {
	return fakeRecorder{}, nil
}

func (fakeStream) Close() {}

type fakeRecorder struct{}

func (fakeRecorder) Start() error          { return nil }
func (fakeRecorder) Stop() ([]byte, error) { return []byte("webm-bytes"), nil }

type fakeCamera struct{}

func (fakeCamera) Acquire(context.Context, capture.Constraints) (capture.Stream, error) {
	return fakeStream{}, nil
}

func sampleRecipe(name string) domain.Recipe {
	return domain.Recipe{
		RecipeName:   name,
		Description:  "A simple soup.",
		PrepTime:     "10 minutes",
		CookTime:     "20 minutes",
		Servings:     "4 servings",
		Ingredients:  []string{"2 tomatoes", "1 onion"},
		Instructions: []string{"Chop.", "Simmer."},
	}
}

func newTestServer(t *testing.T, gen *stubGenerator, camera capture.DeviceProvider) (*Server, *session.Reconciler) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	rec, err := session.New(context.Background(), gen, &memBlobs{data: map[string][]byte{}}, logger)
	require.NoError(t, err)
	if camera == nil {
		camera = capture.NoopProvider{}
	}
	return NewServer(rec, camera, logger), rec
}

func generateForm(t *testing.T, fields map[string]string, media []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if media != nil {
		fw, err := mw.CreateFormFile("media", "media.bin")
		require.NoError(t, err)
		_, err = fw.Write(media)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestGenerateTextMode(t *testing.T) {
	recipe := sampleRecipe("Tomato Soup")
	gen := &stubGenerator{recipe: &recipe}
	srv, _ := newTestServer(t, gen, nil)

	body, contentType := generateForm(t, map[string]string{
		"mode":        "text",
		"ingredients": "tomatoes, onion",
		"dietary":     "Vegan",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Tomato Soup", got.RecipeName)
	assert.Equal(t, domain.DietVegan, gen.lastReq.Dietary)
	assert.Equal(t, "tomatoes, onion", gen.lastReq.IngredientsText)
}

func TestGenerateValidationError(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, nil)

	body, contentType := generateForm(t, map[string]string{
		"mode":        "text",
		"ingredients": "tomatoes 123",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "invalid characters")
}

func TestGenerateMissingIngredients(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, nil)

	body, contentType := generateForm(t, map[string]string{
		"mode":        "text",
		"ingredients": "   ",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter some ingredients.")
}

func TestGenerateImageModeWithoutMedia(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, nil)

	body, contentType := generateForm(t, map[string]string{"mode": "image"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please capture an image of your ingredients.")
}

func TestGenerateWithUploadedImage(t *testing.T) {
	recipe := sampleRecipe("Omelette")
	gen := &stubGenerator{recipe: &recipe}
	srv, _ := newTestServer(t, gen, nil)

	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	body, contentType := generateForm(t, map[string]string{"mode": "image"}, imgBuf.Bytes())
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gen.lastReq.Media)
	assert.Equal(t, "image/png", gen.lastReq.Media.MIMEType)
}

func TestGenerateRejectsUnsniffableMedia(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, nil)

	body, contentType := generateForm(t, map[string]string{"mode": "image"}, []byte("definitely not an image"))
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateFailureMapsToBadGateway(t *testing.T) {
	gen := &stubGenerator{err: &domain.GenerationError{Err: errors.New("model unavailable")}}
	srv, _ := newTestServer(t, gen, nil)

	body, contentType := generateForm(t, map[string]string{
		"mode":        "text",
		"ingredients": "tomatoes",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to generate recipe")
}

func TestGenerateConflictWhileInFlight(t *testing.T) {
	srv, rec := newTestServer(t, &stubGenerator{}, nil)

	_, err := rec.Submit()
	require.NoError(t, err)

	body, contentType := generateForm(t, map[string]string{
		"mode":        "text",
		"ingredients": "tomatoes",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRecipeLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, nil)

	// Save.
	w := doJSON(t, srv, http.MethodPost, "/api/recipes", sampleRecipe("Tomato Soup"))
	require.Equal(t, http.StatusNoContent, w.Code)

	// Duplicate save is accepted and remains a single entry.
	w = doJSON(t, srv, http.MethodPost, "/api/recipes", sampleRecipe("Tomato Soup"))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/recipes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var saved []domain.SavedRecipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	require.Len(t, saved, 1)

	// Rate.
	w = doJSON(t, srv, http.MethodPut, "/api/recipes/Tomato%20Soup/rating", map[string]int{"rating": 5})
	require.Equal(t, http.StatusNoContent, w.Code)

	// Load shows the rating.
	w = doJSON(t, srv, http.MethodPost, "/api/recipes/Tomato%20Soup/load", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loaded domain.SavedRecipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaded))
	assert.Equal(t, 5, loaded.UserRating)

	// Share text.
	w = doJSON(t, srv, http.MethodGet, "/api/recipes/Tomato%20Soup/share", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Check out this recipe: Tomato Soup"))
	assert.Contains(t, w.Body.String(), "---INGREDIENTS---")

	// Delete.
	w = doJSON(t, srv, http.MethodDelete, "/api/recipes/Tomato%20Soup", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/api/recipes/Tomato%20Soup", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCapturePhotoFeedsGeneration(t *testing.T) {
	recipe := sampleRecipe("Frittata")
	gen := &stubGenerator{recipe: &recipe}
	srv, rec := newTestServer(t, gen, fakeCamera{})

	w := doJSON(t, srv, http.MethodPost, "/api/capture", openCaptureRequest{Mode: "image"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/capture/photo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, rec.PendingMedia())
	assert.Equal(t, "image/png", rec.PendingMedia().MIMEType)

	// Preview thumbnail is available.
	w = doJSON(t, srv, http.MethodGet, "/api/capture/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	// Generate consumes the captured media.
	body, contentType := generateForm(t, map[string]string{"mode": "image"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	hw := httptest.NewRecorder()
	srv.ServeHTTP(hw, req)

	require.Equal(t, http.StatusOK, hw.Code)
	require.NotNil(t, gen.lastReq.Media)
	assert.Equal(t, "image/png", gen.lastReq.Media.MIMEType)

	// Pending media is cleared after a successful generation.
	assert.Nil(t, rec.PendingMedia())
}

func TestCaptureRecordingFlow(t *testing.T) {
	srv, rec := newTestServer(t, &stubGenerator{}, fakeCamera{})

	w := doJSON(t, srv, http.MethodPost, "/api/capture", openCaptureRequest{Mode: "video", Facing: "user"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/capture/recording/start", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Switching cameras mid-recording is rejected.
	w = doJSON(t, srv, http.MethodPost, "/api/capture/facing", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/capture/recording/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, rec.PendingMedia())
	assert.Equal(t, "video/webm", rec.PendingMedia().MIMEType)
}

func TestOpenCaptureWithoutCamera(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, capture.NoopProvider{})

	w := doJSON(t, srv, http.MethodPost, "/api/capture", openCaptureRequest{Mode: "image"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Could not access the camera")
}

func TestDiscardMediaOnModeSwitch(t *testing.T) {
	srv, rec := newTestServer(t, &stubGenerator{}, fakeCamera{})

	w := doJSON(t, srv, http.MethodPost, "/api/capture", openCaptureRequest{Mode: "image"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, srv, http.MethodPost, "/api/capture/photo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, rec.PendingMedia())

	w = doJSON(t, srv, http.MethodDelete, "/api/capture/media", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, rec.PendingMedia())

	w = doJSON(t, srv, http.MethodGet, "/api/capture/preview", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, nil)

	w := doJSON(t, srv, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var state stateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "idle", state.State)
	assert.False(t, state.PendingMedia)
}

func TestDietaryOptionsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, nil)

	w := doJSON(t, srv, http.MethodGet, "/api/dietary-options", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var opts []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, []string{"None", "Vegan", "Vegetarian", "Gluten-Free", "Keto"}, opts)
}

func TestMediaSniffing(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		mime string
		ok   bool
	}{
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00, 0x00, 0x00, 0x00}, "video/webm", true},
		{"mp4", []byte("\x00\x00\x00\x18ftypisom"), "video/mp4", true},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp", true},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}, "image/jpeg", true},
		{"text", []byte("hello world"), "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mime, ok := allowedMediaMIME(tc.data)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.mime, mime)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{}, nil)

	w := doJSON(t, srv, http.MethodGet, "/api/state", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
