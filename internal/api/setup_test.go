package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrypal/backend/internal/api"
	"github.com/pageza/pantrypal/backend/internal/mocks"
	"github.com/pageza/pantrypal/backend/internal/repository"
	"github.com/pageza/pantrypal/backend/internal/service"
	"github.com/pageza/pantrypal/backend/internal/storage"
	"github.com/pageza/pantrypal/backend/internal/testhelpers"
)

const testSecret = "api-test-secret"

// pngData is enough for content sniffing to report image/png.
var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake-image-body")

type testServer struct {
	router    *gin.Engine
	email     *mocks.MockEmailService
	tokens    *service.TokenService
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLiteDB(t)
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	userRepo := repository.NewGormUserRepository(db)
	recipeRepo := repository.NewGormRecipeRepository(db)
	tokens := service.NewTokenService(testSecret, 24*time.Hour, 15*time.Minute)
	email := &mocks.MockEmailService{}

	router := gin.New()
	api.RegisterRoutes(router, api.Services{
		Users:   service.NewUserService(userRepo, recipeRepo, tokens, email, store, "http://localhost:5173"),
		Recipes: service.NewRecipeService(recipeRepo, userRepo, store),
		Contact: service.NewContactService(email),
		Tokens:  tokens,
		Storage: store,
	})

	return &testServer{router: router, email: email, tokens: tokens, uploadDir: dir}
}

func (s *testServer) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// do sends body as JSON. A nil body sends no content.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(req, token)
}

type upload struct {
	field, name string
	data        []byte
}

func (s *testServer) doMultipart(t *testing.T, method, path, token string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.serve(req, token)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, w, &body)
	return body.Message
}

type account struct {
	ID    string
	Email string
	Token string
}

func (s *testServer) register(t *testing.T, name string) account {
	t.Helper()
	email := fmt.Sprintf("%s-%s@example.com", strings.ToLower(name), uuid.NewString()[:8])
	w := s.do(t, http.MethodPost, "/api/users/register", "", gin.H{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res api.AuthResponse
	decode(t, w, &res)
	return account{ID: res.ID, Email: email, Token: res.Token}
}

type recipeJSON struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Cuisine     string   `json:"cuisine"`
	DietType    string   `json:"dietType"`
	CookingTime int      `json:"cookingTime"`
	Images      []string `json:"images"`
	Likes       int      `json:"likes"`
	OwnerID     string   `json:"ownerId"`
	Owner       *struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	} `json:"owner"`
}

func (s *testServer) createRecipe(t *testing.T, token, title string, extra gin.H) recipeJSON {
	t.Helper()
	body := gin.H{
		"title":       title,
		"ingredients": []string{"flour", "milk", "egg"},
		"steps":       []string{"mix", "cook"},
		"cuisine":     "American",
		"dietType":    "Vegetarian",
		"cookingTime": 20,
	}
	for k, v := range extra {
		body[k] = v
	}
	w := s.do(t, http.MethodPost, "/api/recipes", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Recipe recipeJSON `json:"recipe"`
	}
	decode(t, w, &res)
	return res.Recipe
}

// diskPath maps a public asset path to its file under the upload dir.
func (s *testServer) diskPath(assetPath string) string {
	return filepath.Join(s.uploadDir, filepath.FromSlash(strings.TrimPrefix(assetPath, "uploads/")))
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
