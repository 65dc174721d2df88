package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shopsnap/backend/config"
	"github.com/shopsnap/backend/internal/domain"
	"github.com/shopsnap/backend/internal/infrastructure/store"
	"github.com/shopsnap/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubVision is a scripted domain.VisionClient for handler tests.
type stubVision struct {
	mu      sync.Mutex
	text    string
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubVision) GenerateMatch(ctx context.Context, imageJPEG []byte, prompt string) (string, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Gemini: config.GeminiConfig{APIKey: "test-api-key"},
		Store:  config.StoreConfig{Type: "file"},
	}
}

func setupTestRouter(t *testing.T, vision *stubVision) *gin.Engine {
	t.Helper()

	catalogStore, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	t.Cleanup(func() { catalogStore.Close() })

	handler := NewHandler(
		usecase.NewCatalogService(catalogStore),
		usecase.NewIdentifyService(vision, usecase.IdentifyServiceConfig{}),
	)
	return SetupRouter(testConfig(), handler)
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubVision{})

	w := doJSON(router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	t.Run("GET seeds and lists default categories", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{})

		w := doJSON(router, "GET", "/api/v1/categories", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", w.Code)
		}
		var categories []domain.Category
		if err := json.Unmarshal(w.Body.Bytes(), &categories); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(categories) != 3 {
			t.Errorf("len(categories) = %d, want 3 defaults", len(categories))
		}
	})

	t.Run("POST creates, DELETE removes", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{})

		w := doJSON(router, "POST", "/api/v1/categories", gin.H{"name": "Frozen"})
		if w.Code != http.StatusCreated {
			t.Fatalf("Status = %d, want 201", w.Code)
		}
		var created domain.Category
		json.Unmarshal(w.Body.Bytes(), &created)
		if created.ID == "" || created.Name != "Frozen" {
			t.Fatalf("created = %+v", created)
		}

		w = doJSON(router, "DELETE", "/api/v1/categories/"+created.ID, nil)
		if w.Code != http.StatusNoContent {
			t.Errorf("Status = %d, want 204", w.Code)
		}
	})

	t.Run("POST without name fails", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{})

		w := doJSON(router, "POST", "/api/v1/categories", gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", w.Code)
		}
	})

	t.Run("PUT commits a reorder", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{})

		reordered := []domain.Category{
			{ID: "cat_3", Name: "Gia vị"},
			{ID: "cat_1", Name: "Đồ uống"},
		}
		w := doJSON(router, "PUT", "/api/v1/categories", reordered)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", w.Code)
		}

		w = doJSON(router, "GET", "/api/v1/categories", nil)
		var categories []domain.Category
		json.Unmarshal(w.Body.Bytes(), &categories)
		if len(categories) != 2 || categories[0].ID != "cat_3" {
			t.Errorf("categories = %+v, want reordered collection", categories)
		}
	})
}

func TestProductEndpoints(t *testing.T) {
	images := make([]string, domain.MinProductImages)
	for i := range images {
		images[i] = "img"
	}

	t.Run("create below image minimum fails validation", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{})

		w := doJSON(router, "POST", "/api/v1/products", domain.Product{
			Name: "P", CategoryID: "cat_1", Images: images[:domain.MinProductImages-1],
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", w.Code)
		}
	})

	t.Run("create, update and delete", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{})

		w := doJSON(router, "POST", "/api/v1/products", domain.Product{
			Name: "Trà Xanh", Brand: "C2", CategoryID: "cat_1", Price: 8000, Images: images,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("Status = %d, want 201: %s", w.Code, w.Body.String())
		}
		var created domain.Product
		json.Unmarshal(w.Body.Bytes(), &created)

		created.Price = 9000
		w = doJSON(router, "PUT", "/api/v1/products/"+created.ID, created)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", w.Code)
		}

		w = doJSON(router, "DELETE", "/api/v1/products/"+created.ID, nil)
		if w.Code != http.StatusNoContent {
			t.Errorf("Status = %d, want 204", w.Code)
		}
	})
}

func TestCatalogViewEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubVision{})

	// Defaults: 3 categories, 3 products, one per category.
	w := doJSON(router, "GET", "/api/v1/catalog/view?search=coca&collapsed=cat_1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var resp struct {
		Groups []usecase.CategoryGroup `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(resp.Groups))
	}
	if resp.Groups[0].Category.ID != "cat_1" || !resp.Groups[0].Collapsed {
		t.Errorf("group = %+v, want collapsed cat_1", resp.Groups[0])
	}
}

func TestScanEndpoint(t *testing.T) {
	image := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	t.Run("returns the match result", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{
			text: `{"matchedProductId":"prod_1","reason":"red can"}`,
		})

		w := doJSON(router, "POST", "/api/v1/scan", gin.H{"image": image})
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
		}
		var result domain.MatchResult
		json.Unmarshal(w.Body.Bytes(), &result)
		if !result.Matched() || *result.MatchedProductID != "prod_1" {
			t.Errorf("result = %+v, want prod_1 match", result)
		}
	})

	t.Run("accepts a data URL image", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{
			text: `{"matchedProductId":null,"reason":"nothing familiar"}`,
		})

		w := doJSON(router, "POST", "/api/v1/scan", gin.H{"image": "data:image/jpeg;base64," + image})
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", w.Code)
		}
	})

	t.Run("vision failure still returns 200 with rejection", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{err: context.DeadlineExceeded})

		w := doJSON(router, "POST", "/api/v1/scan", gin.H{"image": image})
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", w.Code)
		}
		var result domain.MatchResult
		json.Unmarshal(w.Body.Bytes(), &result)
		if result.MatchedProductID != nil || result.Reason == "" {
			t.Errorf("result = %+v, want rejection with reason", result)
		}
	})

	t.Run("rejects undecodable image payload", func(t *testing.T) {
		router := setupTestRouter(t, &stubVision{})

		w := doJSON(router, "POST", "/api/v1/scan", gin.H{"image": "%%%not-base64%%%"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", w.Code)
		}
	})

	t.Run("concurrent scan gets 409", func(t *testing.T) {
		vision := &stubVision{
			text:    `{"matchedProductId":null,"reason":"n/a"}`,
			started: make(chan struct{}, 1),
			release: make(chan struct{}),
		}
		router := setupTestRouter(t, vision)

		done := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			done <- doJSON(router, "POST", "/api/v1/scan", gin.H{"image": image})
		}()

		// Wait until the first scan is inside the vision call.
		<-vision.started

		second := doJSON(router, "POST", "/api/v1/scan", gin.H{"image": image})
		if second.Code != http.StatusConflict {
			t.Errorf("second scan Status = %d, want 409", second.Code)
		}

		close(vision.release)
		first := <-done
		if first.Code != http.StatusOK {
			t.Errorf("first scan Status = %d, want 200", first.Code)
		}
	})
}
