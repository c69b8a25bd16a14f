package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"fleetdocs-backend/internal/classify"
	"fleetdocs-backend/internal/shared/storage/object/local"
	"fleetdocs-backend/internal/shared/util"
)

func newTestRouter(t *testing.T, classifier classify.Classifier) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &Service{
		Store:      local.New(t.TempDir()),
		Repo:       NewMemoryRepo(),
		Classifier: classifier,
	}
	r := gin.New()
	NewHandler(svc, nil).RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	fileData := util.EncodeDataURL("application/pdf", []byte("%PDF-1.4"))
	body := fmt.Sprintf(`{"name":"cdl_license.pdf","fileData":%q,"expirationDate":"2026-05-01"}`, fileData)

	w := postJSON(r, "/api/v1/documents", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var resp DocumentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == 0 || resp.Category != "license" || resp.ExpiryDate != "2026-05-01" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUploadEndpointRejectsBadPayloads(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"fileData":"data:application/pdf;base64,JVBERg=="}`},
		{"not a data url", `{"name":"a.pdf","fileData":"JVBERg=="}`},
		{"bad json", `{`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if w := postJSON(r, "/api/v1/documents", c.body); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestListEndpointFilters(t *testing.T) {
	r, svc := newTestRouter(t, nil)
	seedDoc(t, svc, "ifta_q1.pdf", "tax")
	seedDoc(t, svc, "insurance_cert.pdf", "insurance")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents?category=insurance", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	var docs []DocumentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "insurance_cert.pdf" {
		t.Fatalf("unexpected list: %+v", docs)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	r, svc := newTestRouter(t, nil)
	doc := seedDoc(t, svc, "mvr_report.pdf", "medical")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/documents/%d", doc.ID), nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/documents/%d", doc.ID), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete should 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id should 400, got %d", w.Code)
	}
}

func TestFileEndpoint(t *testing.T) {
	r, svc := newTestRouter(t, nil)
	doc := seedDoc(t, svc, "inspection report", "inspection")

	// Inline fetch.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/documents/%d/file", doc.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("file: status %d body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type: %q", ct)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Fatal("inline fetch must not set a disposition")
	}

	// Download adds a disposition with a usable filename.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/documents/%d/file?download=true", doc.ID), nil))
	disp := w.Header().Get("Content-Disposition")
	if !strings.Contains(disp, `filename="inspection report.pdf"`) {
		t.Fatalf("disposition should carry an extension-safe name: %q", disp)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/9999/file", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing document should 404, got %d", w.Code)
	}
}

func TestDigitizeEndpointErrorMapping(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClassifier{err: classify.ErrUnavailable})

	fileData := util.EncodeDataURL("application/pdf", []byte("%PDF-1.4"))
	body := fmt.Sprintf(`{"fileData":%q,"filename":"scan.pdf","autoSave":false}`, fileData)

	w := postJSON(r, "/api/v1/documents/digitize", body)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body %s", w.Code, w.Body.String())
	}
}

func TestDigitizeEndpointSuccess(t *testing.T) {
	fc := &fakeClassifier{result: classify.Result{Category: "bol", Confidence: 88, LineCount: 12}}
	r, _ := newTestRouter(t, fc)

	fileData := util.EncodeDataURL("application/pdf", []byte("%PDF-1.4"))
	body := fmt.Sprintf(`{"fileData":%q,"filename":"bol_4412.pdf","autoSave":false}`, fileData)

	w := postJSON(r, "/api/v1/documents/digitize", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var result classify.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Category != "bol" || result.LineCount != 12 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if fc.calls != 1 {
		t.Fatalf("classifier called %d times", fc.calls)
	}
}

func seedDoc(t *testing.T, svc *Service, name, category string) Document {
	t.Helper()
	doc, err := svc.Upload(context.Background(), UploadRequest{
		Name:     name,
		Category: category,
		Data:     []byte("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return doc
}
