package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "test-key", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestClassifySuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !strings.HasPrefix(req.FileData, "data:application/pdf;base64,") {
			t.Errorf("fileData not a pdf data url: %.40s", req.FileData)
		}
		if req.Filename != "insurance_cert.pdf" {
			t.Errorf("filename = %q", req.Filename)
		}
		if !req.AutoSave {
			t.Error("autoSave not forwarded")
		}

		json.NewEncoder(w).Encode(classifyResponse{
			Success:    true,
			Category:   "insurance",
			Confidence: 92.5,
			Summary:    "Certificate of insurance",
			ExtractedFields: []Field{
				{Key: "policy_number", Value: "POL-1"},
				{Key: "carrier", Value: "Acme Mutual"},
				{Key: "policy_number", Value: "POL-DUP"},
			},
			SuggestedTags:   []string{"insurance", "2025", "insurance"},
			SuggestedExpiry: "2026-03-15",
			Engine:          "paddle",
			LineCount:       44,
		})
	})

	res, err := client.Classify(context.Background(), []byte("%PDF-1.4"), "insurance_cert.pdf", true)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Category != "insurance" || res.Confidence != 92.5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Fields) != 2 {
		t.Fatalf("fields not deduped: %+v", res.Fields)
	}
	if res.Fields[0].Key != "policy_number" || res.Fields[0].Value != "POL-1" {
		t.Fatalf("field order or first-wins dedupe broken: %+v", res.Fields)
	}
	if len(res.Tags) != 2 {
		t.Fatalf("tags not deduped: %v", res.Tags)
	}
	if res.SavedDocumentID != 0 {
		t.Fatalf("savedDocumentId should be unset by the client, got %d", res.SavedDocumentID)
	}
}

func TestClassifySidecarFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{Success: false, Error: "unsupported type"})
	})

	_, err := client.Classify(context.Background(), []byte("GIF89a"), "anim.gif", false)
	if !errors.Is(err, ErrClassification) {
		t.Fatalf("err = %v, want ErrClassification", err)
	}
	if !strings.Contains(err.Error(), "unsupported type") {
		t.Fatalf("error lost sidecar context: %v", err)
	}
}

func TestClassifyTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Classify(context.Background(), []byte("x"), "a.pdf", false)
	if !errors.Is(err, ErrClassification) {
		t.Fatalf("err = %v, want ErrClassification", err)
	}
}

func TestClassifyMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.Classify(context.Background(), []byte("x"), "a.pdf", false)
	if !errors.Is(err, ErrClassification) {
		t.Fatalf("err = %v, want ErrClassification", err)
	}
}

func TestClassifyEmptyPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("sidecar should not be called for an empty payload")
	})

	_, err := client.Classify(context.Background(), nil, "empty.pdf", false)
	if !errors.Is(err, ErrClassification) {
		t.Fatalf("err = %v, want ErrClassification", err)
	}
}
