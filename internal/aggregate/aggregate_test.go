package aggregate

import (
	"testing"
	"time"

	"fleetdocs-backend/internal/agreements"
	"fleetdocs-backend/internal/documents"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestAggregateNamespacesAgreementIDs(t *testing.T) {
	uploads := []documents.Document{
		{ID: 5, Name: "cdl_license.pdf", Category: "license", SizeBytes: 1024, UploadedAt: testNow},
	}
	agrs := []agreements.Agreement{
		{ID: 7, Title: "Carrier agreement", Status: "draft", SizeBytes: 2048, CreatedAt: testNow},
	}

	docs := Aggregate(uploads, agrs, testNow)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "5" || docs[0].SourceKind != SourceUpload {
		t.Fatalf("unexpected upload projection: %+v", docs[0])
	}
	if docs[1].ID != "agr_7" {
		t.Fatalf("expected namespaced agreement id, got %q", docs[1].ID)
	}
	if docs[1].Status != StatusPending {
		t.Fatalf("draft agreement should map to pending, got %q", docs[1].Status)
	}
	if docs[1].Category != "contract" || docs[1].SourceKind != SourceAgreement {
		t.Fatalf("unexpected agreement projection: %+v", docs[1])
	}
}

func TestAgreementStatus(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"signed", StatusActive},
		{"active", StatusActive},
		{"expired", StatusExpired},
		{"draft", StatusPending},
		{"in_review", "in_review"},
	}
	for _, c := range cases {
		if got := AgreementStatus(c.in); got != c.want {
			t.Errorf("AgreementStatus(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUploadStatus(t *testing.T) {
	cases := []struct {
		name   string
		expiry string
		want   string
	}{
		{"no expiry", "", StatusActive},
		{"expired yesterday", "2025-06-14", StatusExpired},
		{"expires today", "2025-06-15", StatusExpiringSoon},
		{"expires within window", "2025-07-10", StatusExpiringSoon},
		{"expires far out", "2026-01-01", StatusActive},
		{"unparseable", "soon", StatusActive},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := UploadStatus(c.expiry, testNow); got != c.want {
				t.Fatalf("UploadStatus(%q) = %q, want %q", c.expiry, got, c.want)
			}
		})
	}
}

func TestApplyFilters(t *testing.T) {
	docs := []Document{
		{ID: "1", Name: "IFTA return Q1", Category: "tax", Status: StatusActive, UploadedAt: "2025-01-01T00:00:00Z"},
		{ID: "2", Name: "insurance cert", Category: "insurance", Status: StatusExpired, UploadedAt: "2025-03-01T00:00:00Z"},
		{ID: "agr_3", Name: "Broker agreement", Category: "contract", Status: StatusPending, UploadedAt: "2025-02-01T00:00:00Z"},
	}

	got := Apply(docs, Query{Category: "insurance"})
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("category filter: got %+v", got)
	}

	got = Apply(docs, Query{Status: StatusPending})
	if len(got) != 1 || got[0].ID != "agr_3" {
		t.Fatalf("status filter: got %+v", got)
	}

	got = Apply(docs, Query{Search: "AGREEMENT"})
	if len(got) != 1 || got[0].ID != "agr_3" {
		t.Fatalf("search filter: got %+v", got)
	}

	got = Apply(docs, Query{Category: "all", Status: "all"})
	if len(got) != 3 {
		t.Fatalf("all/all should pass everything, got %d", len(got))
	}
}

func TestApplySort(t *testing.T) {
	docs := []Document{
		{ID: "1", Name: "b.pdf", UploadedAt: "2025-01-01T00:00:00Z"},
		{ID: "2", Name: "a.pdf", UploadedAt: "2025-03-01T00:00:00Z"},
		{ID: "3", Name: "c.pdf", UploadedAt: "2025-02-01T00:00:00Z"},
	}

	got := Apply(docs, Query{})
	if got[0].ID != "2" || got[1].ID != "3" || got[2].ID != "1" {
		t.Fatalf("newest sort order wrong: %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}

	got = Apply(docs, Query{Sort: "oldest"})
	if got[0].ID != "1" || got[2].ID != "2" {
		t.Fatalf("oldest sort order wrong: %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}

	got = Apply(docs, Query{Sort: "name"})
	if got[0].Name != "a.pdf" || got[2].Name != "c.pdf" {
		t.Fatalf("name sort order wrong: %v %v %v", got[0].Name, got[1].Name, got[2].Name)
	}
}

func TestNumericID(t *testing.T) {
	cases := map[string]string{
		"42":      "42",
		"agr_7":   "7",
		"agr_123": "123",
		"":        "",
	}
	for in, want := range cases {
		if got := NumericID(in); got != want {
			t.Errorf("NumericID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	docs := []Document{
		{Status: StatusActive},
		{Status: StatusActive},
		{Status: StatusExpiringSoon},
		{Status: StatusExpired},
		{Status: StatusPending},
	}
	s := Summarize(docs)
	if s.Total != 5 || s.Active != 2 || s.Expiring != 1 || s.Expired != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
