package duga

import (
	"encoding/json"
	"testing"
	"time"

	"listings-api-go/providers"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func wellFormedRaw() rawItem {
	return rawItem{
		ProductID:    "abc-001",
		Title:        "Sample Listing",
		AffiliateURL: "https://click.example.com/abc-001",
		URL:          "https://duga.example.com/abc-001",
		PosterImage: []map[string]string{
			{"small": "https://img.example.com/s.jpg", "midium": "https://img.example.com/m.jpg"},
		},
		SampleMovie: []sampleMovie{
			{Midium: &movieEntry{Movie: "https://mov.example.com/m.mp4"}},
		},
		Price:  "1,380円",
		Volume: "120",
		Category: []wrappedName{
			{Data: nameEntry{ID: "01", Name: "Drama"}},
			{Data: nameEntry{ID: "02", Name: "Idol"}},
		},
		Performer: []wrappedName{
			{Data: nameEntry{ID: "p1", Name: "Hanako Yamada"}},
		},
		Mylist: &totalEntry{Total: json.Number("42")},
	}
}

func TestNormalizeWellFormedItem(t *testing.T) {
	item, err := normalizeItem(wellFormedRaw(), 0, testNow)
	if err != nil {
		t.Fatalf("normalizeItem failed: %v", err)
	}

	if item.ID != "duga-abc-001" {
		t.Errorf("Expected provider-namespaced id, got %q", item.ID)
	}
	if item.Title != "Sample Listing" {
		t.Errorf("Expected title preserved, got %q", item.Title)
	}
	if item.ThumbnailURL != "https://img.example.com/m.jpg" {
		t.Errorf("Expected midium poster image, got %q", item.ThumbnailURL)
	}
	if item.VideoURL != "https://mov.example.com/m.mp4" {
		t.Errorf("Expected sample movie url, got %q", item.VideoURL)
	}
	if item.DurationLabel != "120 min" {
		t.Errorf("Expected duration label '120 min', got %q", item.DurationLabel)
	}
	if len(item.Genres) != 2 || item.Genres[0] != "Drama" {
		t.Errorf("Expected ordered genres, got %v", item.Genres)
	}
	if item.PerformerName != "Hanako Yamada" {
		t.Errorf("Expected performer name, got %q", item.PerformerName)
	}
	if item.LikeCount != 42 {
		t.Errorf("Expected observed like count 42, got %d", item.LikeCount)
	}
	if item.Price != 1380 {
		t.Errorf("Expected price 1380, got %d", item.Price)
	}
	if item.ProductURL != "https://click.example.com/abc-001" {
		t.Errorf("Expected affiliate url preferred, got %q", item.ProductURL)
	}
	if item.SaleEndsAt != "2025-06-04" {
		t.Errorf("Expected fabricated sale end date, got %q", item.SaleEndsAt)
	}
	if item.Provider != providers.TagJSONProvider {
		t.Errorf("Expected JSON provider tag, got %q", item.Provider)
	}
	if item.RatingValue < 0 || item.RatingValue > 5 {
		t.Errorf("Rating out of range: %v", item.RatingValue)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := rawItem{ProductID: "bare-1"}

	item, err := normalizeItem(raw, 0, testNow)
	if err != nil {
		t.Fatalf("normalizeItem failed: %v", err)
	}

	if item.Title != "Untitled listing" {
		t.Errorf("Expected title default, got %q", item.Title)
	}
	if item.ThumbnailURL != "" {
		t.Errorf("Expected empty thumbnail, got %q", item.ThumbnailURL)
	}
	if item.DurationLabel != "--" {
		t.Errorf("Expected duration default, got %q", item.DurationLabel)
	}
	if item.PerformerName != "Unknown" {
		t.Errorf("Expected performer default, got %q", item.PerformerName)
	}
	if item.Price != providers.DefaultPrice {
		t.Errorf("Expected price default %d, got %d", providers.DefaultPrice, item.Price)
	}
	if item.LikeCount <= 0 {
		t.Error("Expected synthetic like count for missing mylist total")
	}

	synthetic := map[string]bool{}
	for _, f := range item.SyntheticFields {
		synthetic[f] = true
	}
	if !synthetic["likeCount"] {
		t.Error("Expected likeCount marked synthetic when mylist is absent")
	}
}

func TestNormalizeMissingIDSynthesized(t *testing.T) {
	raw := rawItem{Title: "Has a title but no id"}

	a, err := normalizeItem(raw, 0, testNow)
	if err != nil {
		t.Fatalf("normalizeItem failed: %v", err)
	}
	b, err := normalizeItem(raw, 1, testNow)
	if err != nil {
		t.Fatalf("normalizeItem failed: %v", err)
	}

	if a.ID == "" || b.ID == "" {
		t.Fatal("Expected synthesized ids to be non-empty")
	}
	if a.ID == b.ID {
		t.Error("Expected synthesized ids to be unique within a batch")
	}
}

func TestNormalizeUnusableRecord(t *testing.T) {
	if _, err := normalizeItem(rawItem{}, 0, testNow); err == nil {
		t.Error("Expected error for record with neither productid nor title")
	}
}

func TestNormalizeIdempotentExceptSyntheticFields(t *testing.T) {
	raw := wellFormedRaw()

	a, err := normalizeItem(raw, 0, testNow)
	if err != nil {
		t.Fatalf("normalizeItem failed: %v", err)
	}
	b, err := normalizeItem(raw, 0, testNow)
	if err != nil {
		t.Fatalf("normalizeItem failed: %v", err)
	}

	// Synthetic per-call fields are allowed to vary; everything else must
	// be byte-identical.
	b.ViewCount = a.ViewCount
	b.RatingValue = a.RatingValue
	b.ReviewCount = a.ReviewCount

	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	if string(aj) != string(bj) {
		t.Errorf("Normalization not idempotent:\n%s\n%s", aj, bj)
	}
}

func TestPlaceholderItem(t *testing.T) {
	p := placeholderItem(3, testNow)

	if p.ID == "" {
		t.Fatal("Expected error-marked id")
	}
	if p.Title != "Listing unavailable" {
		t.Errorf("Expected error-marked title, got %q", p.Title)
	}
	if p.Provider != providers.TagJSONProvider {
		t.Errorf("Expected provider tag on placeholder, got %q", p.Provider)
	}
}

func TestCapabilities(t *testing.T) {
	p := NewProvider(Config{AppID: "app", AgentID: "agent"})
	caps := p.Capabilities()

	if caps.StoreFirst {
		t.Error("Duga must not serve store-first")
	}
	if caps.FallbackOnBadRequest {
		t.Error("Duga 400s must surface, not degrade")
	}
	if caps.RatePerMinute != 10 {
		t.Errorf("Expected default ceiling 10/min, got %d", caps.RatePerMinute)
	}
	if caps.Timeout != 10*time.Second {
		t.Errorf("Expected default timeout 10s, got %v", caps.Timeout)
	}
}
