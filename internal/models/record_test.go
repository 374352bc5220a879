package models

import "testing"

func TestPlaceholderLifecycle(t *testing.T) {
	rec := NewPlaceholder("gen_1", MediaRecord{Prompt: "a castle", Source: SourceShotCreator})

	if rec.Status != StatusPending || rec.URL != "" {
		t.Fatalf("expected a pending record without URL, got %+v", rec)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}

	if err := rec.MarkProcessing(); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := rec.MarkProcessing(); err == nil {
		t.Error("expected a second MarkProcessing to fail")
	}

	if err := rec.MarkCompleted(""); err == nil {
		t.Error("expected completion without a URL to fail")
	}
	if err := rec.MarkCompleted("https://cdn.example.com/1.png"); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if rec.Status != StatusCompleted || rec.URL == "" {
		t.Errorf("unexpected record after completion: %+v", rec)
	}

	// Terminal states are final
	if err := rec.MarkFailed("too late"); err == nil {
		t.Error("expected failing a completed record to error")
	}
}

func TestMarkFailedCarriesReason(t *testing.T) {
	rec := NewPlaceholder("gen_2", MediaRecord{})
	if err := rec.MarkFailed("model unavailable"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if rec.Status != StatusFailed || rec.Persistence.Error != "model unavailable" {
		t.Errorf("unexpected record after failure: %+v", rec)
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing} {
		if s.Terminal() || !s.Unresolved() {
			t.Errorf("%s should be unresolved and not terminal", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusFailed} {
		if !s.Terminal() || s.Unresolved() {
			t.Errorf("%s should be terminal and not unresolved", s)
		}
	}
}
