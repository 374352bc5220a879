package store

import (
	"testing"

	"github.com/amelner/gallerysync/internal/models"
)

func tagged(id, tag string) *models.MediaRecord {
	r := rec(id)
	r.ReferenceTag = tag
	return r
}

func TestAllReferenceTagsUnique(t *testing.T) {
	s := New(20)
	s.LoadPage([]*models.MediaRecord{
		tagged("a", "@hero"),
		tagged("b", "@villain"),
		tagged("c", "@Hero"),
		rec("d"),
	}, 4, 1)

	tags := s.AllReferenceTags()
	if len(tags) != 2 {
		t.Fatalf("expected 2 unique tags, got %v", tags)
	}
	if tags[0] != "@hero" || tags[1] != "@villain" {
		t.Errorf("unexpected tag order: %v", tags)
	}
}

func TestRecordsByReferenceTagsCaseInsensitive(t *testing.T) {
	s := New(20)
	s.LoadPage([]*models.MediaRecord{
		tagged("a", "@hero"),
		tagged("b", "@villain"),
		rec("c"),
	}, 3, 1)

	got := s.RecordsByReferenceTags([]string{"@HERO"})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected record a for @HERO, got %v", got)
	}

	// Leading @ is optional on the query side
	got = s.RecordsByReferenceTags([]string{"villain"})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected record b for villain, got %v", got)
	}
}

func TestRecordsByReferenceTagsFuzzyFallback(t *testing.T) {
	s := New(20)
	s.LoadPage([]*models.MediaRecord{tagged("a", "@hero")}, 1, 1)

	got := s.RecordsByReferenceTags([]string{"@heroo"})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected near-miss match for @heroo, got %v", got)
	}

	if got := s.RecordsByReferenceTags([]string{"@spaceship"}); len(got) != 0 {
		t.Errorf("distant tag must not match, got %v", got)
	}
}

func TestRecordsByReferenceTagsEmptyQuery(t *testing.T) {
	s := New(20)
	s.LoadPage([]*models.MediaRecord{tagged("a", "@hero")}, 1, 1)

	if got := s.RecordsByReferenceTags(nil); got != nil {
		t.Errorf("expected nil for empty query, got %v", got)
	}
}
