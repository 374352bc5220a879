package store

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"

	"github.com/amelner/gallerysync/internal/models"
)

// fuzzyTagDistance is the maximum edit distance for a near-miss tag match
const fuzzyTagDistance = 1

// AllReferenceTags returns the unique reference tags in list order
func (s *Store) AllReferenceTags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var tags []string
	for _, rec := range s.records {
		if rec.ReferenceTag == "" {
			continue
		}
		key := normalizeTag(rec.ReferenceTag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, rec.ReferenceTag)
	}
	return tags
}

// RecordsByReferenceTags returns copies of the records whose tag matches any
// of the given tags, case-insensitively. A tag with no exact match falls back
// to near-miss matching so a typo like "@herro" still finds "@hero".
func (s *Store) RecordsByReferenceTags(tags []string) []models.MediaRecord {
	if len(tags) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make([]string, 0, len(tags))
	for _, tag := range tags {
		wanted = append(wanted, normalizeTag(tag))
	}

	var out []models.MediaRecord
	matched := make(map[string]bool, len(wanted))
	for _, rec := range s.records {
		if rec.ReferenceTag == "" {
			continue
		}
		key := normalizeTag(rec.ReferenceTag)
		for _, want := range wanted {
			if key == want {
				out = append(out, *rec)
				matched[want] = true
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	// No exact hits at all: retry with edit-distance tolerance
	for _, rec := range s.records {
		if rec.ReferenceTag == "" {
			continue
		}
		key := normalizeTag(rec.ReferenceTag)
		for _, want := range wanted {
			if matched[want] {
				continue
			}
			if levenshtein.ComputeDistance(key, want) <= fuzzyTagDistance {
				out = append(out, *rec)
				break
			}
		}
	}
	return out
}

// normalizeTag lower-cases and NFC-normalizes a tag and strips the leading @
// so "@Hero", "hero" and a decomposed "héro" all compare consistently
func normalizeTag(tag string) string {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "@")
	return norm.NFC.String(strings.ToLower(tag))
}
