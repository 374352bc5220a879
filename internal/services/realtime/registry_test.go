package realtime

import "testing"

func TestRegistrySingleHolder(t *testing.T) {
	r := NewRegistry()

	if !r.Acquire("loader-1") {
		t.Fatal("first acquire must succeed")
	}
	if r.Acquire("loader-2") {
		t.Error("second owner must not acquire a held slot")
	}
	if r.Holder() != "loader-1" {
		t.Errorf("unexpected holder %q", r.Holder())
	}
}

func TestRegistryReacquireByHolder(t *testing.T) {
	r := NewRegistry()
	r.Acquire("loader-1")

	if !r.Acquire("loader-1") {
		t.Error("holder must be able to re-acquire its own slot")
	}
}

func TestRegistryReleaseHandoff(t *testing.T) {
	r := NewRegistry()
	r.Acquire("loader-1")

	// Only the holder can release
	r.Release("loader-2")
	if r.Holder() != "loader-1" {
		t.Fatal("non-holder release must be a no-op")
	}

	r.Release("loader-1")
	if r.Holder() != "" {
		t.Fatal("slot still held after release")
	}
	if !r.Acquire("loader-2") {
		t.Error("released slot must be claimable by another owner")
	}
}

func TestRegistryReleaseUnheldIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Release("loader-1")
	if r.Holder() != "" {
		t.Error("releasing an unclaimed slot must stay unclaimed")
	}
}
