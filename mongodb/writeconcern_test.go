package mongodb

import (
	"testing"
	"time"

	mongoid "github.com/zanker/mongoid"
)

func TestToDriverMapsAllDimensions(t *testing.T) {
	timeout := 250 * time.Millisecond
	journal := true
	wc := mongoid.WriteConcern{
		W:        "majority",
		WTimeout: &timeout,
		Journal:  &journal,
	}

	got := ToDriver(wc)
	if got == nil {
		t.Fatal("expected a driver concern")
	}
	if got.W != "majority" {
		t.Fatalf("expected w=majority, got %#v", got.W)
	}
	if got.Journal == nil || !*got.Journal {
		t.Fatalf("expected journal=true, got %#v", got.Journal)
	}
	if got.WTimeout != timeout {
		t.Fatalf("expected wtimeout %s, got %s", timeout, got.WTimeout)
	}
}

func TestToDriverZeroConcernIsNil(t *testing.T) {
	if got := ToDriver(mongoid.WriteConcern{}); got != nil {
		t.Fatalf("expected nil for no-opinion concern, got %#v", got)
	}
}

func TestToDriverFoldsFSyncIntoJournal(t *testing.T) {
	fsync := true
	got := ToDriver(mongoid.WriteConcern{W: 1, FSync: &fsync})
	if got.Journal == nil || !*got.Journal {
		t.Fatalf("expected fsync folded into journal, got %#v", got.Journal)
	}
}

func TestToDriverJournalWinsOverFSync(t *testing.T) {
	fsync := true
	journal := false
	got := ToDriver(mongoid.WriteConcern{W: 1, FSync: &fsync, Journal: &journal})
	if got.Journal == nil || *got.Journal {
		t.Fatalf("expected explicit journal=false to win, got %#v", got.Journal)
	}
}

func TestRoundTrip(t *testing.T) {
	timeout := time.Second
	journal := true
	original := mongoid.WriteConcern{W: 3, WTimeout: &timeout, Journal: &journal}

	back := FromDriver(ToDriver(original))
	if back.W != 3 {
		t.Fatalf("expected w=3, got %#v", back.W)
	}
	if back.WTimeout == nil || *back.WTimeout != timeout {
		t.Fatalf("expected wtimeout preserved, got %#v", back.WTimeout)
	}
	if back.Journal == nil || !*back.Journal {
		t.Fatalf("expected journal preserved, got %#v", back.Journal)
	}
}

func TestFromDriverNil(t *testing.T) {
	if got := FromDriver(nil); !got.IsZero() {
		t.Fatalf("expected zero concern for nil driver value, got %#v", got)
	}
}
