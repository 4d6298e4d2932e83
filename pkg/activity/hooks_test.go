package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksNotifyFansOut(t *testing.T) {
	first := &CaptureHook{}
	second := &CaptureHook{}
	hooks := Hooks{first, nil, second}

	event := Event{
		Verb:       " concern.resolved ",
		ObjectType: "write.concern",
		ObjectID:   "app.users",
		Metadata:   map[string]any{"source": "context"},
	}
	if err := hooks.Notify(context.Background(), event); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}

	for name, hook := range map[string]*CaptureHook{"first": first, "second": second} {
		if len(hook.Events) != 1 {
			t.Fatalf("%s hook expected 1 event, got %d", name, len(hook.Events))
		}
		got := hook.Events[0]
		if got.Verb != "concern.resolved" {
			t.Fatalf("%s hook expected trimmed verb, got %q", name, got.Verb)
		}
		if got.OccurredAt.IsZero() {
			t.Fatalf("%s hook expected a timestamp to be stamped", name)
		}
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	hook := &CaptureHook{}
	hooks := Hooks{hook}

	if err := hooks.Notify(context.Background(), Event{Verb: "concern.resolved"}); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(hook.Events) != 0 {
		t.Fatalf("expected event without object to be dropped, got %d events", len(hook.Events))
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	boom := errors.New("sink offline")
	failing := &CaptureHook{Err: boom}
	healthy := &CaptureHook{}
	hooks := Hooks{failing, healthy}

	err := hooks.Notify(context.Background(), Event{
		Verb:       "concern.override.set",
		ObjectType: "write.concern",
		ObjectID:   "app.users",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined sink error, got %v", err)
	}
	if len(healthy.Events) != 1 {
		t.Fatalf("healthy hook should still receive the event, got %d", len(healthy.Events))
	}
}

func TestNormalizeEventClonesMetadata(t *testing.T) {
	metadata := map[string]any{"source": "global"}
	normalized := NormalizeEvent(Event{
		Verb:       "concern.resolved",
		ObjectType: "write.concern",
		ObjectID:   "app.users",
		Metadata:   metadata,
	})

	metadata["source"] = "mutated"
	if normalized.Metadata["source"] != "global" {
		t.Fatalf("expected metadata clone, got %v", normalized.Metadata["source"])
	}
}

func TestEmitterAppliesDefaultChannel(t *testing.T) {
	hook := &CaptureHook{}
	emitter := NewEmitter(Hooks{hook}, Config{Enabled: true})

	err := emitter.Emit(context.Background(), Event{
		Verb:       "concern.resolved",
		ObjectType: "write.concern",
		ObjectID:   "app.users",
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}
	if len(hook.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(hook.Events))
	}
	if got := hook.Events[0].Channel; got != "persistence" {
		t.Fatalf("expected default channel %q, got %q", "persistence", got)
	}
}

func TestEmitterDisabledIsNoop(t *testing.T) {
	hook := &CaptureHook{}
	emitter := NewEmitter(Hooks{hook}, Config{Enabled: false})

	if err := emitter.Emit(context.Background(), Event{
		Verb:       "concern.resolved",
		ObjectType: "write.concern",
		ObjectID:   "app.users",
	}); err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}
	if len(hook.Events) != 0 {
		t.Fatalf("disabled emitter must not notify, got %d events", len(hook.Events))
	}
}
