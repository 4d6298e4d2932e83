package usersink

import (
	"context"
	"testing"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/zanker/mongoid/pkg/activity"
)

type captureSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *captureSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookMapsEventToRecord(t *testing.T) {
	sink := &captureSink{}
	hook := Hook{Sink: sink}
	actorID := uuid.New()

	event := activity.BuildConcernResolvedEvent(activity.ConcernEventInput{
		ActorID:    actorID.String(),
		Operation:  "insert",
		Database:   "app",
		Collection: "users",
		Source:     "policy",
		Concern:    map[string]any{"w": "majority"},
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}

	record := sink.records[0]
	if record.Verb != "concern.resolved" {
		t.Fatalf("unexpected verb %q", record.Verb)
	}
	if record.ActorID != actorID {
		t.Fatalf("expected actor id %s, got %s", actorID, record.ActorID)
	}
	if record.ObjectID != "app.users" {
		t.Fatalf("unexpected object id %q", record.ObjectID)
	}
	if record.Data["source"] != "policy" {
		t.Fatalf("expected source in record data, got %v", record.Data["source"])
	}
	if record.OccurredAt.IsZero() {
		t.Fatal("expected a timestamp on the record")
	}
}

func TestHookIgnoresMalformedActorID(t *testing.T) {
	sink := &captureSink{}
	hook := Hook{Sink: sink}

	event := activity.Event{
		Verb:       "concern.override.set",
		ObjectType: "write.concern",
		ObjectID:   "app.users",
		ActorID:    "not-a-uuid",
	}
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor uuid, got %s", sink.records[0].ActorID)
	}
}

func TestHookSkipsIncompleteEvents(t *testing.T) {
	sink := &captureSink{}
	hook := Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{Verb: "concern.resolved"}); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected incomplete event to be dropped, got %d records", len(sink.records))
	}
}

func TestHookNilSinkIsNoop(t *testing.T) {
	hook := Hook{}
	if err := hook.Notify(context.Background(), activity.Event{
		Verb:       "concern.resolved",
		ObjectType: "write.concern",
		ObjectID:   "app.users",
	}); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
}
