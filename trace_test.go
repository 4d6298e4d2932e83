package mongoid

import (
	"encoding/json"
	"testing"
)

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := Trace{
		Concern: map[string]any{"w": "majority"},
		Source:  SourceContext,
		Levels: []Candidate{
			{Source: SourceExplicit, Present: false},
			{Source: SourceContext, Concern: map[string]any{"w": "majority"}, Present: true, Applied: true},
			{Source: SourceFallback, Concern: map[string]any{"w": float64(0)}, Present: true},
		},
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	back, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}

	if back.Source != SourceContext {
		t.Fatalf("expected context source, got %s", back.Source)
	}
	if len(back.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(back.Levels))
	}
	if !back.Levels[1].Applied || back.Levels[1].Source != SourceContext {
		t.Fatalf("expected applied context level, got %#v", back.Levels[1])
	}
	if back.Levels[0].Concern != nil {
		t.Fatalf("absent level must omit its concern, got %#v", back.Levels[0].Concern)
	}
	if back.Concern["w"] != "majority" {
		t.Fatalf("unexpected effective concern %#v", back.Concern)
	}
}

func TestTraceJSONSourceNames(t *testing.T) {
	trace := Trace{Source: SourceExplicit}
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if raw["source"] != "explicit" {
		t.Fatalf("expected the source rendered by name, got %#v", raw["source"])
	}
}

func TestTraceFromJSONRejectsGarbage(t *testing.T) {
	if _, err := TraceFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected an error for malformed payload")
	}
}
