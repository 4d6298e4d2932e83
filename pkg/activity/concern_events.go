package activity

import (
	"strings"
	"time"
)

// ConcernEventInput describes the common fields for write-concern lifecycle
// events.
type ConcernEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Operation      string
	Database       string
	Collection     string
	Source         string
	Concern        map[string]any
	OccurredAt     time.Time
}

// BuildOverrideSetEvent constructs a normalized activity event recording that
// a transient override was requested for the next persistence operation.
func BuildOverrideSetEvent(input ConcernEventInput) Event {
	return buildConcernEvent("concern.override.set", "write.concern", input)
}

// BuildConcernResolvedEvent constructs a normalized activity event recording
// which precedence level supplied the effective concern.
func BuildConcernResolvedEvent(input ConcernEventInput) Event {
	return buildConcernEvent("concern.resolved", "write.concern", input)
}

// BuildUnsafeRequestedEvent constructs an activity event flagging an explicit
// fire-and-forget request, the case most worth an audit trail.
func BuildUnsafeRequestedEvent(input ConcernEventInput) Event {
	return buildConcernEvent("concern.unsafe.requested", "write.concern", input)
}

func buildConcernEvent(verb, objectType string, input ConcernEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Operation != "" {
		metadata = ensureMetadata(metadata)
		metadata["operation"] = input.Operation
	}
	if input.Database != "" {
		metadata = ensureMetadata(metadata)
		metadata["database"] = input.Database
	}
	if input.Collection != "" {
		metadata = ensureMetadata(metadata)
		metadata["collection"] = input.Collection
	}
	if input.Source != "" {
		metadata = ensureMetadata(metadata)
		metadata["source"] = input.Source
	}
	if len(input.Concern) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["concern"] = cloneMap(input.Concern)
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.Collection)
	if objectID != "" && strings.TrimSpace(input.Database) != "" {
		objectID = strings.TrimSpace(input.Database) + "." + objectID
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.Operation)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
