package mongoid

import (
	"encoding/json"
	"time"

	"github.com/zanker/mongoid/internal/hydrate"
	"github.com/zanker/mongoid/layering"
)

// WriteConcern captures the acknowledgment policy requested for a single
// write against a replicated store. Every dimension is independently
// optional; a nil field means the caller has no opinion and weaker
// precedence levels may supply a value.
type WriteConcern struct {
	// W is the required acknowledging node count (int) or mode (string,
	// e.g. "majority"). nil means unspecified.
	W any
	// WTimeout bounds how long the server waits for acknowledgment.
	WTimeout *time.Duration
	// FSync requires a durable flush before acknowledging.
	FSync *bool
	// Journal requires a journal commit before acknowledging.
	Journal *bool
}

// Safe returns the single-node acknowledgment concern used for scoped
// safe-mode requests.
func Safe() WriteConcern {
	return WriteConcern{W: 1}
}

// Unsafe returns the fire-and-forget concern.
func Unsafe() WriteConcern {
	return WriteConcern{W: 0}
}

// Concern builds a WriteConcern from a bare w value (node count or mode).
func Concern(w any) WriteConcern {
	return WriteConcern{W: w}
}

// IsZero reports whether no dimension carries an opinion.
func (wc WriteConcern) IsZero() bool {
	return wc.W == nil && wc.WTimeout == nil && wc.FSync == nil && wc.Journal == nil
}

// Acknowledged reports whether the concern requests any acknowledgment at
// all, i.e. it is not a fire-and-forget write.
func (wc WriteConcern) Acknowledged() bool {
	switch w := wc.W.(type) {
	case nil:
		return boolValue(wc.Journal) || boolValue(wc.FSync)
	case int:
		return w > 0
	case int32:
		return w > 0
	case int64:
		return w > 0
	default:
		// String modes such as "majority" always wait.
		return true
	}
}

// Clone returns a deep copy detached from the receiver's pointers.
func (wc WriteConcern) Clone() WriteConcern {
	return layering.Clone(wc)
}

// Merge overlays the receiver on top of a weaker concern: every dimension the
// receiver sets wins, missing dimensions are filled from weaker.
func (wc WriteConcern) Merge(weaker WriteConcern) WriteConcern {
	return layering.Merge(wc, weaker)
}

// Map renders the concern using the conventional option keys. Unset
// dimensions are omitted; wtimeout is expressed in milliseconds.
func (wc WriteConcern) Map() map[string]any {
	out := map[string]any{}
	if wc.W != nil {
		out["w"] = wc.W
	}
	if wc.WTimeout != nil {
		out["wtimeout"] = wc.WTimeout.Milliseconds()
	}
	if wc.FSync != nil {
		out["fsync"] = *wc.FSync
	}
	if wc.Journal != nil {
		out["j"] = *wc.Journal
	}
	return out
}

type concernPayload struct {
	W        any    `json:"w"`
	WTimeout *int64 `json:"wtimeout"`
	FSync    *bool  `json:"fsync"`
	J        *bool  `json:"j"`
}

var concernDecoder = hydrate.NewDecoder[concernPayload](
	hydrate.WithUseNumber[concernPayload](),
	hydrate.WithPreHook[concernPayload](normalizeConcernKeys),
)

// FromMap decodes a concern from its option-key form. The accepted keys are
// w, wtimeout (milliseconds), fsync, and j (journal is accepted as an alias).
// Unrecognized keys are ignored; their validation belongs to the store
// client.
func FromMap(payload map[string]any) (WriteConcern, error) {
	if len(payload) == 0 {
		return WriteConcern{}, nil
	}

	decoded, err := concernDecoder.Decode(hydrate.Context{Origin: "concern map"}, payload)
	if err != nil {
		return WriteConcern{}, err
	}

	wc := WriteConcern{
		W:     normalizeW(decoded.W),
		FSync: decoded.FSync,
	}
	if decoded.WTimeout != nil {
		timeout := time.Duration(*decoded.WTimeout) * time.Millisecond
		wc.WTimeout = &timeout
	}
	if decoded.J != nil {
		wc.Journal = decoded.J
	}
	return wc, nil
}

func normalizeConcernKeys(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	if value, ok := payload["journal"]; ok {
		if _, exists := payload["j"]; !exists {
			payload["j"] = value
		}
		delete(payload, "journal")
	}
	return payload, nil
}

func normalizeW(w any) any {
	switch value := w.(type) {
	case nil:
		return nil
	case json.Number:
		if parsed, err := value.Int64(); err == nil {
			return int(parsed)
		}
		return value.String()
	case float64:
		return int(value)
	case int32:
		return int(value)
	case int64:
		return int(value)
	default:
		return value
	}
}

func boolValue(v *bool) bool {
	return v != nil && *v
}
