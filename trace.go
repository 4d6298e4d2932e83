package mongoid

import (
	"encoding/json"
)

// Trace captures provenance for one resolution: the effective concern, the
// precedence level that won, and what every level had to offer.
type Trace struct {
	Concern map[string]any `json:"concern"`
	Source  Source         `json:"source"`
	Levels  []Candidate    `json:"levels"`
}

// Candidate details how a precedence level participated in a resolution.
type Candidate struct {
	Source  Source         `json:"source"`
	Concern map[string]any `json:"concern,omitempty"`
	Present bool           `json:"present"`
	Applied bool           `json:"applied"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
