package mongoid

import "fmt"

// Source identifies the precedence level that supplied the effective write
// concern. Higher values override lower ones.
type Source int

const (
	// SourceUnknown guards against uninitialised traces.
	SourceUnknown Source = iota
	// SourceFallback is the last-resort default derived from the safe-mode flag.
	SourceFallback
	// SourceGlobal is the process-wide default concern from configuration.
	SourceGlobal
	// SourcePolicy is a concern selected by a matching policy rule.
	SourcePolicy
	// SourceContext is a transient override carried on the calling context.
	SourceContext
	// SourceExplicit is a concern passed directly to the persistence call.
	SourceExplicit
)

func (s Source) String() string {
	switch s {
	case SourceFallback:
		return "fallback"
	case SourceGlobal:
		return "global"
	case SourcePolicy:
		return "policy"
	case SourceContext:
		return "context"
	case SourceExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// ParseSource converts a string representation into the corresponding Source.
// Returns SourceUnknown for unrecognised values.
func ParseSource(value string) Source {
	switch value {
	case "fallback", "FALLBACK":
		return SourceFallback
	case "global", "GLOBAL":
		return SourceGlobal
	case "policy", "POLICY":
		return SourcePolicy
	case "context", "CONTEXT":
		return SourceContext
	case "explicit", "EXPLICIT":
		return SourceExplicit
	default:
		return SourceUnknown
	}
}

// MarshalJSON renders the source as its string name so traces stay readable.
func (s Source) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// UnmarshalJSON accepts the string names produced by MarshalJSON.
func (s *Source) UnmarshalJSON(payload []byte) error {
	if len(payload) < 2 || payload[0] != '"' || payload[len(payload)-1] != '"' {
		return fmt.Errorf("mongoid: invalid source payload %q", payload)
	}
	*s = ParseSource(string(payload[1 : len(payload)-1]))
	return nil
}
