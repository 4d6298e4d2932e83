// Package mongodb converts resolved write concerns into the official MongoDB
// driver's representation, ready to hand to client, database, or collection
// options.
package mongodb

import (
	driverwc "go.mongodb.org/mongo-driver/mongo/writeconcern"

	mongoid "github.com/zanker/mongoid"
)

// ToDriver maps a resolved concern onto the driver type. A concern with no
// opinion maps to nil so the driver falls back to its own inheritance chain.
func ToDriver(wc mongoid.WriteConcern) *driverwc.WriteConcern {
	if wc.IsZero() {
		return nil
	}

	out := &driverwc.WriteConcern{}
	if wc.W != nil {
		out.W = wc.W
	}
	switch {
	case wc.Journal != nil:
		journal := *wc.Journal
		out.Journal = &journal
	case wc.FSync != nil:
		// Servers retired fsync acknowledgment; journal commit is its
		// modern spelling.
		journal := *wc.FSync
		out.Journal = &journal
	}
	if wc.WTimeout != nil {
		out.WTimeout = *wc.WTimeout
	}
	return out
}

// FromDriver maps a driver write concern back onto the resolver's value type.
func FromDriver(wc *driverwc.WriteConcern) mongoid.WriteConcern {
	if wc == nil {
		return mongoid.WriteConcern{}
	}

	out := mongoid.WriteConcern{W: wc.W}
	if wc.Journal != nil {
		journal := *wc.Journal
		out.Journal = &journal
	}
	if wc.WTimeout > 0 {
		timeout := wc.WTimeout
		out.WTimeout = &timeout
	}
	return out
}
