package domain

import (
	"fmt"

	"shopkeep/m/internal/apperr"
)

// SerialState is the lifecycle state of one serialized unit.
//
//	Available --sell--> Sold --restore--> Available
//
// No other transition exists.
type SerialState string

const (
	SerialAvailable SerialState = "available"
	SerialSold      SerialState = "sold"
)

func (s SerialState) Valid() bool {
	return s == SerialAvailable || s == SerialSold
}

// SerialEvent drives a SerialState transition.
type SerialEvent int

const (
	// SerialSell consumes a unit: sale, exchange issue, purchase return.
	SerialSell SerialEvent = iota + 1
	// SerialRestore puts a consumed unit back: sale deletion, sales return,
	// exchange take-back, purchase return deletion.
	SerialRestore
)

func (e SerialEvent) String() string {
	switch e {
	case SerialSell:
		return "sell"
	case SerialRestore:
		return "restore"
	default:
		return fmt.Sprintf("SerialEvent(%d)", int(e))
	}
}

// From is the only state the event may be applied to.
func (e SerialEvent) From() SerialState {
	switch e {
	case SerialSell:
		return SerialAvailable
	case SerialRestore:
		return SerialSold
	default:
		return ""
	}
}

// Transition returns the state reached by applying e to s.
func (s SerialState) Transition(e SerialEvent) (SerialState, error) {
	switch s {
	case SerialAvailable:
		switch e {
		case SerialSell:
			return SerialSold, nil
		case SerialRestore:
			return s, apperr.StateConflict("serial is already available")
		}
	case SerialSold:
		switch e {
		case SerialRestore:
			return SerialAvailable, nil
		case SerialSell:
			return s, apperr.SerialUnavailable("serial is already sold")
		}
	default:
		return s, fmt.Errorf("unknown serial state %q", string(s))
	}
	return s, fmt.Errorf("unknown serial event %s", e)
}
