package models

import (
	"fmt"
	"strings"
)

// Mode selects the balancing rule applied when posting transactions.
type Mode string

const (
	// ModeDoubleEntry requires the lines of every transaction to sum to zero.
	ModeDoubleEntry Mode = "double"
	// ModeSimple allows single-line transactions against an implicit external entity.
	ModeSimple Mode = "simple"
)

// ParseMode parses a mode name. The empty string selects double-entry.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "double", "double-entry", "doubleentry":
		return ModeDoubleEntry, nil
	case "simple", "single", "single-entry":
		return ModeSimple, nil
	}
	return "", fmt.Errorf("unknown ledger mode %q", s)
}
