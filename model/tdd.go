package model

import (
	"fmt"
	"strings"
)

// TddSlotKind classifies a slot within a TDD pattern. Ordering matters:
// sidelink transmission is only possible in UL slots, and the kinds are
// compared when expanding a sidelink bitmap over a pattern.
type TddSlotKind uint8

const (
	// TddDL is a downlink-only slot (DL control + DL data).
	TddDL TddSlotKind = iota
	// TddS is a special slot (DL control + DL data + UL control).
	TddS
	// TddF is a flexible slot (DL and UL portions).
	TddF
	// TddUL is an uplink-only slot (UL data + UL control).
	TddUL
)

func (k TddSlotKind) String() string {
	switch k {
	case TddDL:
		return "DL"
	case TddS:
		return "S"
	case TddF:
		return "F"
	case TddUL:
		return "UL"
	default:
		return fmt.Sprintf("TddSlotKind(%d)", uint8(k))
	}
}

// ParseTddPattern parses a pattern string such as "DL|DL|UL|UL|" into the
// ordered slot kinds of one pattern period. A trailing separator is allowed.
func ParseTddPattern(s string) ([]TddSlotKind, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), "|")
	if trimmed == "" {
		return nil, fmt.Errorf("tdd pattern %q: empty", s)
	}

	parts := strings.Split(trimmed, "|")
	pattern := make([]TddSlotKind, 0, len(parts))
	for i, p := range parts {
		switch strings.TrimSpace(p) {
		case "DL":
			pattern = append(pattern, TddDL)
		case "S":
			pattern = append(pattern, TddS)
		case "F":
			pattern = append(pattern, TddF)
		case "UL":
			pattern = append(pattern, TddUL)
		default:
			return nil, fmt.Errorf("tdd pattern %q: unknown slot kind %q at position %d", s, p, i)
		}
	}
	return pattern, nil
}
