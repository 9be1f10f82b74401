package model

import (
	"fmt"
	"strings"
)

// EventKind identifies one of the supported ERC-20 event shapes.
type EventKind string

const (
	KindTransfer EventKind = "Transfer"
	KindMint     EventKind = "Mint"
	KindBurn     EventKind = "Burn"
	KindApproval EventKind = "Approval"
)

// Kinds lists all supported event kinds in a stable order.
func Kinds() []EventKind {
	return []EventKind{KindTransfer, KindMint, KindBurn, KindApproval}
}

// ParseEventKind converts a user-supplied name into an EventKind.
func ParseEventKind(input string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "transfer":
		return KindTransfer, nil
	case "mint":
		return KindMint, nil
	case "burn":
		return KindBurn, nil
	case "approval":
		return KindApproval, nil
	default:
		return "", fmt.Errorf("unsupported event kind: %s", input)
	}
}
