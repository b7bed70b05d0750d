package segment

import (
	"fmt"
	"strings"
)

// ID is a stable segment handle. It survives compaction.
type ID = int

// Kind tags a segment with its role in the owning process.
type Kind uint8

const (
	Free Kind = iota
	Code
	Data
	Stack
)

func (k Kind) String() string {
	switch k {
	case Free:
		return "FREE"
	case Code:
		return "CODE"
	case Data:
		return "DATA"
	case Stack:
		return "STACK"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ParseKind accepts the String() names case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FREE":
		return Free, nil
	case "CODE":
		return Code, nil
	case "DATA":
		return Data, nil
	case "STACK":
		return Stack, nil
	}
	return Free, fmt.Errorf("%w: unknown kind %q", ErrBadKind, s)
}

// Segment is a contiguous region [Start, Start+Size).
type Segment struct {
	ID        ID   `json:"id"`
	Start     int  `json:"start"`
	Size      int  `json:"size"`
	Allocated bool `json:"allocated"`
	Owner     int  `json:"owner,omitempty"` // process id, 0 when free
	Kind      Kind `json:"kind"`
}

// End is the last address covered by the segment.
func (s Segment) End() int { return s.Start + s.Size - 1 }

func (s Segment) String() string {
	if !s.Allocated {
		return fmt.Sprintf("[%d..%d] FREE(%d)", s.Start, s.End(), s.Size)
	}
	return fmt.Sprintf("[%d..%d] %s(%d) pid=%d", s.Start, s.End(), s.Kind, s.Size, s.Owner)
}
