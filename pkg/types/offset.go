package types

import (
	"fmt"
	"strconv"
	"strings"
)

// OffsetRange is a half-open character range [Start, End) within a single line.
// Positions count characters (runes), not bytes.
type OffsetRange struct {
	Start int
	End   int
}

// NewOffsetRange returns the range [start, end).
// Returns error unless 0 <= start <= end.
func NewOffsetRange(start, end int) (OffsetRange, error) {
	if start < 0 {
		return OffsetRange{}, fmt.Errorf("invalid offset range: negative start %d", start)
	}
	if end < start {
		return OffsetRange{}, fmt.Errorf("invalid offset range: end %d before start %d", end, start)
	}
	return OffsetRange{Start: start, End: end}, nil
}

// Len returns the number of characters covered.
func (r OffsetRange) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range covers nothing.
func (r OffsetRange) Empty() bool {
	return r.Start == r.End
}

// Contains reports whether pos falls inside the range.
func (r OffsetRange) Contains(pos int) bool {
	return pos >= r.Start && pos < r.End
}

// String returns "[start,end)".
func (r OffsetRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// MarshalText encodes the range as "start:end" so it can key JSON objects.
func (r OffsetRange) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(r.Start) + ":" + strconv.Itoa(r.End)), nil
}

// UnmarshalText decodes "start:end".
func (r *OffsetRange) UnmarshalText(text []byte) error {
	startStr, endStr, ok := strings.Cut(string(text), ":")
	if !ok {
		return fmt.Errorf("invalid offset range %q: expected start:end", text)
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return fmt.Errorf("invalid offset range start %q: %w", startStr, err)
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return fmt.Errorf("invalid offset range end %q: %w", endStr, err)
	}

	parsed, err := NewOffsetRange(start, end)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
