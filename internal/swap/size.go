package swap

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const MiB = 1024 * 1024

var (
	// ErrInvalidSize is returned for tokens that are not a number followed by
	// an optional K/M/G/T suffix.
	ErrInvalidSize = errors.New("invalid size")

	// ErrSizeTooSmall is returned when the parsed size is below 1 MiB.
	ErrSizeTooSmall = errors.New("size must be at least 1M")
)

// SizeSpec is a parsed size token. Rounded is Bytes rounded up to the next
// MiB boundary; mkswap and the zero-fill writer both work in whole-MiB blocks.
type SizeSpec struct {
	Raw     string
	Bytes   uint64
	Rounded uint64
}

var sizeMultipliers = map[string]uint64{
	"":  1,
	"K": 1024,
	"M": 1024 * 1024,
	"G": 1024 * 1024 * 1024,
	"T": 1024 * 1024 * 1024 * 1024,
}

// ParseSize converts a human-readable size token like "2G" or "512M" into a
// SizeSpec. Multipliers are binary (1024-based). An optional trailing "B" is
// accepted after the unit letter.
func ParseSize(token string) (SizeSpec, error) {
	raw := token
	s := strings.ToUpper(strings.TrimSpace(token))
	if s == "" {
		return SizeSpec{}, fmt.Errorf("%w: empty size", ErrInvalidSize)
	}

	s = strings.TrimSuffix(s, "B")

	unit := ""
	if n := len(s); n > 0 && s[n-1] >= 'A' && s[n-1] <= 'Z' {
		unit = s[n-1:]
		s = s[:n-1]
	}

	mult, ok := sizeMultipliers[unit]
	if !ok {
		return SizeSpec{}, fmt.Errorf("%w: unknown unit %q in %q", ErrInvalidSize, unit, raw)
	}

	if s == "" {
		return SizeSpec{}, fmt.Errorf("%w: %q has no numeric part", ErrInvalidSize, raw)
	}

	value, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return SizeSpec{}, fmt.Errorf("%w: %q is not a number", ErrInvalidSize, raw)
	}

	// Guard the multiplication and the MiB rounding against uint64 wraparound.
	if value > (math.MaxUint64-MiB+1)/mult {
		return SizeSpec{}, fmt.Errorf("%w: %q is too large", ErrInvalidSize, raw)
	}

	bytes := value * mult
	rounded := (bytes + MiB - 1) / MiB * MiB
	if rounded < MiB {
		return SizeSpec{}, fmt.Errorf("%w: got %q", ErrSizeTooSmall, raw)
	}

	return SizeSpec{Raw: raw, Bytes: bytes, Rounded: rounded}, nil
}

// HumanSize renders a byte count the way the prompts display it.
func HumanSize(bytes uint64) string {
	switch {
	case bytes >= 1024*1024*1024 && bytes%(1024*1024*1024) == 0:
		return fmt.Sprintf("%dG", bytes/(1024*1024*1024))
	case bytes >= MiB && bytes%MiB == 0:
		return fmt.Sprintf("%dM", bytes/MiB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
