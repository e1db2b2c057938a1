package multisig

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Threshold is the fraction of total snapshot weight a session must gather.
// The zero value is not a valid threshold.
type Threshold struct {
	Numerator   uint64
	Denominator uint64
}

// NewThreshold returns numerator/denominator after validating it.
func NewThreshold(numerator, denominator uint64) (Threshold, error) {
	t := Threshold{Numerator: numerator, Denominator: denominator}
	if err := t.Validate(); err != nil {
		return Threshold{}, err
	}
	return t, nil
}

// MustThreshold is like NewThreshold but panics on invalid input. It is
// intended for package-level defaults and tests.
func MustThreshold(numerator, denominator uint64) Threshold {
	t, err := NewThreshold(numerator, denominator)
	if err != nil {
		panic(err)
	}
	return t
}

// Validate checks 0 < numerator <= denominator.
func (t Threshold) Validate() error {
	if t.Numerator == 0 || t.Denominator == 0 {
		return fmt.Errorf("%w: %d/%d has a zero term", ErrInvalidThreshold, t.Numerator, t.Denominator)
	}
	if t.Numerator > t.Denominator {
		return fmt.Errorf("%w: %d/%d exceeds one", ErrInvalidThreshold, t.Numerator, t.Denominator)
	}
	return nil
}

// IsZero reports whether t is the unset zero value.
func (t Threshold) IsZero() bool {
	return t.Numerator == 0 && t.Denominator == 0
}

// Quorum returns the smallest weight w with w >= total * t, that is
// ceil(total * numerator / denominator). The product is computed in 128 bits
// so no combination of inputs overflows. t must be valid.
func (t Threshold) Quorum(total uint64) uint64 {
	hi, lo := bits.Mul64(total, t.Numerator)
	// numerator <= denominator keeps the quotient within 64 bits, so hi < denominator.
	q, rem := bits.Div64(hi, lo, t.Denominator)
	if rem != 0 {
		q++
	}
	return q
}

// Reached reports whether weight meets the threshold of total.
func (t Threshold) Reached(weight, total uint64) bool {
	return weight >= t.Quorum(total)
}

// String formats t as "numerator/denominator".
func (t Threshold) String() string {
	return strconv.FormatUint(t.Numerator, 10) + "/" + strconv.FormatUint(t.Denominator, 10)
}

// ParseThreshold parses "numerator/denominator".
func ParseThreshold(s string) (Threshold, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Threshold{}, fmt.Errorf("%w: %q is not of the form n/d", ErrInvalidThreshold, s)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("%w: numerator: %v", ErrInvalidThreshold, err)
	}
	d, err := strconv.ParseUint(strings.TrimSpace(den), 10, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("%w: denominator: %v", ErrInvalidThreshold, err)
	}
	return NewThreshold(n, d)
}

// MarshalText implements encoding.TextMarshaler.
func (t Threshold) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Threshold) UnmarshalText(text []byte) error {
	parsed, err := ParseThreshold(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
