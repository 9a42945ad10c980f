package salary

import (
	"errors"
	"fmt"

	"hh-vacancies-go/internal/models"
)

// ErrCurrencyMismatch is returned when two salaries in different currencies are compared
var ErrCurrencyMismatch = errors.New("salary: currency mismatch")

// NotSpecified is rendered for a salary without any bound
const NotSpecified = "not specified"

// Ordering is the result of comparing two salaries
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// Salary is an immutable pay range. Either bound may be absent.
type Salary struct {
	lower    *int
	upper    *int
	currency string
}

// New builds a salary; pass nil for an unspecified bound.
func New(lower, upper *int, currency string) Salary {
	return Salary{lower: copyInt(lower), upper: copyInt(upper), currency: currency}
}

// Parse builds a Salary from a vacancy's raw salary sub-object. The second result
// is false when the vacancy carries no salary at all, including an empty
// sub-object such as "salary": {}.
func Parse(raw *models.SalaryRange) (Salary, bool) {
	if raw == nil || (raw.From == nil && raw.To == nil && raw.Currency == "") {
		return Salary{}, false
	}
	return New(raw.From, raw.To, raw.Currency), true
}

// Lower returns the lower bound and whether it is set
func (s Salary) Lower() (int, bool) {
	if s.lower == nil {
		return 0, false
	}
	return *s.lower, true
}

// Upper returns the upper bound and whether it is set
func (s Salary) Upper() (int, bool) {
	if s.upper == nil {
		return 0, false
	}
	return *s.upper, true
}

func (s Salary) Currency() string {
	return s.currency
}

// Specified reports whether at least one bound is set
func (s Salary) Specified() bool {
	return s.lower != nil || s.upper != nil
}

// Equal reports whether both bounds and the currency are identical
func (s Salary) Equal(other Salary) bool {
	return s.currency == other.currency &&
		equalBound(s.lower, other.lower) &&
		equalBound(s.upper, other.upper)
}

// Compare orders two salaries of the same currency by the sum of their bounds,
// counting an absent bound as zero. This is not a midpoint when only one bound
// is present.
func (s Salary) Compare(other Salary) (Ordering, error) {
	if s.currency != other.currency {
		return Equal, fmt.Errorf("%w: %q vs %q", ErrCurrencyMismatch, s.currency, other.currency)
	}

	a, b := s.sum(), other.sum()
	switch {
	case a < b:
		return Less, nil
	case a > b:
		return Greater, nil
	default:
		return Equal, nil
	}
}

// Average returns the mean of both bounds, or the only bound present.
// The second result is false when neither bound is set.
func (s Salary) Average() (float64, bool) {
	switch {
	case s.lower != nil && s.upper != nil:
		return float64(*s.lower+*s.upper) / 2, true
	case s.lower != nil:
		return float64(*s.lower), true
	case s.upper != nil:
		return float64(*s.upper), true
	default:
		return 0, false
	}
}

func (s Salary) String() string {
	switch {
	case s.lower != nil && s.upper != nil:
		return fmt.Sprintf("%d-%d %s", *s.lower, *s.upper, s.currency)
	case s.lower != nil:
		return fmt.Sprintf("from %d %s", *s.lower, s.currency)
	case s.upper != nil:
		return fmt.Sprintf("to %d %s", *s.upper, s.currency)
	default:
		return NotSpecified
	}
}

// Format renders a vacancy's raw salary, including the absent case
func Format(raw *models.SalaryRange) string {
	s, ok := Parse(raw)
	if !ok {
		return NotSpecified
	}
	return s.String()
}

func (s Salary) sum() int {
	total := 0
	if s.lower != nil {
		total += *s.lower
	}
	if s.upper != nil {
		total += *s.upper
	}
	return total
}

func equalBound(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
