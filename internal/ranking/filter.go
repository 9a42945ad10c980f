package ranking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hh-vacancies-go/internal/models"
)

// ErrBadRangeFormat is returned when a salary range is not "<int>-<int>"
var ErrBadRangeFormat = errors.New("bad salary range format")

// SalaryRange is an inclusive [Min, Max] bound on a vacancy's lower salary
type SalaryRange struct {
	Min int
	Max int
}

// Contains reports whether n falls inside the range, bounds included
func (r SalaryRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// ParseSalaryRange parses exactly two integers joined by a hyphen, e.g. "100000-150000".
func ParseSalaryRange(expr string) (SalaryRange, error) {
	parts := strings.Split(strings.TrimSpace(expr), "-")
	if len(parts) != 2 {
		return SalaryRange{}, fmt.Errorf("%w: %q", ErrBadRangeFormat, expr)
	}

	min, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return SalaryRange{}, fmt.Errorf("%w: %q", ErrBadRangeFormat, expr)
	}
	max, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return SalaryRange{}, fmt.Errorf("%w: %q", ErrBadRangeFormat, expr)
	}

	return SalaryRange{Min: min, Max: max}, nil
}

// FilterByKeywords keeps vacancies whose title contains every word and, when
// phrase is non-empty, the phrase too. Matching is case-insensitive substring
// containment. Nil entries are skipped and input order is preserved.
func FilterByKeywords(records []*models.Vacancy, words []string, phrase string) []*models.Vacancy {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		lowered = append(lowered, strings.ToLower(w))
	}
	phrase = strings.ToLower(phrase)

	filtered := make([]*models.Vacancy, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		title := strings.ToLower(record.Title())
		if !containsAll(title, lowered) {
			continue
		}
		if phrase != "" && !strings.Contains(title, phrase) {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

// FilterBySalaryRange keeps vacancies that have a salary in the given currency
// whose lower bound (0 when absent) lies within the parsed range. Vacancies with
// no salary or another currency are dropped, since their pay cannot be confirmed
// in range. A malformed expr yields an empty result and ErrBadRangeFormat.
func FilterBySalaryRange(records []*models.Vacancy, expr, currency string) ([]*models.Vacancy, error) {
	bounds, err := ParseSalaryRange(expr)
	if err != nil {
		return []*models.Vacancy{}, err
	}

	filtered := make([]*models.Vacancy, 0, len(records))
	for _, record := range records {
		if record == nil || record.Salary == nil {
			continue
		}
		if record.Salary.Currency != currency {
			continue
		}
		if bounds.Contains(record.SalaryFrom()) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// FilterBatchesBySalaryRange flattens pagination batches one level and applies
// FilterBySalaryRange.
func FilterBatchesBySalaryRange(batches [][]*models.Vacancy, expr, currency string) ([]*models.Vacancy, error) {
	return FilterBySalaryRange(Flatten(batches), expr, currency)
}

// Flatten concatenates batches in order
func Flatten(batches [][]*models.Vacancy) []*models.Vacancy {
	if len(batches) == 0 {
		return []*models.Vacancy{}
	}

	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	flat := make([]*models.Vacancy, 0, total)
	for _, batch := range batches {
		flat = append(flat, batch...)
	}
	return flat
}

// SplitKeywords splits a whitespace-delimited keyword list
func SplitKeywords(s string) []string {
	return strings.Fields(s)
}

func containsAll(title string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(title, w) {
			return false
		}
	}
	return true
}
