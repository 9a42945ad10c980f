package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"hh-vacancies-go/internal/models"
)

// ErrInvalidRecordShape is returned when a sequence holds an element that is not a vacancy
var ErrInvalidRecordShape = errors.New("invalid record shape")

// SortKey selects the field vacancies are ordered by
type SortKey string

const (
	SortBySalary      SortKey = "salary"
	SortByPublishedAt SortKey = "published_at"
)

// ParseSortKey accepts "salary", "published_at" and "date".
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "salary":
		return SortBySalary, nil
	case "published_at", "publishedat", "date":
		return SortByPublishedAt, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (use salary or published_at)", s)
	}
}

// Sort returns a new slice ordered by key. The salary key is the raw lower bound
// (0 when absent) regardless of currency; the published_at key compares the
// timestamp strings lexically. The sort is stable in both directions, so equal
// keys keep their input order.
func Sort(records []*models.Vacancy, key SortKey, ascending bool) ([]*models.Vacancy, error) {
	for i, record := range records {
		if record == nil {
			return nil, fmt.Errorf("%w: element %d is nil", ErrInvalidRecordShape, i)
		}
	}

	var less func(a, b *models.Vacancy) bool
	switch key {
	case SortBySalary:
		less = func(a, b *models.Vacancy) bool { return a.SalaryFrom() < b.SalaryFrom() }
	case SortByPublishedAt:
		less = func(a, b *models.Vacancy) bool { return a.PublishedAt < b.PublishedAt }
	default:
		return nil, fmt.Errorf("unknown sort key %q", key)
	}

	sorted := make([]*models.Vacancy, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return less(sorted[i], sorted[j])
		}
		return less(sorted[j], sorted[i])
	})
	return sorted, nil
}

// TopN returns the n vacancies with the highest salary lower bound, highest first.
func TopN(records []*models.Vacancy, n int) ([]*models.Vacancy, error) {
	if n <= 0 {
		return []*models.Vacancy{}, nil
	}

	sorted, err := Sort(records, SortBySalary, false)
	if err != nil {
		return nil, err
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted, nil
}

// Compact drops nil elements and reports how many were removed
func Compact(records []*models.Vacancy) ([]*models.Vacancy, int) {
	compacted := make([]*models.Vacancy, 0, len(records))
	for _, record := range records {
		if record != nil {
			compacted = append(compacted, record)
		}
	}
	return compacted, len(records) - len(compacted)
}
