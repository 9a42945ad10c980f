package ranking

import (
	"errors"
	"log"

	"hh-vacancies-go/internal/models"
)

// Query describes one end-to-end ranking request
type Query struct {
	Keywords    []string // every word must appear in the title
	Phrase      string   // optional search phrase
	SalaryRange string   // "min-max"; empty disables the salary stage
	SortKey     SortKey  // used when Top is zero
	Ascending   bool
	Top         int // when positive, take the top N by salary instead of sorting
}

// Pipeline runs keyword filter -> salary filter -> sort or top-N.
// It never fails: stage errors are logged and resolved to a (possibly empty) result.
type Pipeline struct {
	currency string
	logger   *log.Logger
}

// NewPipeline creates a pipeline that filters salaries in the given reference currency
func NewPipeline(currency string, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{currency: currency, logger: logger}
}

// Currency returns the reference currency used by the salary stage
func (p *Pipeline) Currency() string {
	return p.currency
}

// RunBatches flattens pagination batches and runs the query
func (p *Pipeline) RunBatches(batches [][]*models.Vacancy, q Query) []*models.Vacancy {
	return p.Run(Flatten(batches), q)
}

// Run executes the query over records
func (p *Pipeline) Run(records []*models.Vacancy, q Query) []*models.Vacancy {
	result := FilterByKeywords(records, q.Keywords, q.Phrase)

	if q.SalaryRange != "" {
		filtered, err := FilterBySalaryRange(result, q.SalaryRange, p.currency)
		if err != nil {
			p.logger.Printf("Salary filter skipped, continuing with no vacancies: %v", err)
			return []*models.Vacancy{}
		}
		result = filtered
	}

	if q.Top > 0 {
		return p.rank(result, func(r []*models.Vacancy) ([]*models.Vacancy, error) {
			return TopN(r, q.Top)
		})
	}

	key := q.SortKey
	if key == "" {
		return result
	}
	return p.rank(result, func(r []*models.Vacancy) ([]*models.Vacancy, error) {
		return Sort(r, key, q.Ascending)
	})
}

// rank applies fn, dropping malformed elements and retrying once if fn rejects the input shape
func (p *Pipeline) rank(records []*models.Vacancy, fn func([]*models.Vacancy) ([]*models.Vacancy, error)) []*models.Vacancy {
	ranked, err := fn(records)
	if err == nil {
		return ranked
	}

	if errors.Is(err, ErrInvalidRecordShape) {
		compacted, dropped := Compact(records)
		p.logger.Printf("Dropped %d malformed vacancies before ranking: %v", dropped, err)
		if ranked, err = fn(compacted); err == nil {
			return ranked
		}
	}

	p.logger.Printf("Ranking failed, returning unranked vacancies: %v", err)
	return records
}
