package storage

import (
	"fmt"
	"os"
	"time"

	supabase "github.com/nedpals/supabase-go"

	"hh-vacancies-go/internal/models"
)

const (
	vacanciesTable = "vacancies"
	insertBatch    = 50
)

// SupabaseStore uses the nedpals/supabase-go SDK to persist collections as rows of
// the vacancies table, tagged by collection name.
type SupabaseStore struct {
	client *supabase.Client
}

// vacancyRow is the table layout; one row per vacancy
type vacancyRow struct {
	Collection     string    `json:"collection"`
	Position       int       `json:"position"`
	VacancyID      string    `json:"vacancy_id"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	AlternateURL   string    `json:"alternate_url"`
	SalaryFrom     *int      `json:"salary_from"`
	SalaryTo       *int      `json:"salary_to"`
	SalaryCurrency *string   `json:"salary_currency"`
	PublishedAt    string    `json:"published_at"`
	Employer       string    `json:"employer"`
	Area           string    `json:"area"`
	SavedAt        time.Time `json:"saved_at"`
}

// NewSupabaseStore creates a SupabaseStore. It reads SUPABASE_URL and SUPABASE_KEY
// from environment variables if empty values are provided.
func NewSupabaseStore(supabaseURL, supabaseKey string) (*SupabaseStore, error) {
	if supabaseURL == "" {
		supabaseURL = os.Getenv("SUPABASE_URL")
	}
	if supabaseKey == "" {
		supabaseKey = os.Getenv("SUPABASE_KEY")
	}
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via config or SUPABASE_URL / SUPABASE_KEY env vars")
	}

	client := supabase.CreateClient(supabaseURL, supabaseKey)
	return &SupabaseStore{client: client}, nil
}

// Save replaces the collection's rows. New rows are written under a staging
// collection first, so a failed insert leaves the saved collection untouched.
// The swap itself (delete old rows, rename staging) is two requests and is not
// atomic: a failure between them leaves the rows under the staging name.
func (s *SupabaseStore) Save(name string, vacancies []*models.Vacancy) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}

	now := time.Now()
	staging := stagingName(name, now)
	rows := toRows(staging, vacancies, now)
	for i := 0; i < len(rows); i += insertBatch {
		end := i + insertBatch
		if end > len(rows) {
			end = len(rows)
		}

		var results []vacancyRow
		if err := s.client.DB.From(vacanciesTable).Insert(rows[i:end]).Execute(&results); err != nil {
			_ = s.Delete(staging)
			return fmt.Errorf("failed to insert vacancies %d-%d of %q: %w", i, end, name, err)
		}
	}

	if err := s.Delete(name); err != nil {
		_ = s.Delete(staging)
		return err
	}

	var results []vacancyRow
	rename := map[string]string{"collection": name}
	if err := s.client.DB.From(vacanciesTable).Update(rename).Eq("collection", staging).Execute(&results); err != nil {
		return fmt.Errorf("failed to publish %q (rows kept as %q): %w", name, staging, err)
	}
	return nil
}

// stagingName is the temporary collection a Save writes to before the swap
func stagingName(name string, now time.Time) string {
	return fmt.Sprintf("%s.staging-%d", name, now.UnixNano())
}

func (s *SupabaseStore) Load(name string) ([]*models.Vacancy, error) {
	var rows []vacancyRow
	err := s.client.DB.From(vacanciesTable).Select("*").Eq("collection", name).Execute(&rows)
	if err != nil {
		return []*models.Vacancy{}, fmt.Errorf("failed to load %q: %w", name, err)
	}
	return fromRows(rows), nil
}

func (s *SupabaseStore) Delete(name string) error {
	var results []vacancyRow
	if err := s.client.DB.From(vacanciesTable).Delete().Eq("collection", name).Execute(&results); err != nil {
		return fmt.Errorf("failed to delete %q: %w", name, err)
	}
	return nil
}

func toRows(collection string, vacancies []*models.Vacancy, now time.Time) []vacancyRow {
	rows := make([]vacancyRow, 0, len(vacancies))
	for _, v := range vacancies {
		if v == nil {
			continue
		}
		row := vacancyRow{
			Collection:   collection,
			Position:     len(rows),
			VacancyID:    v.ID,
			Name:         v.Name,
			URL:          v.URL,
			AlternateURL: v.AlternateURL,
			PublishedAt:  v.PublishedAt,
			Employer:     v.Employer.Name,
			Area:         v.Area.Name,
			SavedAt:      now,
		}
		if v.Salary != nil {
			currency := v.Salary.Currency
			row.SalaryFrom = v.Salary.From
			row.SalaryTo = v.Salary.To
			row.SalaryCurrency = &currency
		}
		rows = append(rows, row)
	}
	return rows
}

// fromRows restores vacancies in saved order. A row without a currency had no salary.
func fromRows(rows []vacancyRow) []*models.Vacancy {
	ordered := make([]*models.Vacancy, len(rows))
	extra := make([]*models.Vacancy, 0)
	for _, row := range rows {
		v := &models.Vacancy{
			ID:           row.VacancyID,
			Name:         row.Name,
			URL:          row.URL,
			AlternateURL: row.AlternateURL,
			PublishedAt:  row.PublishedAt,
			Employer:     models.Employer{Name: row.Employer},
			Area:         models.Area{Name: row.Area},
		}
		if row.SalaryCurrency != nil {
			v.Salary = &models.SalaryRange{From: row.SalaryFrom, To: row.SalaryTo, Currency: *row.SalaryCurrency}
		}

		if row.Position >= 0 && row.Position < len(ordered) && ordered[row.Position] == nil {
			ordered[row.Position] = v
		} else {
			extra = append(extra, v)
		}
	}

	vacancies := make([]*models.Vacancy, 0, len(rows))
	for _, v := range ordered {
		if v != nil {
			vacancies = append(vacancies, v)
		}
	}
	return append(vacancies, extra...)
}
