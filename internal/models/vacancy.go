package models

import (
	"bytes"
	"encoding/json"
)

// Vacancy is a single job posting as returned by the hh.ru vacancies API.
// Every field is optional in the source payload; absent keys decode to zero values.
type Vacancy struct {
	ID           string       `json:"id,omitempty"`
	Name         string       `json:"name"`
	URL          string       `json:"url"`
	AlternateURL string       `json:"alternate_url,omitempty"`
	Salary       *SalaryRange `json:"salary"`
	PublishedAt  string       `json:"published_at"`
	Employer     Employer     `json:"employer"`
	Area         Area         `json:"area"`
	Snippet      Snippet      `json:"snippet"`
}

// SalaryRange is the raw salary sub-object of a vacancy. Nil bounds mean the
// employer did not specify them.
type SalaryRange struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
	Gross    bool   `json:"gross,omitempty"`
}

// Employer holds the employer's id and display name
type Employer struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Area holds the vacancy location
type Area struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Snippet holds short requirement/responsibility excerpts. hh.ru wraps
// matched search terms in <highlighttext> tags.
type Snippet struct {
	Requirement    string `json:"requirement,omitempty"`
	Responsibility string `json:"responsibility,omitempty"`
}

// SearchResponse is one page of the hh.ru search endpoint. Items are kept raw so
// that a single malformed vacancy does not fail the whole page.
type SearchResponse struct {
	Items   []json.RawMessage `json:"items"`
	Found   int               `json:"found"`
	Pages   int               `json:"pages"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// UnmarshalJSON accepts "title" as a fallback for "name", which older exports use.
func (v *Vacancy) UnmarshalJSON(data []byte) error {
	type plain Vacancy
	aux := struct {
		*plain
		Title string `json:"title"`
	}{plain: (*plain)(v)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if v.Name == "" {
		v.Name = aux.Title
	}
	return nil
}

// Title returns the vacancy title
func (v *Vacancy) Title() string {
	if v == nil {
		return ""
	}
	return v.Name
}

// SalaryFrom returns the lower salary bound, or 0 when the salary or bound is absent.
func (v *Vacancy) SalaryFrom() int {
	if v == nil || v.Salary == nil || v.Salary.From == nil {
		return 0
	}
	return *v.Salary.From
}

// SalaryCurrency returns the salary currency, or "" when no salary is present.
func (v *Vacancy) SalaryCurrency() string {
	if v == nil || v.Salary == nil {
		return ""
	}
	return v.Salary.Currency
}

// Link returns the human-facing URL when present, else the API URL.
func (v *Vacancy) Link() string {
	if v.AlternateURL != "" {
		return v.AlternateURL
	}
	return v.URL
}

// DecodeVacancies decodes raw items one by one. Items that are not JSON objects
// describing a vacancy are skipped and counted.
func DecodeVacancies(items []json.RawMessage) (vacancies []*Vacancy, skipped int) {
	vacancies = make([]*Vacancy, 0, len(items))
	for _, item := range items {
		if len(bytes.TrimSpace(item)) == 0 || bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			skipped++
			continue
		}
		var v Vacancy
		if err := json.Unmarshal(item, &v); err != nil {
			skipped++
			continue
		}
		vacancies = append(vacancies, &v)
	}
	return vacancies, skipped
}

// IntPtr is a small helper for building salary bounds
func IntPtr(n int) *int {
	return &n
}
