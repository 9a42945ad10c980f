package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"hh-vacancies-go/internal/models"
	"hh-vacancies-go/internal/salary"
)

// Format renders one vacancy as a short multi-line block
func Format(v *models.Vacancy) string {
	var b strings.Builder

	title := v.Title()
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(title)
	if v.Employer.Name != "" {
		fmt.Fprintf(&b, " | %s", v.Employer.Name)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "  Salary: %s\n", salary.Format(v.Salary))
	if v.Area.Name != "" {
		fmt.Fprintf(&b, "  Area: %s\n", v.Area.Name)
	}
	if v.PublishedAt != "" {
		fmt.Fprintf(&b, "  Published: %s\n", v.PublishedAt)
	}
	if link := v.Link(); link != "" {
		fmt.Fprintf(&b, "  URL: %s\n", link)
	}
	if req := StripTags(v.Snippet.Requirement); req != "" {
		fmt.Fprintf(&b, "  Requirements: %s\n", req)
	}
	if resp := StripTags(v.Snippet.Responsibility); resp != "" {
		fmt.Fprintf(&b, "  Responsibilities: %s\n", resp)
	}

	return b.String()
}

// PrintVacancies writes numbered vacancies to w
func PrintVacancies(w io.Writer, vacancies []*models.Vacancy) error {
	if len(vacancies) == 0 {
		_, err := fmt.Fprintln(w, "No vacancies found")
		return err
	}

	for i, v := range vacancies {
		if v == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, Format(v)); err != nil {
			return err
		}
	}
	return nil
}

// PrintJSON writes vacancies as an indented JSON array
func PrintJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// StripTags drops markup such as <highlighttext> and unescapes entities,
// collapsing runs of whitespace.
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
