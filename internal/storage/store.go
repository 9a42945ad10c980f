package storage

import (
	"errors"
	"fmt"
	"log"

	"hh-vacancies-go/internal/models"
)

// ErrInvalidFormat is returned by Load when a stored collection cannot be read as a list of vacancies
var ErrInvalidFormat = errors.New("stored vacancies have invalid format")

// Store persists named collections of vacancies
type Store interface {
	Save(name string, vacancies []*models.Vacancy) error
	Load(name string) ([]*models.Vacancy, error)
	Delete(name string) error
}

// Backend names accepted by New
const (
	BackendFile     = "file"
	BackendSupabase = "supabase"
)

// New creates the store selected by backend. logger may be nil.
func New(backend, dataDir, supabaseURL, supabaseKey string, logger *log.Logger) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dataDir, logger), nil
	case BackendSupabase:
		return NewSupabaseStore(supabaseURL, supabaseKey)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (use %s or %s)", backend, BackendFile, BackendSupabase)
	}
}
