package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"hh-vacancies-go/internal/models"
)

// DefaultDataDir is where collections are written when no directory is configured
const DefaultDataDir = "data"

// FileStore keeps each collection as an indented JSON array in <dir>/<name>.json
type FileStore struct {
	dir    string
	logger *log.Logger
}

// NewFileStore creates a file store rooted at dir. logger may be nil.
func NewFileStore(dir string, logger *log.Logger) *FileStore {
	if dir == "" {
		dir = DefaultDataDir
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{dir: dir, logger: logger}
}

// Path resolves a collection name to its file. Absolute names are used as is.
func (s *FileStore) Path(name string) string {
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Save(name string, vacancies []*models.Vacancy) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if vacancies == nil {
		vacancies = []*models.Vacancy{}
	}

	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(vacancies); err != nil {
		return fmt.Errorf("failed to encode vacancies: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads a collection. A missing file is an empty collection; a file that is
// not a JSON array yields an empty collection and ErrInvalidFormat. Array elements
// that are not vacancy objects are skipped.
func (s *FileStore) Load(name string) ([]*models.Vacancy, error) {
	path := s.Path(name)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*models.Vacancy{}, nil
	}
	if err != nil {
		return []*models.Vacancy{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return []*models.Vacancy{}, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}

	vacancies, skipped := models.DecodeVacancies(items)
	if skipped > 0 {
		s.logger.Printf("storage: skipped %d malformed vacancies in %s", skipped, path)
	}
	return vacancies, nil
}

// Delete removes a collection; deleting a missing collection is not an error.
func (s *FileStore) Delete(name string) error {
	path := s.Path(name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
