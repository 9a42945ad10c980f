package storage

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hh-vacancies-go/internal/models"
)

func sample() []*models.Vacancy {
	return []*models.Vacancy{
		{
			ID:          "1",
			Name:        "Python Developer",
			URL:         "https://api.hh.ru/vacancies/1",
			Salary:      &models.SalaryRange{From: models.IntPtr(100000), Currency: "RUR"},
			PublishedAt: "2025-07-30T10:00:00+0300",
			Employer:    models.Employer{Name: "Компания"},
		},
		{ID: "2", Name: "Go Developer", PublishedAt: "2025-07-31T10:00:00+0300"},
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)

	require.NoError(t, store.Save("python", sample()))

	loaded, err := store.Load("python")
	require.NoError(t, err)
	assert.Equal(t, sample(), loaded)

	data, err := os.ReadFile(store.Path("python"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Компания")
	assert.Contains(t, string(data), "\n    {")
}

func TestFileStorePath(t *testing.T) {
	store := NewFileStore("data", nil)
	assert.Equal(t, filepath.Join("data", "python.json"), store.Path("python"))
	assert.Equal(t, filepath.Join("data", "python.json"), store.Path("python.json"))

	abs := filepath.Join(t.TempDir(), "x.json")
	assert.Equal(t, abs, store.Path(abs))

	assert.Equal(t, filepath.Join(DefaultDataDir, "a.json"), NewFileStore("", nil).Path("a"))
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)

	loaded, err := store.Load("non_existent")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileStoreLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	store := NewFileStore(dir, log.New(&logs, "", 0))

	t.Run("not json", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("invalid json"), 0644))
		loaded, err := store.Load("broken")
		assert.True(t, errors.Is(err, ErrInvalidFormat))
		assert.Empty(t, loaded)
	})

	t.Run("object instead of list", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "object.json"), []byte(`{"invalid": "data"}`), 0644))
		loaded, err := store.Load("object")
		assert.True(t, errors.Is(err, ErrInvalidFormat))
		assert.Empty(t, loaded)
	})

	t.Run("mixed elements", func(t *testing.T) {
		content := `[{"title": "Legacy Title"}, 42, null, {"name": "Go", "salary": null}]`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mixed.json"), []byte(content), 0644))
		loaded, err := store.Load("mixed")
		require.NoError(t, err)
		require.Len(t, loaded, 2)
		assert.Equal(t, "Legacy Title", loaded[0].Name)
		assert.Equal(t, "Go", loaded[1].Name)
		assert.Nil(t, loaded[1].Salary)
		assert.Contains(t, logs.String(), "skipped 2 malformed vacancies")
		assert.Contains(t, logs.String(), "mixed.json")
	})
}

func TestFileStoreDelete(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)
	require.NoError(t, store.Save("tmp", sample()))

	require.NoError(t, store.Delete("tmp"))
	_, err := os.Stat(store.Path("tmp"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete("tmp"))
}

func TestFileStoreSaveRequiresName(t *testing.T) {
	assert.Error(t, NewFileStore(t.TempDir(), nil).Save("", sample()))
}

func TestNew(t *testing.T) {
	store, err := New("", t.TempDir(), "", "", nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = New("mongo", "", "", "", nil)
	assert.Error(t, err)

	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")
	_, err = New(BackendSupabase, "", "", "", nil)
	assert.Error(t, err)

	store, err = New(BackendSupabase, "", "https://example.supabase.co", "key", nil)
	require.NoError(t, err)
	assert.IsType(t, &SupabaseStore{}, store)
}

func TestRowsRoundTrip(t *testing.T) {
	now := time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC)
	vacancies := append(sample(), nil)

	rows := toRows("python", vacancies, now)
	require.Len(t, rows, 2)
	assert.Equal(t, "python", rows[0].Collection)
	assert.Equal(t, 1, rows[1].Position)
	assert.Nil(t, rows[1].SalaryCurrency)

	// rows may come back in any order
	restored := fromRows([]vacancyRow{rows[1], rows[0]})
	require.Len(t, restored, 2)
	assert.Equal(t, "Python Developer", restored[0].Name)
	assert.Equal(t, 100000, restored[0].SalaryFrom())
	assert.Equal(t, "RUR", restored[0].SalaryCurrency())
	assert.Equal(t, "Компания", restored[0].Employer.Name)
	assert.Nil(t, restored[1].Salary)
}
