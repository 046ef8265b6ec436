package utils

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luismavs/exposurestats/exposure"
)

func strPtr(s string) *string { return &s }

func TestWriteKeywordsCSV(t *testing.T) {
	dir := t.TempDir()

	rows := []exposure.KeywordRow{
		{Name: "P1.jpg", Keyword: strPtr("landscape")},
		{Name: "P2.jpg", Keyword: strPtr("landscape")},
		{Name: "P3.jpg", Keyword: strPtr("city")},
		{Name: "P4.jpg", Keyword: nil},
	}

	path, err := WriteKeywordsCSV(rows, dir)
	require.NoError(t, err)

	wantName := "keywords-" + time.Now().Format("2006-01-02") + ".csv"
	assert.Equal(t, wantName, filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"keyword", "count"},
		{"city", "1"},
		{"landscape", "2"},
	}, records)
}

func TestWriteKeywordsCSVEmpty(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteKeywordsCSV(nil, dir)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"keyword", "count"}}, records)
}

func TestCreateExportArchive(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(source, "keywords.csv"), []byte("keyword,count\n"), 0644))

	zipPath, size, err := CreateExportArchive(source, target)
	require.NoError(t, err)
	assert.Positive(t, size)
	assert.FileExists(t, zipPath)
}

func TestCreateExportArchiveEmptyDir(t *testing.T) {
	_, _, err := CreateExportArchive(t.TempDir(), t.TempDir())
	assert.Error(t, err)
}
