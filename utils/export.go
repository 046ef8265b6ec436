package utils

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/facette/natsort"
	"github.com/google/uuid"

	"github.com/luismavs/exposurestats/exposure"
)

// WriteKeywordsCSV aggregates the long-format keyword table into per-keyword
// photo counts and writes them to a dated CSV file in exportDir. Returns the
// full path of the written file.
func WriteKeywordsCSV(rows []exposure.KeywordRow, exportDir string) (string, error) {
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", exportDir, err)
	}

	counts := make(map[string]int)
	for _, row := range rows {
		if row.Keyword == nil {
			continue
		}
		counts[*row.Keyword]++
	}

	keywords := make([]string, 0, len(counts))
	for kw := range counts {
		keywords = append(keywords, kw)
	}
	natsort.Sort(keywords)

	filename := fmt.Sprintf("keywords-%s.csv", time.Now().Format("2006-01-02"))
	fullPath := filepath.Join(exportDir, filename)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file %s: %w", fullPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"keyword", "count"}); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, kw := range keywords {
		if err := w.Write([]string{kw, strconv.Itoa(counts[kw])}); err != nil {
			return "", fmt.Errorf("failed to write CSV row for %q: %w", kw, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	log.Printf("Wrote keyword export with %d keyword(s) to %s", len(keywords), fullPath)
	return fullPath, nil
}

// CreateExportArchive zips the flat files in sourceDir into archiveSaveDir.
// Returns: full path of the archive, size in bytes, error.
func CreateExportArchive(sourceDir, archiveSaveDir string) (string, int64, error) {
	sourceDir = filepath.Clean(sourceDir)

	if _, err := os.Stat(sourceDir); os.IsNotExist(err) {
		return "", 0, fmt.Errorf("export folder not found: %s", sourceDir)
	} else if err != nil {
		return "", 0, fmt.Errorf("error stating export folder %s: %w", sourceDir, err)
	}

	if err := os.MkdirAll(archiveSaveDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create zip save directory %s: %w", archiveSaveDir, err)
	}

	timestamp := time.Now().Unix()
	archiveUUID, _ := uuid.NewRandom()
	zipFilename := fmt.Sprintf("export_%d_%s.zip", timestamp, archiveUUID.String()[:8])
	zipFilePath := filepath.Join(archiveSaveDir, zipFilename)

	zipFile, err := os.Create(zipFilePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create zip file %s: %w", zipFilePath, err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read export directory %s: %w", sourceDir, err)
	}

	foundFiles := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue // skip subdirectories
		}

		filePath := filepath.Join(sourceDir, entry.Name())
		fileToZip, err := os.Open(filePath)
		if err != nil {
			log.Printf("zipper: Failed to open file %s for zipping: %v. Skipping.", filePath, err)
			continue
		}

		writer, err := zipWriter.Create(entry.Name())
		if err != nil {
			fileToZip.Close()
			log.Printf("zipper: Failed to create entry in zip for %s: %v. Skipping.", entry.Name(), err)
			continue
		}

		_, err = io.Copy(writer, fileToZip)
		fileToZip.Close()
		if err != nil {
			log.Printf("zipper: Failed to write file %s to zip: %v. Skipping.", entry.Name(), err)
			continue
		}
		foundFiles = true
	}

	if !foundFiles {
		zipWriter.Close()
		zipFile.Close()
		os.Remove(zipFilePath)
		return "", 0, fmt.Errorf("no files found in export folder %s to zip", sourceDir)
	}

	if err := zipWriter.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to finalize zip writer for %s: %w", zipFilePath, err)
	}

	zipInfo, err := os.Stat(zipFilePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat created zip file %s: %w", zipFilePath, err)
	}

	log.Printf("Successfully created export archive: %s (Size: %d bytes)", zipFilePath, zipInfo.Size())
	return zipFilePath, zipInfo.Size(), nil
}
