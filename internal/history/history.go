package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"typereport/internal/types"
)

// WriteCSV writes a header and rows to dir/filename, creating dir as needed.
// It returns the path of the written file.
func WriteCSV(dir, filename string, header []string, data [][]string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("history directory not specified")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	filePath := filepath.Join(dir, filename)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", filePath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range data {
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV file %s: %w", filePath, err)
	}
	return filePath, nil
}

// WriteErrorsCSV snapshots the reported errors, in the order given, to a
// timestamped file under dir.
func WriteErrorsCSV(dir string, records []types.ErrorRecord, now time.Time) (string, error) {
	filename := fmt.Sprintf("type_errors_%s.csv", now.Format("20060102_150405"))
	header := []string{"Path", "Line", "Column", "Code", "Description", "External"}
	data := make([][]string, len(records))
	for i, r := range records {
		data[i] = []string{
			r.Path,
			strconv.Itoa(r.Line),
			strconv.Itoa(r.Column),
			r.Code(),
			r.Description(),
			strconv.FormatBool(r.IsExternalToGlobalRoot),
		}
	}
	return WriteCSV(dir, filename, header, data)
}
