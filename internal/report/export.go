package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/finfraudx/internal/model"
)

// ExportFilename is the name given to exported prediction files.
const ExportFilename = "fraud_predictions.csv"

// ExportCSV renders predictions as CSV text. The header comes from the keys
// of the first row, and later rows are written in that column order. String
// values containing a comma are wrapped in double quotes; embedded quotes
// are not escaped. Lines are joined with "\n" and there is no trailing
// newline, so n rows produce n+1 lines.
func ExportCSV(results []model.TransactionPrediction) string {
	if len(results) == 0 {
		return ""
	}

	header := results[0].Fields().Keys
	lines := make([]string, 0, len(results)+1)
	lines = append(lines, strings.Join(header, ","))

	cells := make([]string, len(header))
	for _, result := range results {
		fields := result.Fields()
		for i, key := range header {
			cells[i] = csvCell(fields.Get(key))
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	return strings.Join(lines, "\n")
}

func csvCell(v any) string {
	if s, ok := v.(string); ok && strings.Contains(s, ",") {
		return `"` + s + `"`
	}
	return model.FormatValue(v)
}

// WriteCSVFile writes ExportCSV output to dir/fraud_predictions.csv and
// returns the path written.
func WriteCSVFile(dir string, results []model.TransactionPrediction) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, ExportFilename)
	if err := os.WriteFile(path, []byte(ExportCSV(results)), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
