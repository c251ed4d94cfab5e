package mockservice

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/Veraticus/finfraudx/internal/model"
)

// sampleRowCount is the number of rows shown back in an upload response.
const sampleRowCount = 5

var errEmptyCSV = errors.New("CSV file is empty")

type dataset struct {
	columns []string
	rows    [][]string
}

func readDataset(r io.Reader) (*dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errEmptyCSV
	}

	ds := &dataset{columns: records[0]}
	for _, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make([]string, len(ds.columns))
		copy(row, rec)
		ds.rows = append(ds.rows, row)
	}
	return ds, nil
}

func (d *dataset) index(column string) int {
	for i, c := range d.columns {
		if c == column {
			return i
		}
	}
	return -1
}

func (d *dataset) firstIndex(columns ...string) int {
	for _, c := range columns {
		if i := d.index(c); i >= 0 {
			return i
		}
	}
	return -1
}

// record converts a row into a JSON object, turning numeric and boolean
// cells into numbers and booleans.
func (d *dataset) record(row []string) model.Record {
	rec := model.Record{}
	for i, col := range d.columns {
		rec.Set(col, cellValue(row[i]))
	}
	return rec
}

func (d *dataset) sample() []model.Record {
	n := len(d.rows)
	if n > sampleRowCount {
		n = sampleRowCount
	}
	out := make([]model.Record, n)
	for i := 0; i < n; i++ {
		out[i] = d.record(d.rows[i])
	}
	return out
}

func cellValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseLabel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "yes", "fraud":
		return true
	}
	return false
}

var sampleCategories = []string{"grocery", "restaurant", "gas", "online_retail", "travel", "entertainment", "electronics"}

// riskyCategories commit fraud more often in generated data.
var riskyCategories = map[string]float64{"online_retail": 0.08, "travel": 0.1, "electronics": 0.12}

// generateDataset produces a labelled transactions file. The same seed
// always produces the same data.
func generateDataset(rows int, seed int64) *dataset {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data
	ds := &dataset{
		columns: []string{"transaction_id", "customer_id", "amount", "merchant_category", "hour", "is_fraud"},
	}

	for i := 0; i < rows; i++ {
		category := sampleCategories[rng.Intn(len(sampleCategories))]
		fraudRate, ok := riskyCategories[category]
		if !ok {
			fraudRate = 0.02
		}
		fraud := rng.Float64() < fraudRate

		amount := 5 + rng.ExpFloat64()*60
		hour := 8 + rng.Intn(14)
		if fraud {
			amount = amount*4 + 150
			hour = rng.Intn(6)
		}

		label := "0"
		if fraud {
			label = "1"
		}
		ds.rows = append(ds.rows, []string{
			fmt.Sprintf("T%06d", i+1),
			fmt.Sprintf("C%04d", 1+rng.Intn(rows/5+1)),
			strconv.FormatFloat(amount, 'f', 2, 64),
			category,
			strconv.Itoa(hour),
			label,
		})
	}
	return ds
}
