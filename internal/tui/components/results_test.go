package components

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finfraudx/internal/model"
	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/tui/themes"
)

func predictions(n int) []model.TransactionPrediction {
	out := make([]model.TransactionPrediction, n)
	for i := range out {
		out[i] = model.TransactionPrediction{
			CustomerID:               fmt.Sprintf("C%03d", i+1),
			Amount:                   float64(i) + 0.5,
			MerchantCategory:         "grocery",
			RiskLevel:                model.RiskLow,
			EnsembleFraudProbability: 0.1,
			IsFraudPredicted:         i == 0,
		}
	}
	return out
}

func TestResultsModel_Pagination(t *testing.T) {
	m := NewResultsModel(themes.Default, predictions(25))

	assert.Equal(t, 1, m.Pager().Page())
	assert.Len(t, m.Rows(), report.PageSize)
	assert.Equal(t, flaggedMarker+"C001", m.Rows()[0][0])

	m = m.PrevPage()
	assert.Equal(t, 1, m.Pager().Page(), "previous on the first page stays put")

	m = m.NextPage().NextPage()
	assert.Equal(t, 3, m.Pager().Page())
	require.Len(t, m.Rows(), 5)
	assert.Equal(t, "C021", m.Rows()[0][0])

	m = m.NextPage()
	assert.Equal(t, 3, m.Pager().Page(), "next on the last page stays put")
	assert.Contains(t, m.View(), "Page 3 / 3")
}

func TestResultsModel_Empty(t *testing.T) {
	m := NewResultsModel(themes.Default, nil)

	assert.Equal(t, 1, m.Pager().PageCount())
	assert.False(t, m.Pager().HasPrev())
	assert.False(t, m.Pager().HasNext())
	assert.Contains(t, m.View(), "No transactions were scored")
	assert.Contains(t, m.View(), "Page 1 / 1")
}

func TestProbabilityCell(t *testing.T) {
	row := report.FormatRow(model.TransactionPrediction{EnsembleFraudProbability: 0.5})
	assert.Equal(t, "█████░░░░░ 50.0%", probabilityCell(row))

	row = report.FormatRow(model.TransactionPrediction{})
	assert.Equal(t, "░░░░░░░░░░ 0.0%", probabilityCell(row))
}
