package report

import (
	"strconv"
	"strings"

	"github.com/Veraticus/finfraudx/internal/model"
)

// Columns of the detailed predictions table.
var Columns = []string{"Customer", "Amount", "Category", "Risk Probability", "Risk Level", "Fraud?", "Anomaly?"}

// Row is a prediction formatted for the results table. Fill is the
// probability as a 0..1 bar fill.
type Row struct {
	Customer    string
	Amount      string
	Category    string
	Probability string
	RiskLevel   string
	Fraud       string
	Anomaly     string
	Fill        float64
	ProbLevel   Level
	BadgeLevel  Level
	Flagged     bool
}

// Cells returns the row's text in column order.
func (r Row) Cells() []string {
	return []string{r.Customer, r.Amount, r.Category, r.Probability, r.RiskLevel, r.Fraud, r.Anomaly}
}

// FormatRow formats one prediction. Missing customer and category render
// as N/A and a missing risk level as Low.
func FormatRow(p model.TransactionPrediction) Row {
	return Row{
		Customer:    orNA(p.CustomerID),
		Amount:      "$" + strconv.FormatFloat(p.Amount, 'f', 2, 64),
		Category:    orNA(p.MerchantCategory),
		Probability: strconv.FormatFloat(p.EnsembleFraudProbability*100, 'f', 1, 64) + "%",
		RiskLevel:   string(p.Level()),
		Fraud:       yesNo(p.IsFraudPredicted),
		Anomaly:     yesNo(p.IsAnomaly),
		Fill:        clamp(p.EnsembleFraudProbability, 0, 1),
		ProbLevel:   ProbabilityLevel(p.EnsembleFraudProbability),
		BadgeLevel:  BadgeLevel(p.Level()),
		Flagged:     p.IsFraudPredicted,
	}
}

// PageRows formats the predictions on the pager's current page.
func PageRows(p Pager, results []model.TransactionPrediction) []Row {
	page := Slice(p, results)
	rows := make([]Row, len(page))
	for i, r := range page {
		rows[i] = FormatRow(r)
	}
	return rows
}

// PageLabel is the "current / total" pagination text.
func PageLabel(p Pager) string {
	return strconv.Itoa(p.Page()) + " / " + strconv.Itoa(p.PageCount())
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
