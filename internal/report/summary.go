package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/finfraudx/internal/model"
)

// Percent formats a 0..1 ratio as a percentage with two decimals.
func Percent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 2, 64) + "%"
}

// FileSummary is the one-line description of an accepted upload.
func FileSummary(upload model.UploadResult) string {
	return fmt.Sprintf("%d rows, %d columns", upload.Rows, len(upload.Columns))
}

// ValidatedMessage is shown after a file upload is accepted.
func ValidatedMessage(upload model.UploadResult) string {
	return fmt.Sprintf("File validated! %d rows, %d columns", upload.Rows, len(upload.Columns))
}

// SampleGeneratedMessage is shown after sample data was generated.
const SampleGeneratedMessage = "Sample data generated successfully!"

// Metric is one card of a metric grid.
type Metric struct {
	Label   string
	Value   string
	Subtext string
	Level   Level
}

// TrainingMetrics is the grid shown after training.
func TrainingMetrics(stats model.TrainingStats) []Metric {
	return []Metric{
		{
			Label:   "Samples Trained",
			Value:   strconv.Itoa(stats.SamplesTrained),
			Subtext: "Fraud Rate: " + Percent(stats.FraudRatio),
		},
		{Label: "Random Forest Score", Value: Percent(stats.RFScore)},
		{Label: "XGBoost Score", Value: Percent(stats.XGBScore)},
	}
}

// PredictionMetrics is the headline grid shown after prediction.
func PredictionMetrics(stats model.Statistics) []Metric {
	return []Metric{
		{
			Label:   "Fraudulent Transactions",
			Value:   strconv.Itoa(stats.FraudulentDetected),
			Subtext: strconv.FormatFloat(stats.FraudPercentage, 'f', -1, 64) + "% of total",
			Level:   LevelHigh,
		},
		{
			Label:   "Anomalies Detected",
			Value:   strconv.Itoa(stats.AnomaliesDetected),
			Subtext: "Unusual patterns",
			Level:   LevelMedium,
		},
	}
}

// Gauge is a circular indicator: a 0..100 fill with a colored level.
type Gauge struct {
	Label string
	Text  string
	Fill  float64
	Level Level
}

// Gauges returns the average risk gauge and, when the service reported a
// non-zero one, the average confidence gauge.
func Gauges(stats model.Statistics) []Gauge {
	gauges := []Gauge{{
		Label: "Avg. Risk Score",
		Fill:  clamp(stats.AvgFraudProbability*100, 0, 100),
		Text:  strconv.FormatFloat(stats.AvgFraudProbability*100, 'f', 1, 64) + "%",
		Level: AvgRiskLevel(stats.AvgFraudProbability),
	}}

	if stats.AvgConfidence != nil && *stats.AvgConfidence != 0 {
		c := *stats.AvgConfidence
		gauges = append(gauges, Gauge{
			Label: "Avg. Confidence",
			Fill:  clamp(c, 0, 100),
			Text:  strconv.FormatFloat(c, 'f', 1, 64) + "%",
			Level: ConfidenceLevel(c),
		})
	}
	return gauges
}

// Bar is one row of the risk distribution chart. Share is the fraction of
// all transactions, 0..1.
type Bar struct {
	Label string
	Count int
	Share float64
	Level Level
}

var riskOrder = map[string]int{"low": 0, "medium": 1, "high": 2, "critical": 3}

// RiskDistribution returns one bar per risk level, known levels first in
// severity order and unknown ones alphabetically after them. A missing
// breakdown yields no bars.
func RiskDistribution(stats model.Statistics) []Bar {
	bars := make([]Bar, 0, len(stats.ByRiskLevel))
	for level, count := range stats.ByRiskLevel {
		share := 0.0
		if stats.TotalTransactions > 0 {
			share = float64(count) / float64(stats.TotalTransactions)
		}
		bars = append(bars, Bar{
			Label: level,
			Count: count,
			Share: clamp(share, 0, 1),
			Level: BadgeLevel(model.RiskLevel(level)),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		oi, iKnown := riskOrder[strings.ToLower(bars[i].Label)]
		oj, jKnown := riskOrder[strings.ToLower(bars[j].Label)]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return bars[i].Label < bars[j].Label
		}
	})
	return bars
}

// CategoryCount is a merchant category and its transaction count.
type CategoryCount struct {
	Category string
	Count    int
}

// Categories lists transaction counts per merchant category, busiest first.
func Categories(stats model.Statistics) []CategoryCount {
	out := make([]CategoryCount, 0, len(stats.ByCategory))
	for category, count := range stats.ByCategory {
		out = append(out, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// CategoryRate is a merchant category and its fraud rate in percent.
type CategoryRate struct {
	Category string
	Rate     float64
}

// TopFraudRates returns the n categories with the highest fraud rate.
func TopFraudRates(stats model.Statistics, n int) []CategoryRate {
	out := make([]CategoryRate, 0, len(stats.CategoryFraudRates))
	for category, rate := range stats.CategoryFraudRates {
		out = append(out, CategoryRate{Category: category, Rate: rate})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].Category < out[j].Category
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
