package mockservice

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/finfraudx/internal/model"
)

// scorer is a small stand-in for the real service's models: an amount
// z-score, a night-time signal and per-category fraud rates learned from
// the labelled file.
type scorer struct {
	categoryRate map[string]float64
	amountMean   float64
	amountStd    float64
	baseRate     float64
}

type features struct {
	category string
	amount   float64
	hour     float64
	hasHour  bool
}

func (d *dataset) features() []features {
	amountIdx := d.firstIndex("amount", "transaction_amount")
	categoryIdx := d.firstIndex("merchant_category", "category")
	hourIdx := d.firstIndex("hour", "transaction_hour")

	out := make([]features, len(d.rows))
	for i, row := range d.rows {
		f := features{}
		if amountIdx >= 0 {
			f.amount = parseFloat(row[amountIdx])
		}
		if categoryIdx >= 0 {
			f.category = row[categoryIdx]
		}
		if hourIdx >= 0 && row[hourIdx] != "" {
			f.hour = parseFloat(row[hourIdx])
			f.hasHour = true
		}
		out[i] = f
	}
	return out
}

func train(feats []features, labels []bool) *scorer {
	amounts := make([]float64, len(feats))
	for i, f := range feats {
		amounts[i] = f.amount
	}

	s := &scorer{categoryRate: make(map[string]float64)}
	if len(amounts) > 0 {
		s.amountMean, s.amountStd = stat.MeanStdDev(amounts, nil)
	}
	if math.IsNaN(s.amountStd) {
		s.amountStd = 0
	}

	totals := map[string]int{}
	frauds := map[string]int{}
	fraudCount := 0
	for i, f := range feats {
		totals[f.category]++
		if labels[i] {
			frauds[f.category]++
			fraudCount++
		}
	}
	if len(feats) > 0 {
		s.baseRate = float64(fraudCount) / float64(len(feats))
	}
	for category, n := range totals {
		s.categoryRate[category] = float64(frauds[category]) / float64(n)
	}
	return s
}

func (s *scorer) zscore(amount float64) float64 {
	if s.amountStd == 0 {
		return 0
	}
	return (amount - s.amountMean) / s.amountStd
}

// forest and boost are two views of the same signals, standing in for the
// service's random forest and gradient boosted models.
func (s *scorer) forest(f features) float64 {
	x := -2.2 + 1.1*s.zscore(f.amount) + 6*s.categoryLift(f.category)
	if f.hasHour && f.hour < 6 {
		x += 1.8
	}
	return sigmoid(x)
}

func (s *scorer) boost(f features) float64 {
	x := -2.6 + 1.4*s.zscore(f.amount) + 4*s.categoryLift(f.category)
	if f.hasHour && f.hour < 6 {
		x += 2.2
	}
	return sigmoid(x)
}

func (s *scorer) categoryLift(category string) float64 {
	rate, ok := s.categoryRate[category]
	if !ok {
		return 0
	}
	return rate - s.baseRate
}

func (s *scorer) probability(f features) float64 {
	return (s.forest(f) + s.boost(f)) / 2
}

func (s *scorer) anomalous(f features) bool {
	return s.amountStd > 0 && math.Abs(s.zscore(f.amount)) > 2.5
}

func accuracy(feats []features, labels []bool, predict func(features) float64) float64 {
	if len(feats) == 0 {
		return 0
	}
	correct := 0
	for i, f := range feats {
		if (predict(f) > 0.5) == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(feats))
}

func riskLevel(p float64) model.RiskLevel {
	switch {
	case p >= 0.85:
		return model.RiskCritical
	case p > 0.7:
		return model.RiskHigh
	case p > 0.4:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// confidence is how far the two models agree, on a 0..100 scale.
func (s *scorer) confidence(f features) float64 {
	return 100 * (1 - math.Abs(s.forest(f)-s.boost(f)))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// predict scores every row of the dataset.
func (s *scorer) predict(d *dataset) model.PredictionResult {
	feats := d.features()
	customerIdx := d.firstIndex("customer_id", "customer")

	results := make([]model.TransactionPrediction, len(feats))
	stats := model.Statistics{
		TotalTransactions:  len(feats),
		ByRiskLevel:        map[string]int{},
		ByCategory:         map[string]int{},
		CategoryFraudRates: map[string]float64{},
	}

	var probSum, confSum float64
	fraudByCategory := map[string]int{}
	for i, f := range feats {
		p := round(s.probability(f), 4)
		level := riskLevel(p)
		fraud := p > 0.5
		anomaly := s.anomalous(f)

		customer := ""
		if customerIdx >= 0 {
			customer = d.rows[i][customerIdx]
		}

		rec := model.NewRecord(
			"customer_id", customer,
			"amount", f.amount,
			"merchant_category", f.category,
			"ensemble_fraud_probability", p,
			"risk_level", string(level),
			"is_fraud_predicted", fraud,
			"is_anomaly", anomaly,
		)
		results[i] = model.TransactionPrediction{
			CustomerID:               customer,
			Amount:                   f.amount,
			MerchantCategory:         f.category,
			EnsembleFraudProbability: p,
			RiskLevel:                level,
			IsFraudPredicted:         fraud,
			IsAnomaly:                anomaly,
			Record:                   rec,
		}

		probSum += p
		confSum += s.confidence(f)
		stats.ByRiskLevel[string(level)]++
		if f.category != "" {
			stats.ByCategory[f.category]++
		}
		if fraud {
			stats.FraudulentDetected++
			fraudByCategory[f.category]++
		}
		if anomaly {
			stats.AnomaliesDetected++
		}
	}

	if n := len(feats); n > 0 {
		stats.FraudPercentage = round(100*float64(stats.FraudulentDetected)/float64(n), 2)
		stats.AvgFraudProbability = round(probSum/float64(n), 4)
		avgConf := round(confSum/float64(n), 2)
		stats.AvgConfidence = &avgConf
	}

	for c, n := range stats.ByCategory {
		stats.CategoryFraudRates[c] = round(100*float64(fraudByCategory[c])/float64(n), 2)
	}

	return model.PredictionResult{
		Success:    true,
		Statistics: stats,
		Results:    results,
	}
}
