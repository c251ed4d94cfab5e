package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RiskLevel is the service's categorical risk label.
type RiskLevel string

// Known risk levels. The service may return others.
const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Statistics are the aggregate figures returned with a prediction run.
type Statistics struct {
	AvgConfidence       *float64           `json:"avg_confidence,omitempty"`
	ByRiskLevel         map[string]int     `json:"by_risk_level,omitempty"`
	ByCategory          map[string]int     `json:"by_category,omitempty"`
	CategoryFraudRates  map[string]float64 `json:"category_fraud_rates,omitempty"`
	TotalTransactions   int                `json:"total_transactions"`
	FraudulentDetected  int                `json:"fraudulent_detected"`
	FraudPercentage     float64            `json:"fraud_percentage"`
	AnomaliesDetected   int                `json:"anomalies_detected"`
	AvgFraudProbability float64            `json:"avg_fraud_probability"`
}

// PredictionResult is the full response of a prediction run.
type PredictionResult struct {
	Error      string                  `json:"error,omitempty"`
	Results    []TransactionPrediction `json:"results"`
	Statistics Statistics              `json:"statistics"`
	Success    bool                    `json:"success"`
}

// TransactionPrediction is one scored transaction. Record keeps every field
// exactly as the service returned it.
type TransactionPrediction struct {
	CustomerID               string
	MerchantCategory         string
	RiskLevel                RiskLevel
	Record                   Record
	Amount                   float64
	EnsembleFraudProbability float64
	IsFraudPredicted         bool
	IsAnomaly                bool
}

type transactionPredictionJSON struct {
	CustomerID               any       `json:"customer_id"`
	MerchantCategory         string    `json:"merchant_category"`
	RiskLevel                RiskLevel `json:"risk_level"`
	Amount                   float64   `json:"amount"`
	EnsembleFraudProbability float64   `json:"ensemble_fraud_probability"`
	IsFraudPredicted         bool      `json:"is_fraud_predicted"`
	IsAnomaly                bool      `json:"is_anomaly"`
}

// UnmarshalJSON decodes the typed fields and keeps the full record.
func (t *TransactionPrediction) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	var typed transactionPredictionJSON
	if err := json.Unmarshal(data, &typed); err != nil {
		return fmt.Errorf("invalid transaction prediction: %w", err)
	}

	*t = TransactionPrediction{
		CustomerID:               FormatValue(typed.CustomerID),
		MerchantCategory:         typed.MerchantCategory,
		RiskLevel:                typed.RiskLevel,
		Amount:                   typed.Amount,
		EnsembleFraudProbability: typed.EnsembleFraudProbability,
		IsFraudPredicted:         typed.IsFraudPredicted,
		IsAnomaly:                typed.IsAnomaly,
		Record:                   rec,
	}
	return nil
}

// MarshalJSON writes the original record when there is one, otherwise the
// typed fields.
func (t TransactionPrediction) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Fields())
}

// Fields returns the record as it should be exported. Predictions built in
// code rather than decoded get the service's canonical column order.
func (t TransactionPrediction) Fields() Record {
	if t.Record.Len() > 0 {
		return t.Record
	}
	return NewRecord(
		"customer_id", t.CustomerID,
		"amount", t.Amount,
		"merchant_category", t.MerchantCategory,
		"ensemble_fraud_probability", t.EnsembleFraudProbability,
		"risk_level", string(t.RiskLevel),
		"is_fraud_predicted", t.IsFraudPredicted,
		"is_anomaly", t.IsAnomaly,
	)
}

// Level returns the risk level, defaulting to Low when the service left it
// empty.
func (t TransactionPrediction) Level() RiskLevel {
	if strings.TrimSpace(string(t.RiskLevel)) == "" {
		return RiskLow
	}
	return t.RiskLevel
}
