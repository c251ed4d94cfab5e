package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_PreservesKeyOrder(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"zeta":1,"alpha":"a","mid":null,"nested":{"b":2}}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid", "nested"}, rec.Keys)
	assert.Nil(t, rec.Get("mid"))
	assert.Equal(t, "a", rec.Get("alpha"))

	encoded, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":1,"alpha":"a","mid":null,"nested":{"b":2}}`, string(encoded))
	assert.Equal(t, `{"zeta":1,"alpha":"a","mid":null,"nested":{"b":2}}`, string(encoded))
}

func TestRecord_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":2,"a":3}`), &rec))

	assert.Equal(t, []string{"a", "b"}, rec.Keys)
	assert.InDelta(t, 3.0, rec.Get("a"), 1e-9)
}

func TestRecord_RejectsNonObject(t *testing.T) {
	var rec Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &rec))
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &rec))
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord("a", 1, "b", "two", 3, "skipped", "dangling")
	assert.Equal(t, []string{"a", "b"}, rec.Keys)
	assert.Equal(t, 2, rec.Len())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "food, drink", "food, drink"},
		{"bool", true, "true"},
		{"integral float", 42.0, "42"},
		{"fraction", 0.125, "0.125"},
		{"int", 7, "7"},
		{"json number", json.Number("1e3"), "1e3"},
		{"object", map[string]any{"k": "v"}, `{"k":"v"}`},
		{"slice", []any{1.0, "x"}, `[1,"x"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.value))
		})
	}
}

func TestTransactionPrediction_Decode(t *testing.T) {
	var tp TransactionPrediction
	err := json.Unmarshal([]byte(`{"amount":12.5,"customer_id":1001,"merchant_category":"grocery","ensemble_fraud_probability":0.62,"risk_level":"Medium","is_fraud_predicted":true,"is_anomaly":false,"extra":"kept"}`), &tp)
	require.NoError(t, err)

	assert.Equal(t, "1001", tp.CustomerID)
	assert.InDelta(t, 12.5, tp.Amount, 1e-9)
	assert.Equal(t, RiskMedium, tp.Level())
	assert.True(t, tp.IsFraudPredicted)
	assert.Equal(t, []string{
		"amount", "customer_id", "merchant_category", "ensemble_fraud_probability",
		"risk_level", "is_fraud_predicted", "is_anomaly", "extra",
	}, tp.Fields().Keys)
}

func TestTransactionPrediction_FieldsFallback(t *testing.T) {
	tp := TransactionPrediction{
		CustomerID:               "C1",
		Amount:                   10,
		MerchantCategory:         "travel",
		EnsembleFraudProbability: 0.9,
		RiskLevel:                RiskHigh,
		IsFraudPredicted:         true,
	}

	fields := tp.Fields()
	assert.Equal(t, []string{
		"customer_id", "amount", "merchant_category", "ensemble_fraud_probability",
		"risk_level", "is_fraud_predicted", "is_anomaly",
	}, fields.Keys)
	assert.Equal(t, "High", fields.Get("risk_level"))

	encoded, err := json.Marshal(tp)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"customer_id":"C1"`)
}

func TestTransactionPrediction_LevelDefaultsLow(t *testing.T) {
	assert.Equal(t, RiskLow, TransactionPrediction{}.Level())
	assert.Equal(t, RiskLevel("Severe"), TransactionPrediction{RiskLevel: "Severe"}.Level())
}

func TestPredictionResult_RoundTripKeepsRecords(t *testing.T) {
	in := `{"results":[{"b":1,"a":2}],"statistics":{"total_transactions":1,"fraudulent_detected":0,"fraud_percentage":0,"anomalies_detected":0,"avg_fraud_probability":0.1},"success":true}`

	var result PredictionResult
	require.NoError(t, json.Unmarshal([]byte(in), &result))
	require.Len(t, result.Results, 1)
	assert.Equal(t, []string{"b", "a"}, result.Results[0].Fields().Keys)

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(out), `[{"b":1,"a":2}]`)
}
