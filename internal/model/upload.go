package model

// UploadResult describes a transactions file the scoring service accepted.
// Filepath is the service-side location later passed to training and
// prediction.
type UploadResult struct {
	Error    string   `json:"error,omitempty"`
	Filepath string   `json:"filepath"`
	Columns  []string `json:"columns"`
	Sample   []Record `json:"sample"`
	Rows     int      `json:"rows"`
	Success  bool     `json:"success"`
}

// TrainingStats summarizes a completed training run.
type TrainingStats struct {
	SamplesTrained int     `json:"samples_trained"`
	FraudRatio     float64 `json:"fraud_ratio"`
	RFScore        float64 `json:"rf_score"`
	XGBScore       float64 `json:"xgb_score"`
}
