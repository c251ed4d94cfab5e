package model

import "time"

// Run is a recorded prediction session: what was uploaded, how the model
// trained, and what it predicted.
type Run struct {
	CreatedAt  time.Time
	Training   *TrainingStats
	ID         string
	SourceFile string
	Upload     UploadResult
	Prediction PredictionResult
}

// RunSummary is the listing view of a Run.
type RunSummary struct {
	CreatedAt          time.Time
	ID                 string
	SourceFile         string
	ServiceFilepath    string
	TotalTransactions  int
	FraudulentDetected int
	AnomaliesDetected  int
}
