package models

const (
	// FailedScore marks a verdict produced when classification failed
	FailedScore = -1

	MinRiskScore = 0
	MaxRiskScore = 10

	failedExplanation = "classification failed"
	failedAdvice      = "retry later"
)

// RiskVerdict is the outcome of classifying one message
type RiskVerdict struct {
	RiskScore   int    `json:"risco"`
	Explanation string `json:"explicacao"`
	Advice      string `json:"conselho"`
}

// FailedVerdict returns the sentinel verdict used when a backend could not
// produce a valid classification.
func FailedVerdict() RiskVerdict {
	return RiskVerdict{
		RiskScore:   FailedScore,
		Explanation: failedExplanation,
		Advice:      failedAdvice,
	}
}

// IsFailure reports whether v is the classification-failed sentinel
func (v RiskVerdict) IsFailure() bool {
	return v.RiskScore == FailedScore
}
