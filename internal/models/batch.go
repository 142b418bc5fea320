package models

import "fmt"

// ItemResult is the outcome of one item in a best-effort batch write.
// Row is 1-based.
type ItemResult struct {
	Row int
	ID  int64
	Err error
}

// BatchSummary folds item results into the aggregate returned to clients
type BatchSummary struct {
	Message      string   `json:"message"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// FoldResults counts successes and failures, keeping one message per failed row
func FoldResults(results []ItemResult) BatchSummary {
	summary := BatchSummary{Errors: []string{}}
	for _, result := range results {
		if result.Err != nil {
			summary.ErrorCount++
			summary.Errors = append(summary.Errors, fmt.Sprintf("Row %d: %v", result.Row, result.Err))
			continue
		}
		summary.SuccessCount++
	}
	return summary
}
