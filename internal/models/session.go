package models

import "time"

// SessionStatus represents the state of an analysis session.
type SessionStatus string

const (
	SessionStatusAnalyzing SessionStatus = "analyzing"
	SessionStatusComplete  SessionStatus = "complete"
	SessionStatusError     SessionStatus = "error"
)

// AnalysisSession tracks a single analysis request from submission to
// completion. Sessions live in memory only and are cleaned up after a
// timeout; nothing is persisted across restarts.
type AnalysisSession struct {
	ID          string          `json:"id"`
	FileName    string          `json:"fileName"`
	FileSize    int64           `json:"fileSize"`
	Status      SessionStatus   `json:"status"`
	Error       string          `json:"error,omitempty"`
	Result      *AnalysisResult `json:"result,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// NewAnalysisSession creates a session in the analyzing state.
func NewAnalysisSession(id, fileName string, fileSize int64) *AnalysisSession {
	return &AnalysisSession{
		ID:        id,
		FileName:  fileName,
		FileSize:  fileSize,
		Status:    SessionStatusAnalyzing,
		StartedAt: time.Now(),
	}
}
