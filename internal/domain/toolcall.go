package domain

import (
	"encoding/json"
	"time"
)

// ToolCallStatus is the lifecycle state of a recorded tool invocation.
type ToolCallStatus string

const (
	StatusQueued    ToolCallStatus = "queued"
	StatusRunning   ToolCallStatus = "running"
	StatusSucceeded ToolCallStatus = "succeeded"
	StatusFailed    ToolCallStatus = "failed"
	StatusTimeout   ToolCallStatus = "timeout"
	StatusCanceled  ToolCallStatus = "canceled"
)

// Terminal reports whether the status is final. Terminal rows are immutable.
func (s ToolCallStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimeout, StatusCanceled:
		return true
	}
	return false
}

// Valid reports whether the status is a known lifecycle state.
func (s ToolCallStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusSucceeded, StatusFailed, StatusTimeout, StatusCanceled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step: queued→running, running→any terminal, queued→canceled.
func (s ToolCallStatus) CanTransition(next ToolCallStatus) bool {
	switch s {
	case StatusQueued:
		return next == StatusRunning || next == StatusCanceled
	case StatusRunning:
		return next.Terminal()
	}
	return false
}

// ToolCall records one discrete invocation of a tool capability, tracked
// through its status lifecycle for audit and duplicate collapsing.
type ToolCall struct {
	ID         string          `json:"id"`
	ChatID     string          `json:"chatId"`
	ToolName   string          `json:"toolName"`
	Status     ToolCallStatus  `json:"status"`
	Request    json.RawMessage `json:"request"`
	Response   json.RawMessage `json:"response,omitempty"`
	Error      string          `json:"error,omitempty"`
	DedupeKey  string          `json:"dedupeKey"`
	CreatedAt  time.Time       `json:"createdAt"`
	StartedAt  *time.Time      `json:"startedAt,omitempty"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}
