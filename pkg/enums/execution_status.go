package enums

import "fmt"

// ExecutionStatus tracks the outcome of one attempted notification dispatch.
type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "pending"
	ExecutionStatusSent    ExecutionStatus = "sent"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

var validExecutionStatuses = []ExecutionStatus{
	ExecutionStatusPending,
	ExecutionStatusSent,
	ExecutionStatusFailed,
}

// IsValid reports whether the value matches the canonical execution status enum.
func (e ExecutionStatus) IsValid() bool {
	for _, candidate := range validExecutionStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExecutionStatus converts the raw string to ExecutionStatus.
func ParseExecutionStatus(value string) (ExecutionStatus, error) {
	for _, candidate := range validExecutionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid execution status %q", value)
}
