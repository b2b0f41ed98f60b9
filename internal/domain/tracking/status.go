// internal/domain/tracking/status.go
package tracking

import (
	"fmt"
	"strings"
)

// ResolutionStatus is the human-entered state of a sent warning.
// Values outside the constants below are custom statuses typed by an operator.
type ResolutionStatus string

const (
	StatusPending    ResolutionStatus = "Pending"
	StatusInProgress ResolutionStatus = "In Progress"
	StatusResolved   ResolutionStatus = "Resolved"
)

// IsCustom reports whether the status is free text rather than a known state.
func (s ResolutionStatus) IsCustom() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return false
	}
	return true
}

// ParseResolutionStatus accepts the values sent by status links and bot commands.
func ParseResolutionStatus(raw string) (ResolutionStatus, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)) {
	case "":
		return "", fmt.Errorf("status must not be empty")
	case "pending":
		return StatusPending, nil
	case "inprogress":
		return StatusInProgress, nil
	case "resolved":
		return StatusResolved, nil
	}
	return ResolutionStatus(s), nil
}
