// internal/domain/quality/action.go
package quality

import (
	"fmt"
	"strings"
)

// Action is the escalation tier assigned to a seller for a run.
// Values are ordered by severity.
type Action int

const (
	ActionNone Action = iota
	ActionFirstWarning
	ActionLastWarning
	ActionSuspension
)

var actionNames = map[Action]string{
	ActionNone:         "No Action",
	ActionFirstWarning: "Send First Warning",
	ActionLastWarning:  "Send Last Warning",
	ActionSuspension:   "Send Suspension Notice",
}

var actionEmailTypes = map[Action]string{
	ActionFirstWarning: "first_warning",
	ActionLastWarning:  "last_warning",
	ActionSuspension:   "suspension",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// EmailType is the key used for templates, response records and URL parameters.
// It is empty for ActionNone.
func (a Action) EmailType() string {
	return actionEmailTypes[a]
}

// Notifies reports whether the action results in an email.
func (a Action) Notifies() bool {
	return a != ActionNone
}

// ParseAction decodes the sheet encoding ("Send First Warning", ...). Blank means no action.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ActionNone, nil
	}
	for a, name := range actionNames {
		if strings.EqualFold(name, s) {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q", s)
}

// ParseEmailType decodes "first_warning", "last_warning" or "suspension".
// Hyphens and case are tolerated since the value arrives through links.
func ParseEmailType(s string) (Action, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for a, name := range actionEmailTypes {
		if name == norm {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown email type %q", s)
}

// Label is the per-metric severity shown next to a seller's rate.
type Label int

const (
	LabelNone Label = iota
	LabelHistorical
	LabelAlerting
	LabelCritical
)

func (l Label) String() string {
	switch l {
	case LabelHistorical:
		return "Historical"
	case LabelAlerting:
		return "Alerting"
	case LabelCritical:
		return "Critical"
	default:
		return ""
	}
}

// CurrentlyFailing is true for labels that only a failing latest week produces.
func (l Label) CurrentlyFailing() bool {
	return l == LabelAlerting || l == LabelCritical
}

func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return LabelNone, nil
	case "historical":
		return LabelHistorical, nil
	case "alerting":
		return LabelAlerting, nil
	case "critical":
		return LabelCritical, nil
	default:
		return LabelNone, fmt.Errorf("unknown label %q", s)
	}
}
