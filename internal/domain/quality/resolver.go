package quality

import (
	"errors"
	"fmt"
)

// SuspendedStreak is the longest streak the automation still acts on.
// Sellers beyond it were escalated outside this process.
const SuspendedStreak = 5

var ErrInvariantViolation = errors.New("escalation invariant violated")

// Decision is the resolved outcome for one seller.
type Decision struct {
	DefectiveAction  Action
	AppearanceAction Action
	FinalAction      Action
	Excluded         bool
}

// ActionForStreak maps a metric streak to its action. Streaks 2 and 3 are
// deliberately silent.
func ActionForStreak(streak int) Action {
	switch streak {
	case 1:
		return ActionFirstWarning
	case 4:
		return ActionLastWarning
	case SuspendedStreak:
		return ActionSuspension
	default:
		return ActionNone
	}
}

// Resolver merges the two metric evaluations into one action per seller.
type Resolver struct {
	evaluator *Evaluator
}

func NewResolver(policy Policy) *Resolver {
	return &Resolver{evaluator: NewEvaluator(policy)}
}

// ResolveSeries evaluates both weekly series and resolves them.
func (r *Resolver) ResolveSeries(defective, appearance []WeeklyObservation) (MetricEvaluation, MetricEvaluation, Decision, error) {
	def, err := r.evaluator.Evaluate(MetricDefective, defective)
	if err != nil {
		return MetricEvaluation{}, MetricEvaluation{}, Decision{}, fmt.Errorf("defective series: %w", err)
	}
	app, err := r.evaluator.Evaluate(MetricAppearance, appearance)
	if err != nil {
		return MetricEvaluation{}, MetricEvaluation{}, Decision{}, fmt.Errorf("appearance series: %w", err)
	}
	d := r.Resolve(def, app)
	return def, app, d, d.Validate(def, app)
}

// Resolve applies the exclusion rule, then picks the most severe per-metric
// action among metrics that are failing this week.
func (r *Resolver) Resolve(defective, appearance MetricEvaluation) Decision {
	if defective.Streak > SuspendedStreak || appearance.Streak > SuspendedStreak {
		return Decision{Excluded: true}
	}

	d := Decision{
		DefectiveAction:  metricAction(defective),
		AppearanceAction: metricAction(appearance),
	}
	for _, candidate := range []Action{ActionSuspension, ActionLastWarning, ActionFirstWarning} {
		if d.DefectiveAction == candidate || d.AppearanceAction == candidate {
			d.FinalAction = candidate
			break
		}
	}
	return d
}

func metricAction(ev MetricEvaluation) Action {
	if !ev.Failing {
		return ActionNone
	}
	return ActionForStreak(ev.Streak)
}

// Validate rejects decisions that notify a seller with no failing metric.
func (d Decision) Validate(defective, appearance MetricEvaluation) error {
	if d.Excluded || !d.FinalAction.Notifies() {
		return nil
	}
	if !defective.Failing && !appearance.Failing {
		return fmt.Errorf("%w: %s with no failing metric", ErrInvariantViolation, d.FinalAction)
	}
	return nil
}
