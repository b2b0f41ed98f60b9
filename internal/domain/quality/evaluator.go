package quality

import (
	"errors"
	"fmt"
)

var ErrUnorderedSeries = errors.New("weekly series must be strictly increasing by week")

// MetricEvaluation is the state of one metric for one seller as of its latest observed week.
type MetricEvaluation struct {
	Metric      Metric
	Rate        float64
	IssueCount  int
	Streak      int
	Failing     bool
	HadPriorRun bool
	Label       Label
}

// Evaluator turns weekly observations into streaks and labels.
type Evaluator struct {
	policy Policy
}

func NewEvaluator(policy Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Flags returns the per-week failing flag of the series.
func (e *Evaluator) Flags(metric Metric, series []WeeklyObservation) []bool {
	t := e.policy.For(metric)
	flags := make([]bool, len(series))
	for i, o := range series {
		flags[i] = PassFail(o, t)
	}
	return flags
}

// Evaluate computes the current streak of the series. Missing weeks are
// skipped; only a present, passing week breaks the streak.
func (e *Evaluator) Evaluate(metric Metric, series []WeeklyObservation) (MetricEvaluation, error) {
	ev := MetricEvaluation{Metric: metric}
	if len(series) == 0 {
		return ev, nil
	}
	for i := 1; i < len(series); i++ {
		if !series[i].WeekStart.After(series[i-1].WeekStart) {
			return ev, fmt.Errorf("%w: week %s follows %s", ErrUnorderedSeries,
				series[i].WeekStart.Format("2006-01-02"), series[i-1].WeekStart.Format("2006-01-02"))
		}
	}

	flags := e.Flags(metric, series)
	streaks := StreakSeries(flags)
	last := len(series) - 1

	ev.Rate = series[last].Rate()
	ev.IssueCount = series[last].IssueCount
	ev.Streak = streaks[last]
	ev.Failing = flags[last]
	for _, f := range flags[:last] {
		if f {
			ev.HadPriorRun = true
			break
		}
	}
	ev.Label = labelFor(ev, e.policy.For(metric))
	return ev, nil
}

// StreakSeries returns the streak at every position:
// S(N) = F(N) ? (F(N-1) ? S(N-1)+1 : 1) : 0.
func StreakSeries(flags []bool) []int {
	out := make([]int, len(flags))
	for i, f := range flags {
		if !f {
			continue
		}
		if i > 0 && flags[i-1] {
			out[i] = out[i-1] + 1
		} else {
			out[i] = 1
		}
	}
	return out
}

func labelFor(ev MetricEvaluation, t Thresholds) Label {
	switch {
	case ev.Failing && ev.Rate > t.Critical:
		return LabelCritical
	case ev.Failing:
		return LabelAlerting
	case ev.HadPriorRun:
		return LabelHistorical
	default:
		return LabelNone
	}
}
