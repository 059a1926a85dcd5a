package recurrence

import "time"

// PreviewOptions bounds occurrence previews.
type PreviewOptions struct {
	Limit int
	Until *time.Time
}

// Preview lists upcoming executions of def starting with its NextExecution,
// then repeatedly applying the rule. Generation stops at Limit entries, at the
// definition's EndsOn, or after Until, whichever comes first.
func (e *Engine) Preview(def Definition, opts PreviewOptions) ([]time.Time, error) {
	if def.NextExecution == nil {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	loc := e.Location()
	var upperBound time.Time
	hasUpper := false
	if def.EndsOn != nil {
		upperBound = endOfDay(*def.EndsOn, loc)
		hasUpper = true
	}
	if opts.Until != nil {
		until := opts.Until.In(loc)
		if !hasUpper || until.Before(upperBound) {
			upperBound = until
		}
		hasUpper = true
	}

	current := def.NextExecution.In(loc)
	occurrences := make([]time.Time, 0, limit)
	for len(occurrences) < limit {
		if hasUpper && current.After(upperBound) {
			break
		}
		occurrences = append(occurrences, current)

		next, err := e.Next(def.Rule, current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return occurrences, nil
}

// PastEnd reports whether candidate falls after the definition's end date.
// The end date is inclusive: executions on that calendar day are retained.
func (e *Engine) PastEnd(def Definition, candidate time.Time) bool {
	if def.EndsOn == nil {
		return false
	}
	loc := e.Location()
	return candidate.In(loc).After(endOfDay(*def.EndsOn, loc))
}

// endOfDay returns the last instant in loc of t's calendar date, taking the
// date as written rather than converting t into loc first.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}
