package tracker

import "sort"

// Measurements filters a cycle's event log down to measurement events in
// chronological order.
func Measurements(events []*Event) []*Event {
	var out []*Event
	for _, e := range events {
		if e.Type == EventMeasurement {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SelectBaseline picks the measurement a cycle's progress is computed
// against: the most recently created event flagged is_baseline, else the
// chronologically first measurement. The is_baseline override is what
// makes deliberate rebaselining work.
func SelectBaseline(events []*Event) *Event {
	ms := Measurements(events)
	if len(ms) == 0 {
		return nil
	}
	for i := len(ms) - 1; i >= 0; i-- {
		if ms[i].IsBaseline {
			return ms[i]
		}
	}
	return ms[0]
}

// LatestMeasurement returns the most recent measurement event, or nil.
func LatestMeasurement(events []*Event) *Event {
	ms := Measurements(events)
	if len(ms) == 0 {
		return nil
	}
	return ms[len(ms)-1]
}
