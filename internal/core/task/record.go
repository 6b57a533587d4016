package task

import "time"

// Record is the persisted form of State: deadlines as epoch milliseconds.
type Record struct {
	Completed []string         `json:"completed"`
	Cooldowns map[string]int64 `json:"cooldowns"`
	Verifying map[string]int64 `json:"verifying"`
}

// Record converts s to its persisted form. Collections are never nil.
func (s State) Record() Record {
	r := Record{
		Completed: append([]string{}, s.Completed...),
		Cooldowns: make(map[string]int64, len(s.Cooldowns)),
		Verifying: make(map[string]int64, len(s.Verifying)),
	}
	for id, end := range s.Cooldowns {
		r.Cooldowns[id] = end.UnixMilli()
	}
	for id, end := range s.Verifying {
		r.Verifying[id] = end.UnixMilli()
	}
	return r
}

// State converts a persisted record back to State. Non-positive deadlines
// are dropped.
func (r Record) State() State {
	s := State{
		Completed: append([]string{}, r.Completed...),
		Cooldowns: make(map[string]time.Time, len(r.Cooldowns)),
		Verifying: make(map[string]time.Time, len(r.Verifying)),
	}
	for id, ms := range r.Cooldowns {
		if ms > 0 {
			s.Cooldowns[id] = time.UnixMilli(ms).UTC()
		}
	}
	for id, ms := range r.Verifying {
		if ms > 0 {
			s.Verifying[id] = time.UnixMilli(ms).UTC()
		}
	}
	return s
}
