package task

import (
	"time"
)

// ShouldRun reports whether t is due at now.
//
// A disabled task is never due. A task that has never run is due as soon as
// the scheduler sees it. Otherwise the rule depends on the frequency:
//
//   - every_minute: at least one minute elapsed since the last run
//   - hourly: at least one hour elapsed since the last run
//   - daily: the calendar day changed since the last run and the current
//     time of day has reached the task's scheduled time; because the last
//     run timestamp advances right after execution, a daily task fires at
//     most once per day and a multi-day gap collapses to one catch-up run
//   - cron: the expression's next activation after the last run has passed
//
// The function is pure: calling it twice with the same task and now yields
// the same answer.
func ShouldRun(t Task, now time.Time) bool {
	if !t.Enabled {
		return false
	}
	if t.LastRunAt == nil {
		return true
	}
	last := *t.LastRunAt

	switch t.Frequency {
	case FrequencyEveryMinute:
		return now.Sub(last) >= time.Minute
	case FrequencyHourly:
		return now.Sub(last) >= time.Hour
	case FrequencyDaily:
		if sameDay(last, now) {
			return false
		}
		return now.Hour() > t.At.Hour ||
			(now.Hour() == t.At.Hour && now.Minute() >= t.At.Minute)
	case FrequencyCron:
		sched, err := cronParser.Parse(t.CronExpr)
		if err != nil {
			// Unparseable expressions are caught by Validate; a task that
			// slipped through is treated as never due rather than hot-looping.
			return false
		}
		return !sched.Next(last).After(now)
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
