package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(t time.Time) *time.Time { return &t }

func TestShouldRun_Disabled(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

	tk := Task{Frequency: FrequencyEveryMinute, Enabled: false}
	assert.False(t, ShouldRun(tk, now), "disabled task never due")

	tk.LastRunAt = ptr(now.Add(-48 * time.Hour))
	assert.False(t, ShouldRun(tk, now), "disabled task never due regardless of elapsed time")
}

func TestShouldRun_NeverRan(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

	for _, freq := range []Frequency{FrequencyDaily, FrequencyHourly, FrequencyEveryMinute} {
		tk := Task{Frequency: freq, Enabled: true}
		assert.True(t, ShouldRun(tk, now), "freq %s: first run fires immediately", freq)
	}
}

func TestShouldRun_EveryMinute(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{"59s ago", now.Add(-59 * time.Second), false},
		{"exactly 60s ago", now.Add(-60 * time.Second), true},
		{"61s ago", now.Add(-61 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := Task{Frequency: FrequencyEveryMinute, Enabled: true, LastRunAt: ptr(tt.lastRun)}
			assert.Equal(t, tt.want, ShouldRun(tk, now))
		})
	}
}

func TestShouldRun_Hourly(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

	tk := Task{Frequency: FrequencyHourly, Enabled: true, LastRunAt: ptr(now.Add(-59 * time.Minute))}
	assert.False(t, ShouldRun(tk, now))

	tk.LastRunAt = ptr(now.Add(-time.Hour))
	assert.True(t, ShouldRun(tk, now))
}

func TestShouldRun_Daily(t *testing.T) {
	// Scheduled for 09:00, last ran yesterday at 10:00.
	yesterday := time.Date(2025, 6, 9, 10, 0, 0, 0, time.Local)
	tk := Task{
		Frequency: FrequencyDaily,
		At:        TimeOfDay{Hour: 9, Minute: 0},
		Enabled:   true,
		LastRunAt: ptr(yesterday),
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"next day past scheduled time", time.Date(2025, 6, 10, 9, 1, 0, 0, time.Local), true},
		{"next day before scheduled time", time.Date(2025, 6, 10, 8, 59, 0, 0, time.Local), false},
		{"next day exactly at scheduled time", time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRun(tk, tt.now))
		})
	}
}

func TestShouldRun_Daily_OncePerDay(t *testing.T) {
	// Already ran today at 09:05; must not fire again the same day,
	// even late in the evening.
	tk := Task{
		Frequency: FrequencyDaily,
		At:        TimeOfDay{Hour: 9, Minute: 0},
		Enabled:   true,
		LastRunAt: ptr(time.Date(2025, 6, 10, 9, 5, 0, 0, time.Local)),
	}

	assert.False(t, ShouldRun(tk, time.Date(2025, 6, 10, 23, 0, 0, 0, time.Local)))
}

func TestShouldRun_Daily_CatchUpAfterGap(t *testing.T) {
	// Process was down for several days: exactly one catch-up run fires
	// on the first eligible tick.
	tk := Task{
		Frequency: FrequencyDaily,
		At:        TimeOfDay{Hour: 9, Minute: 0},
		Enabled:   true,
		LastRunAt: ptr(time.Date(2025, 6, 1, 9, 2, 0, 0, time.Local)),
	}

	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local)
	assert.True(t, ShouldRun(tk, now))

	// After the catch-up run advances LastRunAt, the same day stays quiet.
	tk.LastRunAt = ptr(now)
	assert.False(t, ShouldRun(tk, time.Date(2025, 6, 10, 23, 59, 0, 0, time.Local)))
}

func TestShouldRun_Cron(t *testing.T) {
	tk := Task{
		Frequency: FrequencyCron,
		CronExpr:  "*/5 * * * *",
		Enabled:   true,
	}

	last := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	tk.LastRunAt = ptr(last)

	assert.False(t, ShouldRun(tk, last.Add(3*time.Minute)))
	assert.True(t, ShouldRun(tk, last.Add(5*time.Minute)))
}

func TestShouldRun_Cron_BadExpression(t *testing.T) {
	tk := Task{
		Frequency: FrequencyCron,
		CronExpr:  "not a cron expr",
		Enabled:   true,
		LastRunAt: ptr(time.Now().Add(-time.Hour)),
	}
	assert.False(t, ShouldRun(tk, time.Now()))
}

func TestShouldRun_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	tk := Task{
		Frequency: FrequencyEveryMinute,
		Enabled:   true,
		LastRunAt: ptr(now.Add(-90 * time.Second)),
	}

	first := ShouldRun(tk, now)
	second := ShouldRun(tk, now)
	assert.Equal(t, first, second)
	assert.True(t, first)
}

func TestShouldRun_FrequencyChangeUsesExistingLastRun(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	tk := Task{
		Frequency: FrequencyHourly,
		Enabled:   true,
		LastRunAt: ptr(now.Add(-10 * time.Minute)),
	}
	assert.False(t, ShouldRun(tk, now))

	// Switching to every_minute takes effect with the old LastRunAt.
	tk.Frequency = FrequencyEveryMinute
	assert.True(t, ShouldRun(tk, now))
}
