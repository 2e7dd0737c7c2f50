package domain

import "time"

type ProjectVoiceConfig struct {
	VoiceEnabled   bool
	DaemonEndpoint string
	LastUpdated    time.Time
}

const DefaultReminderInterval = 30 * time.Minute

type ReminderConfig struct {
	Enabled           bool
	Interval          time.Duration
	LastReminder      time.Time
	ReminderCount     int
	AutoRemindOnStart bool
	Messages          []string
}

func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		Enabled:           true,
		Interval:          DefaultReminderInterval,
		AutoRemindOnStart: true,
		Messages: []string{
			`Remember voice notifications: when you need the user, run cvoice notify "message" urgent`,
			"Reminder: announce errors and finished tasks with a voice notification",
			`Voice tip: cvoice notify "task complete" excited`,
			"Use a voice notification whenever you are waiting on the user",
			"Periodic reminder: keep the user posted through cvoice notify",
		},
	}
}

// Due reports whether a reminder should fire at now.
func (c ReminderConfig) Due(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	if c.LastReminder.IsZero() {
		return true
	}
	return now.Sub(c.LastReminder) > c.interval()
}

func (c ReminderConfig) NextAt() time.Time {
	if c.LastReminder.IsZero() {
		return time.Time{}
	}
	return c.LastReminder.Add(c.interval())
}

// NextMessage rotates through Messages by ReminderCount.
func (c ReminderConfig) NextMessage() string {
	if len(c.Messages) == 0 {
		return DefaultReminderConfig().Messages[0]
	}
	return c.Messages[c.ReminderCount%len(c.Messages)]
}

func (c ReminderConfig) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultReminderInterval
	}
	return c.Interval
}
