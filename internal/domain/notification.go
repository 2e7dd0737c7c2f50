package domain

import "time"

type Emotion string

const (
	EmotionGentle   Emotion = "gentle"
	EmotionUrgent   Emotion = "urgent"
	EmotionExcited  Emotion = "excited"
	EmotionWorried  Emotion = "worried"
	EmotionThinking Emotion = "thinking"
)

// Known reports whether the emotion is one of the recognised values. Unknown
// values are still routed unchanged.
func (e Emotion) Known() bool {
	switch e {
	case EmotionGentle, EmotionUrgent, EmotionExcited, EmotionWorried, EmotionThinking:
		return true
	default:
		return false
	}
}

func (e Emotion) OrDefault() Emotion {
	if e == "" {
		return EmotionGentle
	}
	return e
}

type NotificationRequest struct {
	RequestID       string
	Message         string
	Emotion         Emotion
	Context         string
	Timestamp       time.Time
	SourceProcessID int
}

const DefaultDisplayLength = 100

// TruncateMessage shortens message to limit runes, appending "..." when cut.
func TruncateMessage(message string, limit int) string {
	if limit <= 0 {
		return message
	}
	runes := []rune(message)
	if len(runes) <= limit {
		return message
	}
	return string(runes[:limit]) + "..."
}

func InstanceContext(id InstanceID) string {
	return "instance:" + string(id)
}
