package entity

import (
	"fmt"
	"time"
)

// Emotion is the fixed set of moods a user can log.
type Emotion string

const (
	EmotionHappy     Emotion = "Happy"
	EmotionSad       Emotion = "Sad"
	EmotionStressed  Emotion = "Stressed"
	EmotionAnxious   Emotion = "Anxious"
	EmotionDepressed Emotion = "Depressed"
	EmotionNeutral   Emotion = "Neutral"
)

// Emotions lists every valid emotion in display order.
func Emotions() []Emotion {
	return []Emotion{
		EmotionHappy,
		EmotionSad,
		EmotionStressed,
		EmotionAnxious,
		EmotionDepressed,
		EmotionNeutral,
	}
}

// ParseEmotion validates a raw string against the enum.
func ParseEmotion(s string) (Emotion, error) {
	for _, e := range Emotions() {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", s)
}

// EmotionEntry is one logged mood. Entries are append-only.
type EmotionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Emotion   Emotion   `json:"emotion"`
}
