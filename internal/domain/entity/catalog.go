package entity

// SuggestedTask is a catalog entry: a coping task and its suggested
// duration in minutes.
type SuggestedTask struct {
	Task     string `json:"task"`
	Duration int    `json:"duration"`
}

// tasksByEmotion is the static emotion to task-list table. It is not
// user-editable and not persisted; task names double as identifiers in the
// per-user pending/completed sets.
var tasksByEmotion = map[Emotion][]SuggestedTask{
	EmotionHappy: {
		{Task: "Celebrate your achievements", Duration: 10},
		{Task: "Spend time with loved ones", Duration: 20},
	},
	EmotionSad: {
		{Task: "Journal your thoughts", Duration: 15},
		{Task: "Watch your favorite movie", Duration: 90},
	},
	EmotionStressed: {
		{Task: "Take deep breaths", Duration: 5},
		{Task: "Go for a walk", Duration: 15},
	},
	EmotionAnxious: {
		{Task: "Try meditation", Duration: 10},
		{Task: "Listen to calming music", Duration: 30},
	},
	EmotionDepressed: {
		{Task: "Seek support from a friend", Duration: 20},
		{Task: "Practice gratitude", Duration: 10},
	},
	EmotionNeutral: {
		{Task: "Organize your space", Duration: 30},
		{Task: "Set goals for the week", Duration: 45},
	},
}

// TasksFor returns the suggested tasks for an emotion. The returned slice is
// a copy; callers may reorder it freely.
func TasksFor(e Emotion) []SuggestedTask {
	src := tasksByEmotion[e]
	out := make([]SuggestedTask, len(src))
	copy(out, src)
	return out
}

// TaskNamesFor returns just the task names for an emotion, used when seeding
// the pending set.
func TaskNamesFor(e Emotion) []string {
	src := tasksByEmotion[e]
	out := make([]string, 0, len(src))
	for _, t := range src {
		out = append(out, t.Task)
	}
	return out
}

// RewardCatalog is the fixed list of rewards a user can claim.
var RewardCatalog = []string{"Ice Cream", "Game", "Trip", "Nap", "Movie"}

// IsCatalogReward reports whether name is a known reward.
func IsCatalogReward(name string) bool {
	return containsString(RewardCatalog, name)
}
