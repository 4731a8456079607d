package entity

import (
	"time"
)

// UserRecord is the aggregate root for a user's wellbeing data: one record
// per authenticated identity, holding the mood history, task sets, reward
// claims, and streak state.
//
// Passwords are stored as bcrypt hashes in Password.
type UserRecord struct {
	ID        string
	Email     string
	Password  string
	Name      string
	AvatarURL string

	// Emotions is append-only; entries are never mutated or deleted.
	Emotions []EmotionEntry

	// A task name lives in at most one of Tasks/CompletedTasks.
	// CanceledTasks is not exclusive with the other two.
	Tasks          []string
	CompletedTasks []string
	CanceledTasks  []string

	Rewards []RewardClaim

	// Streak counts consecutive calendar days with a logged emotion.
	// Zero at record creation. LastEmotionDate is nil until the first log.
	Streak          int
	LastEmotionDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RewardClaim is one earned reward. Repeat claims of the same reward are
// kept as separate entries, distinguished by ClaimedAt.
type RewardClaim struct {
	Reward    string    `json:"reward"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// HasPendingTask reports whether name is in the pending set.
func (u *UserRecord) HasPendingTask(name string) bool {
	return containsString(u.Tasks, name)
}

// HasCompletedTask reports whether name is in the completed set.
func (u *UserRecord) HasCompletedTask(name string) bool {
	return containsString(u.CompletedTasks, name)
}

func containsString(set []string, name string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}
