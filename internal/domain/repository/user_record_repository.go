package repository

import (
	"context"
	"time"

	"github.com/moodhaven/moodhaven/internal/domain/entity"
)

// UserRecordRepository defines persistence for per-user wellbeing records.
// Array-shaped updates (emotions, task sets, rewards) must be atomic
// single-statement operations with set semantics, so that concurrent
// complete/cancel calls stay commutative and idempotent.
type UserRecordRepository interface {
	Create(ctx context.Context, u *entity.UserRecord) error
	GetByID(ctx context.Context, id string) (*entity.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*entity.UserRecord, error)
	UpdateProfile(ctx context.Context, id, name, avatarURL string) error

	AppendEmotion(ctx context.Context, id string, e entity.EmotionEntry) error

	// SeedTasks fills the pending set only when it is currently empty and
	// reports whether seeding happened.
	SeedTasks(ctx context.Context, id string, tasks []string) (bool, error)
	CompleteTask(ctx context.Context, id, task string) error
	CancelTask(ctx context.Context, id, task string) error

	ClaimReward(ctx context.Context, id string, claim entity.RewardClaim) error

	UpdateStreak(ctx context.Context, id string, streak int, last time.Time) error
}

// AuditLogRepository records security- and reward-relevant events.
type AuditLogRepository interface {
	Insert(ctx context.Context, e AuditEvent) error
}

// AuditEvent is a single audit trail row. UserID and Email may be empty for
// anonymous events (e.g. failed logins).
type AuditEvent struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}
