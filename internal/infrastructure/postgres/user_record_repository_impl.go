package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodhaven/moodhaven/internal/domain/entity"
	"github.com/moodhaven/moodhaven/internal/domain/repository"
)

// UserRecordRepository persists UserRecord rows. Set-shaped columns are
// updated with single-statement SQL so individual operations stay atomic
// and idempotent under concurrent sessions.
type UserRecordRepository struct {
	pool *pgxpool.Pool
}

func NewUserRecordRepository(pool *pgxpool.Pool) *UserRecordRepository {
	return &UserRecordRepository{pool: pool}
}

const recordColumns = `
	id, email, password_hash, name, avatar_url,
	emotions, tasks, completed_tasks, canceled_tasks, rewards,
	streak, last_emotion_date, created_at, updated_at`

func (r *UserRecordRepository) Create(ctx context.Context, u *entity.UserRecord) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.Name, u.AvatarURL)

	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRecordRepository) GetByID(ctx context.Context, id string) (*entity.UserRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM users WHERE id = $1`, id)
	return scanRecord(row)
}

func (r *UserRecordRepository) GetByEmail(ctx context.Context, email string) (*entity.UserRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM users WHERE email = $1`, email)
	return scanRecord(row)
}

// scanRecord parses a users row into a UserRecord, validating the jsonb
// document columns. Anything that fails validation surfaces as
// repository.ErrMalformedRecord rather than a silently-skipped field.
func scanRecord(row pgx.Row) (*entity.UserRecord, error) {
	u := &entity.UserRecord{}
	var emotionsRaw, rewardsRaw []byte

	if err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.AvatarURL,
		&emotionsRaw, &u.Tasks, &u.CompletedTasks, &u.CanceledTasks, &rewardsRaw,
		&u.Streak, &u.LastEmotionDate, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := decodeRecordDocs(u, emotionsRaw, rewardsRaw); err != nil {
		return nil, err
	}
	return u, nil
}

// decodeRecordDocs validates the jsonb document columns into the record.
// Every failure wraps repository.ErrMalformedRecord.
func decodeRecordDocs(u *entity.UserRecord, emotionsRaw, rewardsRaw []byte) error {
	emotions, err := parseEmotions(emotionsRaw)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrMalformedRecord, err)
	}
	u.Emotions = emotions

	if err := json.Unmarshal(rewardsRaw, &u.Rewards); err != nil {
		return fmt.Errorf("%w: rewards: %v", repository.ErrMalformedRecord, err)
	}
	for i, c := range u.Rewards {
		if c.Reward == "" {
			return fmt.Errorf("%w: rewards[%d]: missing reward name", repository.ErrMalformedRecord, i)
		}
	}
	if u.Streak < 0 {
		return fmt.Errorf("%w: negative streak %d", repository.ErrMalformedRecord, u.Streak)
	}
	return nil
}

func parseEmotions(raw []byte) ([]entity.EmotionEntry, error) {
	var entries []entity.EmotionEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("emotions: %v", err)
	}
	for i, e := range entries {
		if _, err := entity.ParseEmotion(string(e.Emotion)); err != nil {
			return nil, fmt.Errorf("emotions[%d]: %v", i, err)
		}
		if e.Timestamp.IsZero() {
			return nil, fmt.Errorf("emotions[%d]: missing timestamp", i)
		}
	}
	return entries, nil
}

func (r *UserRecordRepository) UpdateProfile(ctx context.Context, id, name, avatarURL string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, avatar_url = $2, updated_at = now()
		WHERE id = $3
	`, name, avatarURL, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRecordRepository) AppendEmotion(ctx context.Context, id string, e entity.EmotionEntry) error {
	b, err := json.Marshal([]entity.EmotionEntry{e})
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET emotions = emotions || $1::jsonb, updated_at = now()
		WHERE id = $2
	`, b, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRecordRepository) SeedTasks(ctx context.Context, id string, tasks []string) (bool, error) {
	// Only the first caller seeds; a concurrent session that already filled
	// the pending set wins.
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET tasks = $1, updated_at = now()
		WHERE id = $2 AND cardinality(tasks) = 0
	`, tasks, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRecordRepository) CompleteTask(ctx context.Context, id, task string) error {
	// Remove-from-pending and add-to-completed in one statement; the CASE
	// keeps completed_tasks a set so repeated calls are no-ops.
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET tasks = array_remove(tasks, $1),
		    completed_tasks = CASE
		        WHEN $1 = ANY(completed_tasks) THEN completed_tasks
		        ELSE array_append(completed_tasks, $1)
		    END,
		    updated_at = now()
		WHERE id = $2
	`, task, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRecordRepository) CancelTask(ctx context.Context, id, task string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET tasks = array_remove(tasks, $1),
		    canceled_tasks = CASE
		        WHEN $1 = ANY(canceled_tasks) THEN canceled_tasks
		        ELSE array_append(canceled_tasks, $1)
		    END,
		    updated_at = now()
		WHERE id = $2
	`, task, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRecordRepository) ClaimReward(ctx context.Context, id string, claim entity.RewardClaim) error {
	b, err := json.Marshal([]entity.RewardClaim{claim})
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET rewards = rewards || $1::jsonb, updated_at = now()
		WHERE id = $2
	`, b, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRecordRepository) UpdateStreak(ctx context.Context, id string, streak int, last time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET streak = $1, last_emotion_date = $2, updated_at = now()
		WHERE id = $3
	`, streak, last, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRecordRepository = (*UserRecordRepository)(nil)
