package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodhaven/moodhaven/internal/domain/entity"
	repo "github.com/moodhaven/moodhaven/internal/domain/repository"
)

// memRepo is an in-memory UserRecordRepository with the same set semantics
// the Postgres implementation guarantees.
type memRepo struct {
	mu      sync.Mutex
	records map[string]*entity.UserRecord
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]*entity.UserRecord{}}
}

func (m *memRepo) Create(_ context.Context, u *entity.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.records[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*entity.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.records[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*entity.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.records {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) UpdateProfile(_ context.Context, id, name, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.records[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Name = name
	u.AvatarURL = avatarURL
	return nil
}

func (m *memRepo) AppendEmotion(_ context.Context, id string, e entity.EmotionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.records[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Emotions = append(u.Emotions, e)
	return nil
}

func (m *memRepo) SeedTasks(_ context.Context, id string, tasks []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.records[id]
	if !ok {
		return false, repo.ErrNotFound
	}
	if len(u.Tasks) > 0 {
		return false, nil
	}
	u.Tasks = append([]string{}, tasks...)
	return true, nil
}

func (m *memRepo) CompleteTask(_ context.Context, id, task string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.records[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Tasks = removeString(u.Tasks, task)
	u.CompletedTasks = appendUnique(u.CompletedTasks, task)
	return nil
}

func (m *memRepo) CancelTask(_ context.Context, id, task string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.records[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Tasks = removeString(u.Tasks, task)
	u.CanceledTasks = appendUnique(u.CanceledTasks, task)
	return nil
}

func (m *memRepo) ClaimReward(_ context.Context, id string, claim entity.RewardClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.records[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Rewards = append(u.Rewards, claim)
	return nil
}

func (m *memRepo) UpdateStreak(_ context.Context, id string, streak int, last time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.records[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Streak = streak
	u.LastEmotionDate = &last
	return nil
}

func removeString(set []string, s string) []string {
	out := set[:0]
	for _, v := range set {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func appendUnique(set []string, s string) []string {
	for _, v := range set {
		if v == s {
			return set
		}
	}
	return append(set, s)
}

func newTestService(t *testing.T) (*WellbeingService, string) {
	t.Helper()
	r := newMemRepo()
	u := &entity.UserRecord{Email: "ana@example.com", Name: "Ana"}
	require.NoError(t, r.Create(context.Background(), u))
	return &WellbeingService{Repo: r}, u.ID
}

func TestRecordEmotionSeedsTasksOnce(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	res, err := svc.RecordEmotion(ctx, uid, "Sad")
	require.NoError(t, err)
	assert.True(t, res.TasksSeeded)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, entity.TasksFor(entity.EmotionSad), res.SuggestedTasks)

	u, err := svc.Repo.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskNamesFor(entity.EmotionSad), u.Tasks)
	assert.Len(t, u.Emotions, 1)

	// A second emotion the same day suggests new tasks but does not reseed
	// and does not move the streak.
	res2, err := svc.RecordEmotion(ctx, uid, "Happy")
	require.NoError(t, err)
	assert.False(t, res2.TasksSeeded)
	assert.False(t, res2.StreakAdvanced)
	assert.Equal(t, 1, res2.Streak)

	u, err = svc.Repo.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskNamesFor(entity.EmotionSad), u.Tasks)
	assert.Len(t, u.Emotions, 2)
}

func TestRecordEmotionUnknownEmotion(t *testing.T) {
	svc, uid := newTestService(t)
	_, err := svc.RecordEmotion(context.Background(), uid, "Ecstatic")
	assert.ErrorIs(t, err, ErrEmotionUnknown)
}

func TestRecordEmotionStreakAcrossDays(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	clock := base
	svc.Now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		clock = base.AddDate(0, 0, i)
		res, err := svc.RecordEmotion(ctx, uid, "Neutral")
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Streak)
	}

	// Skip two days: streak resets.
	clock = base.AddDate(0, 0, 5)
	res, err := svc.RecordEmotion(ctx, uid, "Neutral")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
}

func TestCompleteTaskIdempotent(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordEmotion(ctx, uid, "Stressed")
	require.NoError(t, err)

	require.NoError(t, svc.CompleteTask(ctx, uid, "Go for a walk"))
	require.NoError(t, svc.CompleteTask(ctx, uid, "Go for a walk"))

	u, err := svc.Repo.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, []string{"Take deep breaths"}, u.Tasks)
	assert.Equal(t, []string{"Go for a walk"}, u.CompletedTasks)
}

func TestCancelTaskKeepsCompletedHistory(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordEmotion(ctx, uid, "Stressed")
	require.NoError(t, err)

	require.NoError(t, svc.CompleteTask(ctx, uid, "Go for a walk"))
	require.NoError(t, svc.CancelTask(ctx, uid, "Go for a walk"))

	u, err := svc.Repo.GetByID(ctx, uid)
	require.NoError(t, err)
	// Cancel pulls from pending only; the completed record stays.
	assert.Contains(t, u.CompletedTasks, "Go for a walk")
	assert.Contains(t, u.CanceledTasks, "Go for a walk")
	assert.NotContains(t, u.Tasks, "Go for a walk")
}

func TestListTasksSeedsWhenEmpty(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	view, err := svc.ListTasks(ctx, uid, "Anxious")
	require.NoError(t, err)
	assert.Equal(t, entity.TaskNamesFor(entity.EmotionAnxious), view.Pending)
	assert.Equal(t, entity.TasksFor(entity.EmotionAnxious), view.Suggestions)

	// Already seeded: a different emotion only changes the suggestions.
	view2, err := svc.ListTasks(ctx, uid, "Happy")
	require.NoError(t, err)
	assert.Equal(t, entity.TaskNamesFor(entity.EmotionAnxious), view2.Pending)
	assert.Equal(t, entity.TasksFor(entity.EmotionHappy), view2.Suggestions)
}

func TestClaimReward(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	_, err := svc.ClaimReward(ctx, uid, "Skydiving", "", "")
	assert.ErrorIs(t, err, ErrRewardUnknown)

	c1, err := svc.ClaimReward(ctx, uid, "Nap", "", "")
	require.NoError(t, err)
	c2, err := svc.ClaimReward(ctx, uid, "Nap", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Nap", c1.Reward)
	assert.Equal(t, "Nap", c2.Reward)

	earned, err := svc.EarnedRewards(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, earned, 2)
}

func TestWeeklyLogWindow(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	for _, offset := range []int{-10, -5, -1, 0} {
		entry := entity.EmotionEntry{
			Timestamp: now.AddDate(0, 0, offset),
			Emotion:   entity.EmotionHappy,
		}
		require.NoError(t, svc.Repo.AppendEmotion(ctx, uid, entry))
	}
	_, err := svc.Repo.SeedTasks(ctx, uid, []string{"Take deep breaths", "Go for a walk"})
	require.NoError(t, err)
	require.NoError(t, svc.Repo.CompleteTask(ctx, uid, "Go for a walk"))

	log, err := svc.WeeklyLogView(ctx, uid)
	require.NoError(t, err)

	// Only the entries inside the trailing 7 days survive.
	require.Len(t, log.Entries, 3)
	assert.Equal(t, "2025-06-10", log.Entries[0].Date)
	assert.Equal(t, "2025-06-15", log.Entries[2].Date)

	assert.ElementsMatch(t, []TaskStatus{
		{Task: "Go for a walk", Status: "Completed"},
		{Task: "Take deep breaths", Status: "Pending"},
	}, log.Tasks)
}

func TestWeeklyLogIncludesWindowBoundary(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	// Exactly seven days old sits on the window edge and still counts.
	boundary := entity.EmotionEntry{Timestamp: now.Add(-7 * 24 * time.Hour), Emotion: entity.EmotionNeutral}
	outside := entity.EmotionEntry{Timestamp: now.Add(-7*24*time.Hour - time.Second), Emotion: entity.EmotionSad}
	require.NoError(t, svc.Repo.AppendEmotion(ctx, uid, outside))
	require.NoError(t, svc.Repo.AppendEmotion(ctx, uid, boundary))

	log, err := svc.WeeklyLogView(ctx, uid)
	require.NoError(t, err)
	require.Len(t, log.Entries, 1)
	assert.Equal(t, entity.EmotionNeutral, log.Entries[0].Emotion)
	assert.Equal(t, "2025-06-08", log.Entries[0].Date)
}

func TestMonthlyLogFiltersByMonth(t *testing.T) {
	svc, uid := newTestService(t)
	ctx := context.Background()

	svc.Now = func() time.Time { return time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC) }

	entries := []entity.EmotionEntry{
		{Timestamp: time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC), Emotion: entity.EmotionSad},
		{Timestamp: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), Emotion: entity.EmotionHappy},
		{Timestamp: time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC), Emotion: entity.EmotionNeutral},
	}
	for _, e := range entries {
		require.NoError(t, svc.Repo.AppendEmotion(ctx, uid, e))
	}

	cur, err := svc.MonthlyLogView(ctx, uid, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-06", cur.Month)
	assert.Len(t, cur.Entries, 2)

	may, err := svc.MonthlyLogView(ctx, uid, "2025-05")
	require.NoError(t, err)
	assert.Len(t, may.Entries, 1)
	assert.Equal(t, entity.EmotionSad, may.Entries[0].Emotion)

	mayByName, err := svc.MonthlyLogView(ctx, uid, "May 2025")
	require.NoError(t, err)
	assert.Equal(t, may, mayByName)

	_, err = svc.MonthlyLogView(ctx, uid, "not-a-month")
	assert.ErrorIs(t, err, ErrBadMonth)
}
