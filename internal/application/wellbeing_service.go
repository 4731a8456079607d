package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/moodhaven/moodhaven/config"
	"github.com/moodhaven/moodhaven/internal/domain/entity"
	repo "github.com/moodhaven/moodhaven/internal/domain/repository"
	"github.com/moodhaven/moodhaven/pkg/helpers"
	"github.com/moodhaven/moodhaven/pkg/mailer"
	"github.com/moodhaven/moodhaven/pkg/mailer/templates"
)

const (
	weeklyCacheTTL  = 60 * time.Second
	streakMilestone = 7 // milestone email every N consecutive days
)

// WellbeingService owns the mood domain: emotion logging, task tracking,
// rewards, streaks, and the log views.
type WellbeingService struct {
	Repo    repo.UserRecordRepository
	Audit   repo.AuditLogRepository
	Redis   *redis.Client
	Logger  *logrus.Logger
	ES      *elasticsearch.Client
	ESIndex string
	Pub     *helpers.RabbitPublisher
	Cfg     *config.Config

	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *WellbeingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func weeklyCacheKey(userID string) string {
	return "wb:weekly:" + userID
}

// RecordEmotionResult is what the client gets back from logging an emotion:
// the updated streak plus the suggested coping tasks for that emotion.
type RecordEmotionResult struct {
	Emotion        entity.Emotion         `json:"emotion"`
	Streak         int                    `json:"streak"`
	StreakAdvanced bool                   `json:"streak_advanced"`
	TasksSeeded    bool                   `json:"tasks_seeded"`
	SuggestedTasks []entity.SuggestedTask `json:"suggested_tasks"`
}

// RecordEmotion appends an emotion entry, advances the streak, seeds the
// pending task set when it is empty, and returns the suggestions for the
// logged emotion.
func (s *WellbeingService) RecordEmotion(ctx context.Context, userID, emotion string) (*RecordEmotionResult, error) {
	e, err := entity.ParseEmotion(emotion)
	if err != nil {
		return nil, ErrEmotionUnknown
	}
	now := s.now()

	entry := entity.EmotionEntry{Timestamp: now.UTC(), Emotion: e}
	if err := s.Repo.AppendEmotion(ctx, userID, entry); err != nil {
		return nil, err
	}

	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak, advanced := AdvanceStreak(u.Streak, u.LastEmotionDate, now)
	if advanced {
		if err := s.Repo.UpdateStreak(ctx, userID, streak, now.UTC()); err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).WithField("user_id", userID).Error("streak update failed")
			}
			return nil, err
		}
		if streak%streakMilestone == 0 {
			s.enqueueEmail(ctx, mailer.EmailJob{
				To:       u.Email,
				Template: templates.Universal,
				Data:     templates.NewStreakMilestoneData(s.Cfg, u.Name, u.Email, streak),
			})
		}
	}

	seeded := false
	if len(u.Tasks) == 0 {
		seeded, err = s.Repo.SeedTasks(ctx, userID, entity.TaskNamesFor(e))
		if err != nil {
			return nil, err
		}
	}

	s.indexEmotion(ctx, userID, entry)
	s.invalidateWeekly(ctx, userID)

	return &RecordEmotionResult{
		Emotion:        e,
		Streak:         streak,
		StreakAdvanced: advanced,
		TasksSeeded:    seeded,
		SuggestedTasks: entity.TasksFor(e),
	}, nil
}

// TasksView lists the user's live task state plus, when an emotion was
// supplied, the catalog suggestions for it.
type TasksView struct {
	Pending     []string               `json:"pending"`
	Completed   []string               `json:"completed"`
	Canceled    []string               `json:"canceled"`
	Suggestions []entity.SuggestedTask `json:"suggestions,omitempty"`
}

// ListTasks returns the pending/completed/canceled sets. When emotion is
// non-empty and the pending set is empty, the catalog tasks for that emotion
// are seeded first.
func (s *WellbeingService) ListTasks(ctx context.Context, userID, emotion string) (*TasksView, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &TasksView{
		Pending:   u.Tasks,
		Completed: u.CompletedTasks,
		Canceled:  u.CanceledTasks,
	}
	if emotion == "" {
		return view, nil
	}
	e, err := entity.ParseEmotion(emotion)
	if err != nil {
		return nil, ErrEmotionUnknown
	}
	view.Suggestions = entity.TasksFor(e)
	if len(u.Tasks) == 0 {
		if seeded, err := s.Repo.SeedTasks(ctx, userID, entity.TaskNamesFor(e)); err != nil {
			return nil, err
		} else if seeded {
			view.Pending = entity.TaskNamesFor(e)
		}
	}
	return view, nil
}

// CompleteTask moves a task to the completed set. Completing a task that is
// already completed is a no-op.
func (s *WellbeingService) CompleteTask(ctx context.Context, userID, task string) error {
	if err := s.Repo.CompleteTask(ctx, userID, task); err != nil {
		return err
	}
	s.invalidateWeekly(ctx, userID)
	return nil
}

// CancelTask removes a task from the pending set and remembers it as
// canceled. Idempotent.
func (s *WellbeingService) CancelTask(ctx context.Context, userID, task string) error {
	if err := s.Repo.CancelTask(ctx, userID, task); err != nil {
		return err
	}
	s.invalidateWeekly(ctx, userID)
	return nil
}

// RewardCatalog returns the fixed list of claimable rewards.
func (s *WellbeingService) RewardCatalog() []string {
	out := make([]string, len(entity.RewardCatalog))
	copy(out, entity.RewardCatalog)
	return out
}

// ClaimReward records a timestamped claim. Repeat claims of the same reward
// stack as separate entries.
func (s *WellbeingService) ClaimReward(ctx context.Context, userID, reward, ip, userAgent string) (*entity.RewardClaim, error) {
	if !entity.IsCatalogReward(reward) {
		return nil, ErrRewardUnknown
	}
	claim := entity.RewardClaim{Reward: reward, ClaimedAt: s.now().UTC()}
	if err := s.Repo.ClaimReward(ctx, userID, claim); err != nil {
		return nil, err
	}
	if s.Audit != nil {
		if err := s.Audit.Insert(ctx, repo.AuditEvent{
			UserID: userID, Action: "reward_claimed", IP: ip, UserAgent: userAgent,
			Metadata: map[string]any{"reward": reward},
		}); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("audit insert failed")
		}
	}
	return &claim, nil
}

// EarnedRewards lists the user's reward claims, newest last.
func (s *WellbeingService) EarnedRewards(ctx context.Context, userID string) ([]entity.RewardClaim, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Rewards == nil {
		return []entity.RewardClaim{}, nil
	}
	return u.Rewards, nil
}

// LogEntry is one emotion occurrence in a log view.
type LogEntry struct {
	Date    string         `json:"date"` // 2006-01-02
	Emotion entity.Emotion `json:"emotion"`
}

// TaskStatus pairs a task name with Completed/Pending for the weekly view.
type TaskStatus struct {
	Task   string `json:"task"`
	Status string `json:"status"`
}

// WeeklyLog is the rolling 7-day view: the emotions logged in the window plus
// every task the user has touched, with its current status.
type WeeklyLog struct {
	Entries []LogEntry   `json:"entries"`
	Tasks   []TaskStatus `json:"tasks"`
}

// WeeklyLogView computes the rolling-week view, cached in Redis for a minute.
func (s *WellbeingService) WeeklyLogView(ctx context.Context, userID string) (*WeeklyLog, error) {
	key := weeklyCacheKey(userID)
	if s.Redis != nil {
		var cached WeeklyLog
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cutoff := now.Add(-7 * 24 * time.Hour)
	log := &WeeklyLog{Entries: []LogEntry{}, Tasks: []TaskStatus{}}
	for _, e := range u.Emotions {
		if !e.Timestamp.Before(cutoff) && !e.Timestamp.After(now) {
			log.Entries = append(log.Entries, LogEntry{
				Date:    e.Timestamp.In(now.Location()).Format("2006-01-02"),
				Emotion: e.Emotion,
			})
		}
	}
	// Task statuses cover the full sets, not just the week's activity.
	for _, t := range u.CompletedTasks {
		log.Tasks = append(log.Tasks, TaskStatus{Task: t, Status: "Completed"})
	}
	for _, t := range u.Tasks {
		log.Tasks = append(log.Tasks, TaskStatus{Task: t, Status: "Pending"})
	}

	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, key, log, weeklyCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("weekly cache set failed")
		}
	}
	return log, nil
}

// MonthlyLog is every emotion logged in one calendar month.
type MonthlyLog struct {
	Month   string     `json:"month"` // 2006-01
	Entries []LogEntry `json:"entries"`
}

// MonthlyLogView filters the history down to one calendar month. month
// accepts "2006-01" or "January 2006"; empty means the current month.
func (s *WellbeingService) MonthlyLogView(ctx context.Context, userID, month string) (*MonthlyLog, error) {
	now := s.now()
	target, err := parseMonth(month, now)
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	log := &MonthlyLog{Month: target.Format("2006-01"), Entries: []LogEntry{}}
	for _, e := range u.Emotions {
		local := e.Timestamp.In(now.Location())
		if local.Year() == target.Year() && local.Month() == target.Month() {
			log.Entries = append(log.Entries, LogEntry{
				Date:    local.Format("2006-01-02"),
				Emotion: e.Emotion,
			})
		}
	}
	return log, nil
}

func parseMonth(month string, now time.Time) (time.Time, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		return now, nil
	}
	for _, layout := range []string{"2006-01", "January 2006"} {
		if t, err := time.ParseInLocation(layout, month, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadMonth
}

// SearchLogs queries the Elasticsearch mood-log index, scoped to the user and
// optionally filtered by emotion and time range.
func (s *WellbeingService) SearchLogs(ctx context.Context, userID, emotion string, from, to time.Time, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	filters := []map[string]any{
		{"term": map[string]any{"user_id": userID}},
	}
	if emotion != "" {
		e, err := entity.ParseEmotion(emotion)
		if err != nil {
			return nil, ErrEmotionUnknown
		}
		filters = append(filters, map[string]any{"term": map[string]any{"emotion": string(e)}})
	}
	if !from.IsZero() || !to.IsZero() {
		rng := map[string]any{}
		if !from.IsZero() {
			rng["gte"] = from.UTC().Format(time.RFC3339Nano)
		}
		if !to.IsZero() {
			rng["lte"] = to.UTC().Format(time.RFC3339Nano)
		}
		filters = append(filters, map[string]any{"range": map[string]any{"timestamp": rng}})
	}

	query := map[string]any{
		"query": map[string]any{"bool": map[string]any{"filter": filters}},
		"sort":  []map[string]any{{"timestamp": map[string]any{"order": "desc"}}},
		"size":  size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

// indexEmotion mirrors an entry into Elasticsearch, best effort.
func (s *WellbeingService) indexEmotion(ctx context.Context, userID string, e entity.EmotionEntry) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"user_id":   userID,
		"emotion":   string(e.Emotion),
		"timestamp": e.Timestamp.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      s.ESIndex,
		DocumentID: userID + ":" + e.Timestamp.UTC().Format(time.RFC3339Nano),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", userID).Warn("es index response error")
	}
}

func (s *WellbeingService) invalidateWeekly(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, weeklyCacheKey(userID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("weekly cache invalidate failed")
	}
}

func (s *WellbeingService) enqueueEmail(ctx context.Context, job mailer.EmailJob) {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("to", job.To).Warn("email enqueue failed")
	}
}
