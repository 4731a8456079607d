package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/moodhaven/moodhaven/config"
	"github.com/moodhaven/moodhaven/internal/domain/entity"
	repo "github.com/moodhaven/moodhaven/internal/domain/repository"
	"github.com/moodhaven/moodhaven/pkg/helpers"
	"github.com/moodhaven/moodhaven/pkg/mailer"
	"github.com/moodhaven/moodhaven/pkg/mailer/templates"
)

// AccountService owns identity: sign-up, login, token refresh, logout, and
// the profile surface (name, avatar).
type AccountService struct {
	Repo      repo.UserRecordRepository
	Audit     repo.AuditLogRepository
	JWT       *helpers.JWTManager
	GCS       *storage.Client
	GCSBucket string
	Redis     *redis.Client
	Logger    *logrus.Logger
	Pub       *helpers.RabbitPublisher
	Cfg       *config.Config
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// ProfileResponse is the outward shape of a user record; it never carries the
// password hash.
type ProfileResponse struct {
	UserID          string     `json:"user_id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	Streak          int        `json:"streak"`
	LastEmotionDate *time.Time `json:"last_emotion_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func profileOf(u *entity.UserRecord) *ProfileResponse {
	return &ProfileResponse{
		UserID:          u.ID,
		Email:           u.Email,
		Name:            u.Name,
		AvatarURL:       u.AvatarURL,
		Streak:          u.Streak,
		LastEmotionDate: u.LastEmotionDate,
		CreatedAt:       u.CreatedAt,
	}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type SignUpInput struct {
	Email     string
	Password  string
	Name      string
	IP        string
	UserAgent string
}

// SignUp creates the per-user record and logs the new user in immediately.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (*ProfileResponse, TokenPair, error) {
	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, TokenPair{}, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, TokenPair{}, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.UserRecord{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: hash,
		Name:     in.Name,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.audit(ctx, repo.AuditEvent{UserID: u.ID, Email: u.Email, Action: "signup", IP: in.IP, UserAgent: in.UserAgent})
	s.enqueueEmail(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: templates.Universal,
		Data:     templates.NewWelcomeData(s.Cfg, u.Name, u.Email),
	})

	return profileOf(u), pair, nil
}

// Authenticate validates email/password and returns the record without
// issuing tokens.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*entity.UserRecord, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AccountService) IssueTokens(ctx context.Context, u *entity.UserRecord) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"avatar_url": u.AvatarURL,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AccountService) Login(ctx context.Context, email, password, ip, userAgent string) (*ProfileResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		s.audit(ctx, repo.AuditEvent{Email: email, Action: "login_failed", IP: ip, UserAgent: userAgent})
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.audit(ctx, repo.AuditEvent{UserID: u.ID, Email: u.Email, Action: "login", IP: ip, UserAgent: userAgent})
	// Location is resolved from IP by the email worker; no lookups here.
	s.enqueueEmail(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: templates.Universal,
		Data: templates.NewLoginNotificationData(s.Cfg, u.Name, u.Email,
			templates.WithIP(ip),
			templates.WithUserAgent(userAgent),
			templates.WithTime(time.Now()),
		),
	})

	return profileOf(u), pair, nil
}

func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	// The token's sid must still match the live session.
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	// Rotate session id and tokens.
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		_, _ = pipe.Exec(ctx)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

func (s *AccountService) Logout(ctx context.Context, userID, ip, userAgent string) error {
	if s.Redis != nil {
		if err := helpers.RedisDel(ctx, s.Redis, sessionKey(userID)); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
		}
	}
	s.audit(ctx, repo.AuditEvent{UserID: userID, Action: "logout", IP: ip, UserAgent: userAgent})
	return nil
}

// GetProfile returns the record for userID. If the row is gone but the Redis
// session still knows who the user is, the record is recreated so a profile
// view never 404s for a live session.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*ProfileResponse, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		u, err = s.recreateFromSession(ctx, userID)
	}
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return profileOf(u), nil
}

func (s *AccountService) recreateFromSession(ctx context.Context, userID string) (*entity.UserRecord, error) {
	if s.Redis == nil {
		return nil, ErrUserNotFound
	}
	data, err := s.Redis.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil || data["email"] == "" {
		return nil, ErrUserNotFound
	}
	u := &entity.UserRecord{Email: data["email"], Name: data["name"]}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Warn("user record recreated from session")
	}
	return u, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID, name string) (*ProfileResponse, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if name != "" {
		u.Name = name
	}
	if err := s.Repo.UpdateProfile(ctx, u.ID, u.Name, u.AvatarURL); err != nil {
		return nil, err
	}
	s.refreshSessionMeta(ctx, u)
	return profileOf(u), nil
}

// UploadAvatar stores the image in GCS and points the profile at it.
func (s *AccountService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "", ErrUserNotFound
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.Repo.UpdateProfile(ctx, u.ID, u.Name, u.AvatarURL); err != nil {
		return "", err
	}
	s.refreshSessionMeta(ctx, u)
	return url, nil
}

func (s *AccountService) refreshSessionMeta(ctx context.Context, u *entity.UserRecord) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"updated_at": nowRFC3339(),
	})
	if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
		s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
	}
}

func (s *AccountService) audit(ctx context.Context, e repo.AuditEvent) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Insert(ctx, e); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("action", e.Action).Warn("audit insert failed")
	}
}

func (s *AccountService) enqueueEmail(ctx context.Context, job mailer.EmailJob) {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("to", job.To).Warn("email enqueue failed")
	}
}
