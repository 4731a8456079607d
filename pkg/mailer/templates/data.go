package templates

import (
	"context"
	"strings"
	"time"

	"github.com/moodhaven/moodhaven/config"
)

// Option mutates EmailData before it is mapped into a job payload.
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		d.Time = t.UTC().Format("02 January 2006, 15:04")
	}
}

func setLocation(d *EmailData, loc string) {
	if s := strings.TrimSpace(loc); s != "" {
		d.Location = s
	}
}

func WithLocation(loc string) Option {
	return func(d *EmailData) { setLocation(d, loc) }
}

func WithGeoFromIP(ctx context.Context, r GeoResolver, ip string) Option {
	return func(d *EmailData) {
		if r == nil || strings.TrimSpace(ip) == "" {
			return
		}
		if g, err := r.Lookup(ctx, ip); err == nil {
			setLocation(d, FormatGeo(g))
		}
	}
}

// NewBaseEmailData fills the shared fields from config, then applies options.
func NewBaseEmailData(cfg *config.Config, typ string, name, email, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, Welcome, name, email, email, opts...)
	return ToMap(d)
}

func NewLoginNotificationData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, LoginNotification, name, email, email, opts...)
	return ToMap(d)
}

func NewStreakMilestoneData(cfg *config.Config, name, email string, streak int, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, StreakMilestone, name, email, email, opts...)
	d.Streak = streak
	return ToMap(d)
}
