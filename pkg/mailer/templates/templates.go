package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines standard fields for email templates.
type EmailData struct {
	// Basic info
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	// Company info
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	// URLs
	LogoURL        string `json:"LogoURL"`
	SupportURL     string `json:"SupportURL"`
	PrivacyURL     string `json:"PrivacyURL"`
	UnsubscribeURL string `json:"UnsubscribeURL"`

	// Additional data
	IP        string `json:"IP"`
	Time      string `json:"Time"`
	UserAgent string `json:"UserAgent"`
	Location  string `json:"Location"`
	Streak    int    `json:"Streak"`
	Reward    string `json:"Reward"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		zero := reflect.Zero(rv.Type()).Interface()
		if reflect.DeepEqual(value, zero) {
			return fallback
		}
		return value
	}
}

var htmlFuncMap = htmpl.FuncMap{
	"now":        func() time.Time { return time.Now().UTC() },
	"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
	"upper":      strings.ToUpper,
	"default":    defaultFn,
}

// Universal is the single HTML template; the payload's Type field picks the
// variant rendered inside it.
const Universal = "universal"

// Payload types for the universal template
const (
	Welcome           = "welcome"
	LoginNotification = "login_notification"
	StreakMilestone   = "streak_milestone"
)

// SubjectFor maps a universal template payload to its subject line.
func SubjectFor(data map[string]any) string {
	switch strings.ToLower(fmt.Sprintf("%v", data["Type"])) {
	case Welcome:
		return "Welcome to MoodHaven"
	case LoginNotification:
		return "New login to your account"
	case StreakMilestone:
		return "You're on a streak!"
	default:
		return "Notification"
	}
}

// RenderHTML renders an HTML template: <name>.html.tmpl
func RenderHTML(name string, data any) (string, error) {
	filename := name + ".html.tmpl"
	tpl, err := htmpl.New(filename).Funcs(htmlFuncMap).ParseFS(FS, filename)
	if err != nil {
		return "", fmt.Errorf("parse html %q: %w", filename, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}
