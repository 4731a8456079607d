package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodhaven/moodhaven/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:     "MoodHaven",
		CompanyName: "MoodHaven",
	}
}

func TestRenderUniversalWelcome(t *testing.T) {
	data := NewWelcomeData(testConfig(), "Ana", "ana@example.com")
	html, err := RenderHTML(Universal, data)
	require.NoError(t, err)
	assert.Contains(t, html, "Welcome, Ana")
}

func TestRenderUniversalLoginNotification(t *testing.T) {
	data := NewLoginNotificationData(testConfig(), "Ana", "ana@example.com",
		WithIP("203.0.113.7"),
		WithUserAgent("TestAgent/1.0"),
		WithLocation("Oslo, Norway"),
	)
	html, err := RenderHTML(Universal, data)
	require.NoError(t, err)
	assert.Contains(t, html, "New login to your account")
	assert.Contains(t, html, "203.0.113.7")
	assert.Contains(t, html, "Oslo, Norway")
}

func TestRenderUniversalStreakMilestone(t *testing.T) {
	data := NewStreakMilestoneData(testConfig(), "Ana", "ana@example.com", 14)
	html, err := RenderHTML(Universal, data)
	require.NoError(t, err)
	assert.Contains(t, html, "14 days in a row")
}

func TestRenderUniversalFallbackType(t *testing.T) {
	data := NewBaseEmailData(testConfig(), "something_else", "Ana", "ana@example.com", "ana@example.com")
	html, err := RenderHTML(Universal, ToMap(data))
	require.NoError(t, err)
	assert.Contains(t, html, "Notification")
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "Welcome to MoodHaven", SubjectFor(map[string]any{"Type": Welcome}))
	assert.Equal(t, "New login to your account", SubjectFor(map[string]any{"Type": LoginNotification}))
	assert.Equal(t, "You're on a streak!", SubjectFor(map[string]any{"Type": StreakMilestone}))
	assert.Equal(t, "Notification", SubjectFor(map[string]any{}))
}

func TestFormatGeo(t *testing.T) {
	assert.Equal(t, "Oslo, Oslo County, Norway", FormatGeo(Geo{City: "Oslo", Region: "Oslo County", Country: "Norway"}))
	assert.Equal(t, "Norway", FormatGeo(Geo{Country: "Norway"}))
	assert.Equal(t, "", FormatGeo(Geo{}))
}
