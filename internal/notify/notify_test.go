package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/qadetector/internal/model"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, embed)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func intp(v int) *int { return &v }

func sampleScan() *model.Scan {
	return &model.Scan{
		ID:                 "scan-1",
		PageURL:            "https://example.com/pricing",
		CompletedAt:        time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		TriggeredBy:        model.TriggerManual,
		UserEmail:          "qa@corp.example",
		OverallScore:       45,
		AccessibilityScore: intp(40),
		SpellingScore:      intp(50),
		Issues:             make([]model.Issue, 7),
	}
}

func TestShouldNotify(t *testing.T) {
	t.Parallel()

	on := &model.Project{Settings: model.DefaultSettings()}
	off := &model.Project{Settings: model.Settings{Accessibility: true}}
	scan := sampleScan()

	assert.True(t, ShouldNotify(on, scan, 70))
	assert.False(t, ShouldNotify(on, scan, 45), "threshold is exclusive")
	assert.False(t, ShouldNotify(off, scan, 70))
	assert.False(t, ShouldNotify(nil, scan, 70))
	assert.False(t, ShouldNotify(on, nil, 70))
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	e := Embed(&model.Project{Name: "Marketing"}, sampleScan())
	assert.Equal(t, "Low QA score: Marketing", e.Title)
	assert.Equal(t, 0x8B0000, e.Color)
	assert.Equal(t, "2026-05-01T12:00:00Z", e.Timestamp)
	assert.Contains(t, e.Description, "45/100")

	values := map[string]string{}
	for _, f := range e.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "40", values["Accessibility"])
	assert.Equal(t, "disabled", values["HTML validation"])
	assert.Equal(t, "7", values["Issues"])
	assert.Equal(t, "manual (qa@corp.example)", values["Triggered by"])
}

func TestScoreColor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0x8B0000, scoreColor(10))
	assert.Equal(t, 0xFF8C00, scoreColor(65))
	assert.Equal(t, 0xFFD700, scoreColor(80))
	assert.Equal(t, 0x2E8B57, scoreColor(95))
}

func TestDiscordNotifier_Send(t *testing.T) {
	t.Parallel()

	sender := &mockSender{}
	sender.On("ChannelMessageSendEmbed", "chan-1", mock.MatchedBy(func(e *discordgo.MessageEmbed) bool {
		return e.URL == "https://example.com/pricing"
	})).Return(&discordgo.Message{ID: "m1"}, nil).Once()

	n := newDiscordNotifier(nil, sender, "chan-1", nil)
	require.NoError(t, n.NotifyLowScore(context.Background(), &model.Project{Name: "x"}, sampleScan()))
	sender.AssertExpectations(t)
	assert.NoError(t, n.Close())
}

func TestDiscordNotifier_SendError(t *testing.T) {
	t.Parallel()

	sender := &mockSender{}
	sender.On("ChannelMessageSendEmbed", "chan-1", mock.Anything).Return(nil, errors.New("rate limited"))

	n := newDiscordNotifier(nil, sender, "chan-1", nil)
	err := n.NotifyLowScore(context.Background(), nil, sampleScan())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestNewDiscordNotifier_RequiresCredentials(t *testing.T) {
	t.Parallel()
	_, err := NewDiscordNotifier(Config{DiscordToken: "x"}, nil)
	assert.Error(t, err)
}
