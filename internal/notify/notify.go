// Package notify tells a team channel about scans that scored poorly.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
)

type Config struct {
	DiscordToken     string `mapstructure:"discord_token"`
	DiscordChannelID string `mapstructure:"discord_channel_id"`
	// ScoreThreshold: scans with an overall score strictly below it notify.
	ScoreThreshold int `mapstructure:"score_threshold"`
}

func DefaultConfig() Config {
	return Config{ScoreThreshold: 70}
}

// Enabled reports whether Discord credentials are configured.
func (c Config) Enabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// Notifier delivers low-score alerts.
type Notifier interface {
	NotifyLowScore(ctx context.Context, project *model.Project, scan *model.Scan) error
	Close() error
}

// ShouldNotify reports whether a finished scan warrants an alert.
func ShouldNotify(project *model.Project, scan *model.Scan, threshold int) bool {
	if project == nil || scan == nil || !project.Settings.Notifications {
		return false
	}
	return scan.OverallScore < threshold
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyLowScore(context.Context, *model.Project, *model.Scan) error { return nil }
func (Nop) Close() error                                                      { return nil }

// embedSender is the part of *discordgo.Session the notifier uses.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts an embed to a channel through the Discord REST API.
type DiscordNotifier struct {
	session   *discordgo.Session
	sender    embedSender
	channelID string
	logger    logging.Logger
}

// NewDiscordNotifier creates a bot session. No gateway connection is opened;
// only REST calls are made.
func NewDiscordNotifier(cfg Config, logger logging.Logger) (*DiscordNotifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("discord token and channel id are required")
	}
	sg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return newDiscordNotifier(sg, sg, cfg.DiscordChannelID, logger), nil
}

func newDiscordNotifier(session *discordgo.Session, sender embedSender, channelID string, logger logging.Logger) *DiscordNotifier {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &DiscordNotifier{
		session:   session,
		sender:    sender,
		channelID: channelID,
		logger:    logger.With(logging.Component("notify")),
	}
}

func scoreColor(score int) int {
	switch {
	case score < 50:
		return 0x8B0000
	case score < 70:
		return 0xFF8C00
	case score < 90:
		return 0xFFD700
	default:
		return 0x2E8B57
	}
}

func scoreField(v *int) string {
	if v == nil {
		return "disabled"
	}
	return strconv.Itoa(*v)
}

// Embed renders the alert for a scan.
func Embed(project *model.Project, scan *model.Scan) *discordgo.MessageEmbed {
	ts := scan.CompletedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	title := "Low QA score"
	if project != nil && project.Name != "" {
		title += ": " + project.Name
	}
	trigger := string(scan.TriggeredBy)
	if scan.UserEmail != "" {
		trigger += " (" + scan.UserEmail + ")"
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		URL:         scan.PageURL,
		Description: fmt.Sprintf("%s scored %d/100", scan.PageURL, scan.OverallScore),
		Color:       scoreColor(scan.OverallScore),
		Timestamp:   ts.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Accessibility", Value: scoreField(scan.AccessibilityScore), Inline: true},
			{Name: "Spelling", Value: scoreField(scan.SpellingScore), Inline: true},
			{Name: "HTML validation", Value: scoreField(scan.HTMLValidationScore), Inline: true},
			{Name: "Issues", Value: strconv.Itoa(len(scan.Issues)), Inline: true},
			{Name: "Triggered by", Value: trigger, Inline: true},
			{Name: "Scan", Value: scan.ID, Inline: false},
		},
	}
}

func (d *DiscordNotifier) NotifyLowScore(ctx context.Context, project *model.Project, scan *model.Scan) error {
	if scan == nil {
		return fmt.Errorf("nil scan")
	}
	_, err := d.sender.ChannelMessageSendEmbed(d.channelID, Embed(project, scan), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send discord embed: %w", err)
	}
	d.logger.Info("low score notification sent",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "score", Value: scan.OverallScore})
	return nil
}

func (d *DiscordNotifier) Close() error {
	if d.session != nil {
		return d.session.Close()
	}
	return nil
}
