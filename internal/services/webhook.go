package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/readyresponse/dispatch/internal/types"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed    = 16711680 // #FF0000 - High severity
	ColorOrange = 16753920 // #FFA500 - Medium severity
	ColorYellow = 16776960 // #FFFF00 - Low severity
	ColorGreen  = 65280    // #00FF00 - Resolved

	WebhookUsername = "ReadyResponse Dispatch"
	footerText      = "ReadyResponse Dispatch"
	timeLayout      = "2006-01-02 15:04:05 UTC"
)

// WebhookNotifier posts incident alerts to chat webhooks. An empty URL
// disables that target.
type WebhookNotifier struct {
	DiscordURL string
	SlackURL   string
	Client     *http.Client
}

func NewWebhookNotifier(discordURL, slackURL string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		DiscordURL: discordURL,
		SlackURL:   slackURL,
		Client:     &http.Client{Timeout: timeout},
	}
}

func (w *WebhookNotifier) Enabled() bool {
	return w != nil && (w.DiscordURL != "" || w.SlackURL != "")
}

func (w *WebhookNotifier) IncidentReported(ctx context.Context, incident types.IncidentView) error {
	if !w.Enabled() {
		return nil
	}

	if w.DiscordURL != "" {
		if err := w.send(ctx, w.DiscordURL, discordIncidentReported(incident)); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if w.SlackURL != "" {
		if err := w.send(ctx, w.SlackURL, slackIncidentReported(incident)); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func (w *WebhookNotifier) IncidentResolved(ctx context.Context, incident types.IncidentView, resolvedBy string, released int) error {
	if !w.Enabled() {
		return nil
	}

	if w.DiscordURL != "" {
		if err := w.send(ctx, w.DiscordURL, discordIncidentResolved(incident, resolvedBy, released)); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if w.SlackURL != "" {
		if err := w.send(ctx, w.SlackURL, slackIncidentResolved(incident, resolvedBy, released)); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func severityColor(severity string) int {
	switch severity {
	case types.SeverityHigh:
		return ColorRed
	case types.SeverityMedium:
		return ColorOrange
	default:
		return ColorYellow
	}
}

func describe(incident types.IncidentView) string {
	if incident.Description == nil || strings.TrimSpace(*incident.Description) == "" {
		return "No description provided."
	}
	return *incident.Description
}

func location(incident types.IncidentView) string {
	if incident.Latitude == nil || incident.Longitude == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%.5f, %.5f", *incident.Latitude, *incident.Longitude)
}

func discordIncidentReported(incident types.IncidentView) DiscordWebhookRequest {
	return DiscordWebhookRequest{
		Username: WebhookUsername,
		Embeds: []DiscordEmbed{
			{
				Title:       "🚨 **INCIDENT REPORTED**",
				Description: fmt.Sprintf("**%s** incident #%d reported by %s.", incident.Category, incident.ID, incident.ReporterName),
				Color:       severityColor(incident.Severity),
				Fields: []DiscordWebhookField{
					{Name: "Category", Value: incident.Category, Inline: true},
					{Name: "Severity", Value: "**" + incident.Severity + "**", Inline: true},
					{Name: "Status", Value: incident.Status, Inline: true},
					{Name: "Location", Value: location(incident), Inline: false},
					{Name: "Description", Value: describe(incident), Inline: false},
					{Name: "Reported At", Value: incident.CreatedAt.UTC().Format(timeLayout), Inline: true},
				},
				Footer:    &DiscordFooter{Text: footerText},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
}

func discordIncidentResolved(incident types.IncidentView, resolvedBy string, released int) DiscordWebhookRequest {
	return DiscordWebhookRequest{
		Username: WebhookUsername,
		Embeds: []DiscordEmbed{
			{
				Title:       "✅ **INCIDENT RESOLVED**",
				Description: fmt.Sprintf("**%s** incident #%d was resolved by %s.", incident.Category, incident.ID, resolvedBy),
				Color:       ColorGreen,
				Fields: []DiscordWebhookField{
					{Name: "Category", Value: incident.Category, Inline: true},
					{Name: "Severity", Value: incident.Severity, Inline: true},
					{Name: "Resources Released", Value: fmt.Sprintf("%d", released), Inline: true},
					{Name: "Open For", Value: time.Since(incident.CreatedAt).Round(time.Second).String(), Inline: true},
				},
				Footer:    &DiscordFooter{Text: footerText},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
}

func slackIncidentReported(incident types.IncidentView) SlackWebhookRequest {
	return SlackWebhookRequest{
		Username:  WebhookUsername,
		IconEmoji: ":rotating_light:",
		Text:      ":rotating_light: *INCIDENT REPORTED*",
		Attachments: []SlackAttachment{
			{
				Color: "danger",
				Title: fmt.Sprintf("%s incident #%d (%s)", incident.Category, incident.ID, incident.Severity),
				Text:  describe(incident),
				Fields: []SlackField{
					{Title: "Reported By", Value: incident.ReporterName, Short: true},
					{Title: "Status", Value: incident.Status, Short: true},
					{Title: "Location", Value: location(incident), Short: false},
				},
				Footer:    footerText,
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func slackIncidentResolved(incident types.IncidentView, resolvedBy string, released int) SlackWebhookRequest {
	return SlackWebhookRequest{
		Username:  WebhookUsername,
		IconEmoji: ":white_check_mark:",
		Text:      ":white_check_mark: *INCIDENT RESOLVED*",
		Attachments: []SlackAttachment{
			{
				Color: "good",
				Title: fmt.Sprintf("%s incident #%d resolved", incident.Category, incident.ID),
				Text:  fmt.Sprintf("Resolved by %s.", resolvedBy),
				Fields: []SlackField{
					{Title: "Severity", Value: incident.Severity, Short: true},
					{Title: "Resources Released", Value: fmt.Sprintf("%d", released), Short: true},
				},
				Footer:    footerText,
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func (w *WebhookNotifier) send(ctx context.Context, webhookURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
