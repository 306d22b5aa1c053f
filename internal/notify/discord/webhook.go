// Package discord announces finished runs through a Discord webhook.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// maxContent is Discord's message length limit.
const maxContent = 2000

// Config describes the webhook and the identity it posts as.
type Config struct {
	WebhookURL string
	Username   string
	AvatarURL  string
}

// executor is the slice of *discordgo.Session the notifier needs.
type executor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts run summaries to a webhook.
type Notifier struct {
	session   executor
	webhookID string
	token     string
	cfg       Config
}

// New parses the webhook URL and opens a token-less session; webhook
// execution authenticates through the URL token.
func New(cfg Config) (*Notifier, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return newWithExecutor(cfg, session)
}

func newWithExecutor(cfg Config, session executor) (*Notifier, error) {
	id, token, err := ParseWebhookURL(cfg.WebhookURL)
	if err != nil {
		return nil, err
	}
	return &Notifier{session: session, webhookID: id, token: token, cfg: cfg}, nil
}

// webhookHosts are the hosts discordgo sends webhook requests to. A URL on any
// other host would be posted to discord.com regardless, so it is rejected.
var webhookHosts = map[string]bool{
	"discord.com":        true,
	"discordapp.com":     true,
	"ptb.discord.com":    true,
	"canary.discord.com": true,
}

// ParseWebhookURL extracts the webhook ID and token from
// https://discord.com/api[/vN]/webhooks/<id>/<token>.
func ParseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", "", fmt.Errorf("webhook url must be http(s), got %q", raw)
	}
	if !webhookHosts[strings.ToLower(u.Hostname())] {
		return "", "", fmt.Errorf("webhook url host %q is not a discord host", u.Hostname())
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p != "webhooks" || i+2 >= len(parts) {
			continue
		}
		id, token := parts[i+1], parts[i+2]
		if id != "" && token != "" {
			return id, token, nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q has no /webhooks/<id>/<token> segment", raw)
}

// Notify sends content to the webhook. Content longer than Discord accepts is
// truncated.
func (n *Notifier) Notify(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("discord message content is required")
	}
	if r := []rune(content); len(r) > maxContent {
		content = string(r[:maxContent-1]) + "…"
	}
	params := &discordgo.WebhookParams{
		Content:   content,
		Username:  n.cfg.Username,
		AvatarURL: n.cfg.AvatarURL,
	}
	if _, err := n.session.WebhookExecute(n.webhookID, n.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}
