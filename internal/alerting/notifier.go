package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"resty.dev/v3"
)

// Embed colors, Discord 约定: 绿色=高于阈值, 红色=错误.
const (
	colorAbove = 0x00FF00
	colorBelow = 0xFF6B6B
	colorError = 0xFF0000
	colorInfo  = 0x3498DB
)

const footerText = "Exchange Rate Monitor"

// Notifier 定义告警输送接口。Delivery is best-effort: implementations report
// success as a boolean and never propagate transport errors.
type Notifier interface {
	SendRateAlert(ctx context.Context, rate, threshold decimal.Decimal, isAbove bool, sourceURL string) bool
	SendError(ctx context.Context, message string) bool
	SendTest(ctx context.Context) bool
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Color       int         `json:"color"`
	Timestamp   string      `json:"timestamp"`
	Footer      embedFooter `json:"footer"`
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

// DiscordNotifier 通过 Discord webhook 推送消息。
type DiscordNotifier struct {
	webhookURL string
	username   string
	client     *resty.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDiscordNotifier constructs a webhook notifier. One POST per message, no
// retry: a failed alert must never block or crash the monitoring run.
func NewDiscordNotifier(webhookURL, username string, timeout time.Duration, logger zerolog.Logger) *DiscordNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if username == "" {
		username = "EUR/ARS Monitor"
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &DiscordNotifier{
		webhookURL: webhookURL,
		username:   username,
		client:     client,
		logger:     logger.With().Str("component", "alert_discord").Logger(),
		now:        time.Now,
	}
}

// SendRateAlert reports the observed rate against the threshold it was
// compared to. Rates are always displayed with two decimal places; the
// source URL, when present, rides along as a reference link.
func (n *DiscordNotifier) SendRateAlert(ctx context.Context, rate, threshold decimal.Decimal, isAbove bool, sourceURL string) bool {
	direction := "Below"
	emoji := "\U0001F4C9"
	color := colorBelow
	if isAbove {
		direction = "Above"
		emoji = "\U0001F4C8"
		color = colorAbove
	}

	message := fmt.Sprintf(
		"%s **Exchange rate is %s threshold!**\n\n**Current Rate:** %s ARS per EUR\n**Threshold:** %s ARS per EUR",
		emoji, direction, rate.StringFixed(2), threshold.StringFixed(2),
	)
	if sourceURL != "" {
		message += fmt.Sprintf("\n\n[View on Western Union](%s)", sourceURL)
	}

	title := fmt.Sprintf("EUR/ARS Rate Alert - %s Threshold", direction)
	return n.send(ctx, title, message, color)
}

// SendError reports a failed monitoring run.
func (n *DiscordNotifier) SendError(ctx context.Context, message string) bool {
	body := fmt.Sprintf("❌ **Error occurred:**\n\n%s", message)
	return n.send(ctx, "Exchange Rate Monitor Error", body, colorError)
}

// SendTest verifies the webhook end to end.
func (n *DiscordNotifier) SendTest(ctx context.Context) bool {
	body := "\U0001F9EA Test notification from Exchange Rate Monitor\n\nIf you see this, notifications are working!"
	return n.send(ctx, "Test Notification", body, colorInfo)
}

func (n *DiscordNotifier) send(ctx context.Context, title, message string, color int) bool {
	payload := webhookPayload{
		Username: n.username,
		Embeds: []embed{{
			Title:       title,
			Description: message,
			Color:       color,
			Timestamp:   n.now().UTC().Format(time.RFC3339),
			Footer:      embedFooter{Text: footerText},
		}},
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.webhookURL)
	if err != nil {
		n.logger.Error().Err(err).Str("title", title).Msg("failed to send discord notification")
		return false
	}
	if !resp.IsSuccess() {
		n.logger.Error().Int("status", resp.StatusCode()).Str("title", title).Msg("discord 响应码异常")
		return false
	}

	n.logger.Info().Str("title", title).Msg("discord notification sent")
	return true
}

var _ Notifier = (*DiscordNotifier)(nil)
