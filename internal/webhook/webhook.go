package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/utils"
)

const (
	requestTimeout   = 10 * time.Second
	responsePreview  = 200
	defaultActionFmt = "/escalations?requester=%s"
)

// escalationPayload is the wire shape posted to the configured channel.
type escalationPayload struct {
	Requester  string    `json:"requester"`
	Category   string    `json:"category"`
	Query      string    `json:"query"`
	Response   string    `json:"response_preview"`
	ActionLink string    `json:"action_link"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client posts escalation events to a single configured webhook URL. An empty
// URL disables delivery entirely; callers do not need to special-case it.
type Client struct {
	url        string
	actionBase string
	http       *http.Client
	log        *logrus.Entry
}

// New builds a client. url may be empty; actionBase is the UI origin the
// action link points at (empty gives a relative link).
func New(webhookURL, actionBase string, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		url:        webhookURL,
		actionBase: actionBase,
		http:       &http.Client{Timeout: requestTimeout},
		log:        log.WithField("component", "webhook"),
	}
}

// Enabled reports whether a destination is configured.
func (c *Client) Enabled() bool { return c.url != "" }

// NotifyEscalation posts one event. With no URL configured it is a silent
// no-op so the coordinator can call it unconditionally.
func (c *Client) NotifyEscalation(ctx context.Context, ev models.EscalationEvent, response string) error {
	const op = "webhook.Client.NotifyEscalation"

	if !c.Enabled() {
		return nil
	}

	payload := escalationPayload{
		Requester:  ev.Requester,
		Category:   ev.Category,
		Query:      ev.Query,
		Response:   truncate(response, responsePreview),
		ActionLink: c.actionBase + fmt.Sprintf(defaultActionFmt, url.QueryEscape(ev.Requester)),
		Timestamp:  ev.Timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode escalation payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to build webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return utils.E(utils.CodeUpstream, op, "webhook delivery failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return utils.E(utils.CodeUpstream, op, fmt.Sprintf("webhook endpoint returned %d", resp.StatusCode), nil)
	}

	c.log.WithFields(logrus.Fields{
		"requester": ev.Requester,
		"category":  ev.Category,
	}).Info("escalation delivered")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
