package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	resendBaseURL    = "https://api.resend.com"
	defaultEmailFrom = "Best Holiday Plan <noreply@best-travel-plan.cloud>"
)

var ErrEmailNotConfigured = errors.New("email delivery not configured")

type Email struct {
	To      string
	Subject string
	HTML    string
}

// ─── Resend Client ────────────────────────────────────────────────────────────

type ResendClient struct {
	apiKey  string
	from    string
	BaseURL string
	client  *retryingClient
}

func NewResendClient(apiKey, from string) *ResendClient {
	if from == "" {
		from = defaultEmailFrom
	}
	return &ResendClient{
		apiKey:  apiKey,
		from:    from,
		BaseURL: resendBaseURL,
		client:  newRetryingClient(15 * time.Second),
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// Send delivers one message and returns the provider's message id.
func (c *ResendClient) Send(ctx context.Context, e Email) (id string, err error) {
	if c == nil || c.apiKey == "" {
		return "", ErrEmailNotConfigured
	}
	if e.To == "" || e.Subject == "" || e.HTML == "" {
		return "", fmt.Errorf("to, subject and html are required")
	}
	defer timeOp("resend.send")(&err)

	text, err := PlainText(e.HTML)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(resendRequest{
		From:    c.from,
		To:      []string{e.To},
		Subject: e.Subject,
		HTML:    e.HTML,
		Text:    text,
	})
	if err != nil {
		return "", err
	}

	body, err := c.client.doWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("email send failed: %w", err)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse email response: %w", err)
	}
	return result.ID, nil
}

// PlainText renders the readable text of an HTML document, one block per
// line.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("head, style, script").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, h1, h2, h3, h4, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
