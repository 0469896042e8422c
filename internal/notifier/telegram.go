// Package notifier forwards dashboard errors to a Telegram chat.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// DefaultCooldown is how long an identical message is held back after
	// it was sent.
	DefaultCooldown = time.Minute
)

var (
	ErrNotConfigured = errors.New("telegram not configured")
	ErrSuppressed    = errors.New("telegram message suppressed")
)

type Telegram struct {
	Token    string
	ChatID   string
	Prefix   string
	APIBase  string
	Cooldown time.Duration
	HTTP     *http.Client

	now func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		Token:    token,
		ChatID:   chatID,
		Prefix:   "servodash",
		APIBase:  defaultAPIBase,
		Cooldown: DefaultCooldown,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		sent:     map[string]time.Time{},
	}
}

func (t *Telegram) Enabled() bool {
	return t != nil && t.Token != "" && t.ChatID != ""
}

// Send posts msg to the chat. A message equal to one sent less than
// Cooldown ago returns ErrSuppressed without a request.
func (t *Telegram) Send(ctx context.Context, msg string) error {
	if !t.Enabled() {
		return ErrNotConfigured
	}
	if !t.reserve(msg) {
		return ErrSuppressed
	}
	if err := t.post(ctx, msg); err != nil {
		t.release(msg)
		return err
	}
	return nil
}

func (t *Telegram) reserve(msg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for m, at := range t.sent {
		if now.Sub(at) >= t.Cooldown {
			delete(t.sent, m)
		}
	}
	if _, ok := t.sent[msg]; ok {
		return false
	}
	t.sent[msg] = now
	return true
}

// release forgets a failed send so the next attempt goes out.
func (t *Telegram) release(msg string) {
	t.mu.Lock()
	delete(t.sent, msg)
	t.mu.Unlock()
}

func (t *Telegram) post(ctx context.Context, msg string) error {
	text := msg
	if t.Prefix != "" {
		text = fmt.Sprintf("[%s] %s", t.Prefix, msg)
	}
	b, err := json.Marshal(map[string]any{"chat_id": t.ChatID, "text": text, "disable_web_page_preview": true})
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.APIBase, "/"), t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := t.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("telegram: HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}
