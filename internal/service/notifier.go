package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// Notifier сообщает администратору о новых записях и сообщениях.
type Notifier interface {
	NotifyNewRecord(ctx context.Context, record *entity.TestRecord) error
	NotifyNewMessage(ctx context.Context, message *entity.Message) error
}

// NoopNotifier используется, когда уведомления не настроены.
type NoopNotifier struct{}

func (n *NoopNotifier) NotifyNewRecord(ctx context.Context, record *entity.TestRecord) error {
	return nil
}

func (n *NoopNotifier) NotifyNewMessage(ctx context.Context, message *entity.Message) error {
	return nil
}

// ResendNotifier отправляет уведомления через Resend REST API.
type ResendNotifier struct {
	from   string
	to     []string
	client *resend.Client
}

func NewResendNotifier(apiKey, from, notifyTo string) (*ResendNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	var to []string
	for _, addr := range strings.Split(notifyTo, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("notify-to address is required")
	}
	return &ResendNotifier{
		from:   from,
		to:     to,
		client: resend.NewClient(apiKey),
	}, nil
}

func (n *ResendNotifier) NotifyNewRecord(ctx context.Context, record *entity.TestRecord) error {
	subject := fmt.Sprintf("New %s test from %s", record.TestType, record.Nickname)
	text := fmt.Sprintf("%s completed the %s test (%d ratings) at %s.",
		record.Nickname, record.TestType, len(record.Ratings), record.CreatedAt.Format(time.RFC3339))
	return n.send(ctx, subject, text, fmt.Sprintf("record-%d", record.ID))
}

func (n *ResendNotifier) NotifyNewMessage(ctx context.Context, message *entity.Message) error {
	subject := fmt.Sprintf("New message from %s", message.Nickname)
	return n.send(ctx, subject, message.Content, fmt.Sprintf("message-%d", message.ID))
}

func (n *ResendNotifier) send(ctx context.Context, subject, text, idempotencyKey string) error {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: subject,
		Text:    text,
		Html:    "<p>" + html.EscapeString(text) + "</p>",
	}
	options := &resend.SendEmailOptions{IdempotencyKey: idempotencyKey}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := n.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}

// notifyTimeout ограничивает фоновую отправку уведомления
const notifyTimeout = 15 * time.Second

// runAsync запускает fn в отдельной горутине (подменяется в тестах)
func runAsync(fn func()) {
	go fn()
}

// notifyInBackground отправляет уведомление вне запроса, ошибки только логируются
func notifyInBackground(async func(func()), component string, send func(ctx context.Context) error) {
	async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			log.Printf("[%s] Ошибка отправки уведомления: %v", component, err)
		}
	})
}
