package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

// Sender delivers one encrypted payload and returns the provider's HTTP status.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error)
}

// Keys is a VAPID key pair in base64url form.
type Keys struct {
	Public  string
	Private string
}

// GenerateKeys creates a fresh VAPID key pair.
func GenerateKeys() (Keys, error) {
	private, public, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return Keys{}, fmt.Errorf("generate vapid keys: %w", err)
	}
	return Keys{Public: public, Private: private}, nil
}

// WebPushSender sends through the Web Push protocol with VAPID auth.
type WebPushSender struct {
	keys    Keys
	subject string
	ttl     time.Duration
	client  *http.Client
}

// NewWebPushSender builds a sender. subject is a mailto: or https: contact.
func NewWebPushSender(keys Keys, subject string, ttl time.Duration, client *http.Client) (*WebPushSender, error) {
	if keys.Public == "" || keys.Private == "" {
		return nil, fmt.Errorf("vapid key pair required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPushSender{
		keys:    keys,
		subject: strings.TrimPrefix(strings.TrimSpace(subject), "mailto:"),
		ttl:     ttl,
		client:  client,
	}, nil
}

func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.keys.Public,
		VAPIDPrivateKey: s.keys.Private,
		TTL:             int(s.ttl.Seconds()),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
