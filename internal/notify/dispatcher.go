// Package notify records user notifications and forwards them to the
// delivery webhook
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/repository"
	"github.com/skillswap/skillswap-api/pkg/circuitbreaker"
	"github.com/skillswap/skillswap-api/pkg/httpclient"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"github.com/skillswap/skillswap-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const deliveryTimeout = 30 * time.Second

// webhookPayload is the body POSTed to the delivery webhook
type webhookPayload struct {
	ID         string                  `json:"id"`
	UserID     string                  `json:"userId"`
	Type       models.NotificationType `json:"type"`
	Message    string                  `json:"message"`
	ExchangeID *string                 `json:"exchangeId,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// Dispatcher persists notifications and pushes them to an optional webhook.
// Notify never blocks the caller.
type Dispatcher struct {
	store      repository.NotificationStore
	webhookURL string
	httpClient httpclient.Client
	breaker    *gobreaker.CircuitBreaker
	retry      retry.Config
	wg         sync.WaitGroup
}

// NewDispatcher creates a dispatcher. An empty webhookURL disables forwarding.
func NewDispatcher(store repository.NotificationStore, webhookURL string, httpClient httpclient.Client) *Dispatcher {
	return &Dispatcher{
		store:      store,
		webhookURL: webhookURL,
		httpClient: httpClient,
		breaker:    circuitbreaker.New(circuitbreaker.DefaultConfig("notify-webhook")),
		retry:      retry.WebhookConfig(),
	}
}

// Notify records and forwards a notification in the background
func (d *Dispatcher) Notify(ctx context.Context, userID string, typ models.NotificationType, message string, exchangeID *string) {
	n := &models.Notification{
		UserID:     userID,
		Type:       typ,
		Message:    message,
		ExchangeID: exchangeID,
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// the request that triggered us may already be finished
		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
		defer cancel()

		if err := d.deliver(deliverCtx, n); err != nil {
			metrics.SideEffectFailures.WithLabelValues("notification").Inc()
			logger.Error("Failed to dispatch notification",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("type", string(typ)))
		}
	}()
}

// Wait blocks until all in-flight notifications are handled
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, n *models.Notification) error {
	if err := d.store.CreateNotification(ctx, n); err != nil {
		metrics.NotificationsDispatched.WithLabelValues(string(n.Type), "store_error").Inc()
		return err
	}

	if d.webhookURL == "" {
		metrics.NotificationsDispatched.WithLabelValues(string(n.Type), "stored").Inc()
		return nil
	}

	_, err := circuitbreaker.Execute(d.breaker, func() (struct{}, error) {
		return struct{}{}, retry.Do(ctx, d.retry, "notify.webhook", func() error {
			return d.post(ctx, n)
		})
	})
	if err != nil {
		outcome := "webhook_error"
		if circuitbreaker.IsOpen(err) {
			outcome = "breaker_open"
		}
		metrics.NotificationsDispatched.WithLabelValues(string(n.Type), outcome).Inc()
		return fmt.Errorf("notification %s stored but not forwarded: %w", n.ID, err)
	}

	metrics.NotificationsDispatched.WithLabelValues(string(n.Type), "delivered").Inc()
	logger.Debug("Notification delivered",
		zap.String("notification_id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)))
	return nil
}

func (d *Dispatcher) post(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(webhookPayload{
		ID:         n.ID,
		UserID:     n.UserID,
		Type:       n.Type,
		Message:    n.Message,
		ExchangeID: n.ExchangeID,
		CreatedAt:  n.CreatedAt,
	})
	if err != nil {
		return retry.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	default:
		return retry.Permanent(fmt.Errorf("webhook rejected notification with status %d", resp.StatusCode))
	}
}
