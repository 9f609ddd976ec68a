package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/logging"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

const thresholdEvent = "activity_log_threshold_reached"

// WebhookNotifier posts threshold notifications as JSON to a URL.
type WebhookNotifier struct {
	client     *http.Client
	url        string
	authToken  string
	authHeader string
	dashboard  string
	log        zerolog.Logger
}

// NewWebhookNotifier creates a notifier. authHeader defaults to Authorization, which sends the
// token as a bearer token; any other header carries the raw token.
func NewWebhookNotifier(url, authToken, authHeader, dashboardURL string) *WebhookNotifier {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		authHeader = "Authorization"
	}
	return &WebhookNotifier{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		url:        strings.TrimSpace(url),
		authToken:  strings.TrimSpace(authToken),
		authHeader: authHeader,
		dashboard:  dashboardURL,
		log:        logging.With().Str("component", "notifier").Logger(),
	}
}

type thresholdPayload struct {
	Event            string     `json:"event"`
	TotalEntries     int64      `json:"totalEntries"`
	PageCount        int64      `json:"pageCount"`
	ThresholdReached bool       `json:"thresholdReached"`
	NotifiedAt       *time.Time `json:"notifiedAt"`
	Message          string     `json:"message"`
	DashboardURL     string     `json:"dashboardUrl,omitempty"`
}

func (n *WebhookNotifier) NotifyThreshold(ctx context.Context, status domain.ThresholdStatus) error {
	if n.url == "" {
		n.log.Warn().Msg("NOTIFY_WEBHOOK_URL not set, threshold webhook skipped")
		return nil
	}

	body, err := json.Marshal(thresholdPayload{
		Event:            thresholdEvent,
		TotalEntries:     status.TotalEntries,
		PageCount:        status.PageCount,
		ThresholdReached: status.ThresholdReached,
		NotifiedAt:       status.NotifiedAt,
		Message:          thresholdMessage(status),
		DashboardURL:     n.dashboard,
	})
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	n.applyAuth(req)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	n.log.Debug().Int("status", resp.StatusCode).Str("url", n.url).Msg("threshold webhook delivered")

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook responded with %s", resp.Status)
	}
	return nil
}

func (n *WebhookNotifier) applyAuth(req *http.Request) {
	if n.authToken == "" {
		return
	}
	if strings.EqualFold(n.authHeader, "authorization") {
		req.Header.Set("Authorization", "Bearer "+n.authToken)
		return
	}
	req.Header.Set(n.authHeader, n.authToken)
}

func thresholdMessage(status domain.ThresholdStatus) string {
	return fmt.Sprintf("Activity log holds %d entries (%d pages). Export and clear the logs.",
		status.TotalEntries, status.PageCount)
}

var _ ports.ThresholdNotifier = (*WebhookNotifier)(nil)
