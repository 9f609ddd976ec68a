package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/logging"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

// LogNotifier writes the notification to the application log. Used when no webhook is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logging.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) NotifyThreshold(ctx context.Context, status domain.ThresholdStatus) error {
	n.log.Warn().
		Int64("total_entries", status.TotalEntries).
		Int64("page_count", status.PageCount).
		Msg(thresholdMessage(status))
	return nil
}

var _ ports.ThresholdNotifier = (*LogNotifier)(nil)
