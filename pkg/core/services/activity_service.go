package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/identity"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/referrer"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/sanitize"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/logging"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/metrics"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

const userAgentMaxLength = 300

// ThresholdTrigger schedules a threshold re-check. Implementations must not block.
type ThresholdTrigger interface {
	Trigger()
}

type ActivityService struct {
	repo    ports.ActivityRepository
	filter  *sanitize.Filter
	counter *referrer.Counter
	trigger ThresholdTrigger
	now     func() time.Time
	log     zerolog.Logger
}

// NewActivityService wires the logging facade. filter defaults to the embedded pattern set;
// trigger may be nil to skip threshold re-checks.
func NewActivityService(repo ports.ActivityRepository, filter *sanitize.Filter, counter *referrer.Counter, trigger ThresholdTrigger) *ActivityService {
	if filter == nil {
		filter = sanitize.DefaultFilter()
	}
	if counter == nil {
		counter = referrer.NewCounter()
	}
	return &ActivityService{
		repo:    repo,
		filter:  filter,
		counter: counter,
		trigger: trigger,
		now:     time.Now,
		log:     logging.With().Str("component", "activity").Logger(),
	}
}

func (s *ActivityService) LogVisitorAccess(ctx context.Context, v identity.VisitorInfo, page string) (*domain.ActivityLogEntry, error) {
	details := domain.Details{
		"page": sanitize.TruncateInputText(page),
	}
	if v.Referrer != "" {
		details["referrer"] = sanitize.TruncateInputText(v.Referrer)
	}
	return s.write(ctx, v, domain.ActionVisitorAccess, details)
}

// LogTextInput records form input. Content of sensitive fields is replaced by the redaction marker.
func (s *ActivityService) LogTextInput(ctx context.Context, v identity.VisitorInfo, fieldID, formName, content string) (*domain.ActivityLogEntry, error) {
	fieldID = strings.TrimSpace(fieldID)
	if fieldID == "" {
		return nil, domain.ErrInvalidInput
	}

	sensitive := s.filter.IsSensitiveInput(fieldID, formName)
	details := domain.Details{
		"fieldId":   sanitize.TruncateCopyText(fieldID),
		"sensitive": sensitive,
	}
	if formName != "" {
		details["formName"] = sanitize.TruncateCopyText(formName)
	}
	if sensitive {
		details["content"] = sanitize.RedactedMarker
		metrics.SensitiveRedactions.Inc()
	} else {
		details["content"] = sanitize.TruncateInputText(content)
		details["length"] = utf8.RuneCountInString(content)
	}
	return s.write(ctx, v, domain.ActionTextInput, details)
}

func (s *ActivityService) LogTextCopy(ctx context.Context, v identity.VisitorInfo, text, page string) (*domain.ActivityLogEntry, error) {
	details := domain.Details{
		"text":   sanitize.TruncateCopyText(text),
		"length": utf8.RuneCountInString(text),
	}
	if page != "" {
		details["page"] = sanitize.TruncateInputText(page)
	}
	return s.write(ctx, v, domain.ActionTextCopy, details)
}

func (s *ActivityService) LogURLCopy(ctx context.Context, v identity.VisitorInfo, url string) (*domain.ActivityLogEntry, error) {
	return s.write(ctx, v, domain.ActionURLCopy, domain.Details{
		"url": sanitize.TruncateCopyText(url),
	})
}

func (s *ActivityService) LogTemplateCopy(ctx context.Context, v identity.VisitorInfo, templateID, templateName, content string) (*domain.ActivityLogEntry, error) {
	return s.write(ctx, v, domain.ActionTemplateCopy, domain.Details{
		"templateId":   sanitize.TruncateCopyText(templateID),
		"templateName": sanitize.TruncateCopyText(templateName),
		"content":      sanitize.TruncateCopyText(content),
		"length":       utf8.RuneCountInString(content),
	})
}

func (s *ActivityService) LogContentCopy(ctx context.Context, v identity.VisitorInfo, contentType, contentID, text string) (*domain.ActivityLogEntry, error) {
	return s.write(ctx, v, domain.ActionContentCopy, domain.Details{
		"contentType": sanitize.TruncateCopyText(contentType),
		"contentId":   sanitize.TruncateCopyText(contentID),
		"text":        sanitize.TruncateCopyText(text),
		"length":      utf8.RuneCountInString(text),
	})
}

func (s *ActivityService) LogAIInteraction(ctx context.Context, v identity.VisitorInfo, question, answer string) (*domain.ActivityLogEntry, error) {
	return s.write(ctx, v, domain.ActionAIInteraction, domain.Details{
		"question": sanitize.TruncateInputText(question),
		"answer":   sanitize.TruncateAIText(answer),
	})
}

// LogReferrer classifies referrerURL (or the visitor's referrer when empty), persists the entry
// and its referrer row together, and only then bumps the source counters.
func (s *ActivityService) LogReferrer(ctx context.Context, v identity.VisitorInfo, referrerURL string) (*domain.ActivityLogEntry, error) {
	if strings.TrimSpace(referrerURL) == "" {
		referrerURL = v.Referrer
	}

	ref := referrer.Classify(referrerURL)
	ref.ReferrerURL = sanitize.TruncateInputText(ref.ReferrerURL)

	entry := s.newEntry(v, domain.ActionReferrer, domain.Details{
		"referrerUrl":  ref.ReferrerURL,
		"sourceDomain": ref.SourceDomain,
		"sourceType":   string(ref.SourceType),
	})

	if err := s.repo.WriteReferrer(ctx, entry, &ref); err != nil {
		return nil, s.writeFailed(entry, err)
	}

	if ref.SourceDomain != referrer.NoDomain {
		s.counter.Increment(ref.SourceDomain)
	}
	s.counter.Increment(string(ref.SourceType))
	metrics.ReferrerSources.WithLabelValues(string(ref.SourceType)).Inc()

	s.written(entry)
	return entry, nil
}

// SourceCounter exposes the counter the service increments.
func (s *ActivityService) SourceCounter() *referrer.Counter {
	return s.counter
}

func (s *ActivityService) write(ctx context.Context, v identity.VisitorInfo, action domain.ActionKind, details domain.Details) (*domain.ActivityLogEntry, error) {
	entry := s.newEntry(v, action, details)
	if err := s.repo.Write(ctx, entry); err != nil {
		return nil, s.writeFailed(entry, err)
	}
	s.written(entry)
	return entry, nil
}

func (s *ActivityService) newEntry(v identity.VisitorInfo, action domain.ActionKind, details domain.Details) *domain.ActivityLogEntry {
	v = v.Normalized()
	if details == nil {
		details = domain.Details{}
	}
	if v.SessionID != "" {
		details["sessionId"] = v.SessionID
	}
	if v.UserAgent != "" {
		details["userAgent"] = sanitize.TruncateText(v.UserAgent, userAgentMaxLength)
	}
	details["anonymous"] = v.IsAnonymous()

	return &domain.ActivityLogEntry{
		UserID:    v.ActorID(),
		Action:    action,
		Details:   details,
		IPAddress: v.IPAddress,
		Timestamp: s.now().UTC(),
	}
}

func (s *ActivityService) writeFailed(entry *domain.ActivityLogEntry, err error) error {
	metrics.ActivityLogWrites.WithLabelValues(string(entry.Action), "error").Inc()
	s.log.Error().Err(err).Str("action", string(entry.Action)).Msg("activity log write failed")
	return domain.Persistence("write "+string(entry.Action), err)
}

func (s *ActivityService) written(entry *domain.ActivityLogEntry) {
	metrics.ActivityLogWrites.WithLabelValues(string(entry.Action), "ok").Inc()
	s.log.Debug().Int64("id", entry.ID).Str("action", string(entry.Action)).Str("user", entry.UserID).Msg("activity logged")
	if s.trigger != nil {
		s.trigger.Trigger()
	}
}

var _ ports.ActivityLogger = (*ActivityService)(nil)
