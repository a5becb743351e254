package approval

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/store"
)

// BulkRejectReason is recorded on every report rejected in bulk.
const BulkRejectReason = "Ditolak melalui persetujuan massal"

// DefaultFetchLimit is the number of pending reports fetched per refresh.
const DefaultFetchLimit = 100

var (
	// ErrEmptySelection is returned by Bulk when no report is selected.
	ErrEmptySelection = errors.New("no reports selected")

	// ErrReasonRequired is returned by Reject when the reason is blank.
	ErrReasonRequired = errors.New("rejection reason is required")

	// ErrInFlight is returned when a report already has a mutation running.
	ErrInFlight = errors.New("report is already being processed")
)

// Action is a reviewer decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// BulkResult summarises a bulk run.
type BulkResult struct {
	Action    Action
	Requested int
	Succeeded int
	Failed    []string
}

// DecisionNotifier informs a report owner about a decision.
type DecisionNotifier interface {
	ReportApproved(ctx context.Context, r model.Report, notes string) (model.Notification, error)
	ReportRejected(ctx context.Context, r model.Report, reason string) (model.Notification, error)
}

// Service records approval decisions on behalf of one reviewer.
type Service struct {
	reports    store.ReportStore
	notifier   DecisionNotifier
	reviewerID string
	fetchLimit int
	inflight   *InFlight
	policy     *bluemonday.Policy
	now        func() time.Time
}

// NewService creates an approval service. notifier may be nil, in which
// case owners are not notified.
func NewService(reports store.ReportStore, notifier DecisionNotifier, reviewerID string, fetchLimit int) *Service {
	if fetchLimit <= 0 {
		fetchLimit = DefaultFetchLimit
	}
	return &Service{
		reports:    reports,
		notifier:   notifier,
		reviewerID: reviewerID,
		fetchLimit: fetchLimit,
		inflight:   NewInFlight(),
		policy:     bluemonday.StrictPolicy(),
		now:        time.Now,
	}
}

// ReviewerID returns the identity decisions are stamped with.
func (s *Service) ReviewerID() string {
	return s.reviewerID
}

// ListPending fetches the newest pending reports.
func (s *Service) ListPending(ctx context.Context) ([]model.Report, error) {
	status := model.StatusPendingApproval
	reports, err := s.reports.ListReports(ctx, store.ReportFilter{
		Status: &status,
		Limit:  s.fetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing pending reports: %w", err)
	}
	return reports, nil
}

// Processing reports whether any mutation is currently running.
func (s *Service) Processing() bool {
	return s.inflight.Len() > 0
}

// IsProcessing reports whether id has a mutation running.
func (s *Service) IsProcessing(id string) bool {
	return s.inflight.Contains(id)
}

// Approve marks a pending report approved and notifies its owner.
func (s *Service) Approve(ctx context.Context, id, notes string) error {
	if !s.inflight.Acquire(id) {
		return fmt.Errorf("report %s: %w", id, ErrInFlight)
	}
	defer s.inflight.Release(id)

	notes = s.sanitize(notes)
	if err := s.reports.ApproveReport(ctx, id, s.reviewerID, notes, s.now()); err != nil {
		return err
	}

	log.WithFields(log.Fields{"report_id": id, "action": ActionApprove}).Info("report approved")

	if s.notifier != nil {
		s.notifyOwner(ctx, id, func(r model.Report) error {
			_, err := s.notifier.ReportApproved(ctx, r, notes)
			return err
		})
	}
	return nil
}

// Reject marks a pending report rejected with reason and notifies its
// owner. The reason must not be blank.
func (s *Service) Reject(ctx context.Context, id, reason string) error {
	reason = s.sanitize(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	if !s.inflight.Acquire(id) {
		return fmt.Errorf("report %s: %w", id, ErrInFlight)
	}
	defer s.inflight.Release(id)

	if err := s.reports.RejectReport(ctx, id, s.reviewerID, reason, s.now()); err != nil {
		return err
	}

	log.WithFields(log.Fields{"report_id": id, "action": ActionReject}).Info("report rejected")

	if s.notifier != nil {
		s.notifyOwner(ctx, id, func(r model.Report) error {
			_, err := s.notifier.ReportRejected(ctx, r, reason)
			return err
		})
	}
	return nil
}

// Bulk applies action to every id in order, one at a time. Failures are
// logged and counted; the run never stops early.
func (s *Service) Bulk(ctx context.Context, ids []string, action Action) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{Action: action}, ErrEmptySelection
	}

	result := BulkResult{Action: action, Requested: len(ids)}
	for _, id := range ids {
		var err error
		switch action {
		case ActionApprove:
			err = s.Approve(ctx, id, "")
		case ActionReject:
			err = s.Reject(ctx, id, BulkRejectReason)
		default:
			return result, fmt.Errorf("unknown bulk action %q", action)
		}

		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"report_id": id,
				"action":    action,
			}).Error("bulk item failed")
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Succeeded++
	}

	return result, nil
}

// notifyOwner loads the decided report and hands it to send. Failures
// are logged only.
func (s *Service) notifyOwner(ctx context.Context, id string, send func(model.Report) error) {
	logger := log.WithField("report_id", id)

	r, err := s.reports.GetReport(ctx, id)
	if err != nil {
		logger.WithError(err).Warn("loading report for notification")
		return
	}
	if err := send(*r); err != nil {
		logger.WithError(err).Warn("notifying report owner")
	}
}

// sanitize strips markup from reviewer input and trims it.
func (s *Service) sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}
