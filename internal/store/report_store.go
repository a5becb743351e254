package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/approvaldesk/internal/model"
)

// reportColumns is the projection shared by every report query. Submitter
// name and SBU come from the owner's profile.
const reportColumns = `
	r.id, r.user_id, r.file_name, r.status, r.indicator_type,
	r.raw_data, r.processed_data, r.score, r.file_size,
	r.approval_notes, r.approved_at, r.approved_by,
	r.rejection_reason, r.rejected_at, r.rejected_by,
	r.validation, r.media_breakdown,
	r.submitted_at, r.created_at, r.updated_at,
	COALESCE(p.full_name, '') AS submitter_name,
	COALESCE(p.sbu_name, '') AS sbu_name`

const reportFrom = ` FROM reports r LEFT JOIN profiles p ON p.id = r.user_id`

// reportRow mirrors reportColumns for sqlx scanning.
type reportRow struct {
	ID              string         `db:"id"`
	UserID          string         `db:"user_id"`
	FileName        string         `db:"file_name"`
	Status          string         `db:"status"`
	IndicatorType   string         `db:"indicator_type"`
	RawData         string         `db:"raw_data"`
	ProcessedData   string         `db:"processed_data"`
	Score           float64        `db:"score"`
	FileSize        int64          `db:"file_size"`
	ApprovalNotes   string         `db:"approval_notes"`
	ApprovedAt      sql.NullTime   `db:"approved_at"`
	ApprovedBy      sql.NullString `db:"approved_by"`
	RejectionReason string         `db:"rejection_reason"`
	RejectedAt      sql.NullTime   `db:"rejected_at"`
	RejectedBy      sql.NullString `db:"rejected_by"`
	Validation      string         `db:"validation"`
	MediaBreakdown  string         `db:"media_breakdown"`
	SubmittedAt     time.Time      `db:"submitted_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	SubmitterName   string         `db:"submitter_name"`
	SBUName         string         `db:"sbu_name"`
}

func (row reportRow) toModel() (model.Report, error) {
	r := model.Report{
		ID:              row.ID,
		UserID:          row.UserID,
		FileName:        row.FileName,
		SubmitterName:   row.SubmitterName,
		SBUName:         row.SBUName,
		Status:          model.ReportStatus(row.Status),
		IndicatorType:   row.IndicatorType,
		RawData:         row.RawData,
		ProcessedData:   row.ProcessedData,
		Score:           row.Score,
		FileSize:        row.FileSize,
		ApprovalNotes:   row.ApprovalNotes,
		ApprovedAt:      nullTime(row.ApprovedAt),
		ApprovedBy:      nullString(row.ApprovedBy),
		RejectionReason: row.RejectionReason,
		RejectedAt:      nullTime(row.RejectedAt),
		RejectedBy:      nullString(row.RejectedBy),
		SubmittedAt:     row.SubmittedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}

	if row.Validation != "" {
		if err := json.Unmarshal([]byte(row.Validation), &r.Validation); err != nil {
			return model.Report{}, fmt.Errorf("unmarshaling validation for report %s: %w", row.ID, err)
		}
	}
	if row.MediaBreakdown != "" {
		if err := json.Unmarshal([]byte(row.MediaBreakdown), &r.MediaBreakdown); err != nil {
			return model.Report{}, fmt.Errorf("unmarshaling media breakdown for report %s: %w", row.ID, err)
		}
	}

	return r, nil
}

// ListReports retrieves reports newest first, joined with their owner's
// profile.
func (s *SQLStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "r.status = ?")
		args = append(args, string(*filter.Status))
	}

	query := "SELECT" + reportColumns + reportFrom
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}

	reports := make([]model.Report, 0, len(rows))
	for _, row := range rows {
		r, err := row.toModel()
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// GetReport retrieves a single report by ID.
func (s *SQLStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	query := "SELECT" + reportColumns + reportFrom + " WHERE r.id = ?"

	var row reportRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting report %s: %w", id, err)
	}

	r, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReport inserts a report. Generates a UUID if ID is empty and
// defaults the status to pending approval.
func (s *SQLStore) CreateReport(ctx context.Context, r model.Report) (model.Report, error) {
	if strings.TrimSpace(r.FileName) == "" {
		return model.Report{}, fmt.Errorf("report file name must not be empty")
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = model.StatusPendingApproval
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = r.CreatedAt
	}
	r.UpdatedAt = now

	validation, err := json.Marshal(r.Validation)
	if err != nil {
		return model.Report{}, fmt.Errorf("marshaling validation: %w", err)
	}
	media := []byte("{}")
	if len(r.MediaBreakdown) > 0 {
		if media, err = json.Marshal(r.MediaBreakdown); err != nil {
			return model.Report{}, fmt.Errorf("marshaling media breakdown: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO reports (
			id, user_id, file_name, status, indicator_type,
			raw_data, processed_data, score, file_size,
			approval_notes, approved_at, approved_by,
			rejection_reason, rejected_at, rejected_by,
			validation, media_breakdown,
			submitted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.UserID, r.FileName, string(r.Status), r.IndicatorType,
		r.RawData, r.ProcessedData, r.Score, r.FileSize,
		r.ApprovalNotes, utcPtr(r.ApprovedAt), r.ApprovedBy,
		r.RejectionReason, utcPtr(r.RejectedAt), r.RejectedBy,
		string(validation), string(media),
		r.SubmittedAt.UTC(), r.CreatedAt.UTC(), r.UpdatedAt,
	)
	if err != nil {
		return model.Report{}, fmt.Errorf("creating report: %w", err)
	}
	return r, nil
}

// ApproveReport moves a pending report to approved, stamping the
// approver and time.
func (s *SQLStore) ApproveReport(ctx context.Context, id, approverID, notes string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE reports SET
			status = ?, approved_at = ?, approved_by = ?,
			approval_notes = ?, updated_at = ?
		WHERE id = ? AND status = ?`),
		string(model.StatusApproved), at.UTC(), approverID,
		notes, at.UTC(),
		id, string(model.StatusPendingApproval),
	)
	if err != nil {
		return fmt.Errorf("approving report %s: %w", id, err)
	}
	return s.checkDecision(ctx, result, id)
}

// RejectReport moves a pending report to rejected, stamping the rejector,
// time and reason.
func (s *SQLStore) RejectReport(ctx context.Context, id, rejectorID, reason string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE reports SET
			status = ?, rejected_at = ?, rejected_by = ?,
			rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`),
		string(model.StatusRejected), at.UTC(), rejectorID,
		reason, at.UTC(),
		id, string(model.StatusPendingApproval),
	)
	if err != nil {
		return fmt.Errorf("rejecting report %s: %w", id, err)
	}
	return s.checkDecision(ctx, result, id)
}

// checkDecision distinguishes a missing report from one that was already
// decided when a conditional update touched no rows.
func (s *SQLStore) checkDecision(ctx context.Context, result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking decision on report %s: %w", id, err)
	}
	if rows > 0 {
		return nil
	}
	if _, err := s.GetReport(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("report %s: %w", id, ErrNotPending)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
