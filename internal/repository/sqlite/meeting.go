package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindmeet/mindmeet/internal/domain"
)

// MeetingRepository implements domain.MeetingRepository using SQLite.
type MeetingRepository struct {
	db *sql.DB
}

// NewMeetingRepository creates a new SQLite-backed MeetingRepository.
func NewMeetingRepository(db *DB) *MeetingRepository {
	return &MeetingRepository{db: db.SqlDB}
}

// sortColumns maps domain.MeetingSortFields to columns.
var sortColumns = map[string]string{
	"createdAt": "m.created_at",
	"updatedAt": "m.updated_at",
	"startTime": "m.start_time",
	"title":     "m.title",
	"status":    "m.status",
}

const meetingSelect = `SELECT m.id, m.title, m.description, m.start_time, m.end_time, m.duration_seconds,
	m.status, m.processing_status, m.recording_url, m.transcript, m.summary,
	m.transcription_accuracy, m.organizer_id, o.full_name, o.email, m.created_at, m.updated_at
	FROM meetings m JOIN users o ON o.id = m.organizer_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*domain.Meeting, error) {
	m := &domain.Meeting{}
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.StartTime, &m.EndTime, &m.DurationSeconds,
		&m.Status, &m.ProcessingStatus, &m.RecordingURL, &m.Transcript, &m.Summary,
		&m.TranscriptionAccuracy, &m.OrganizerID, &m.Organizer.FullName, &m.Organizer.Email,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Organizer.ID = m.OrganizerID
	return m, nil
}

func (r *MeetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO meetings (title, description, start_time, end_time, duration_seconds, status,
		 processing_status, recording_url, transcript, summary, transcription_accuracy, organizer_id,
		 created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Description, m.StartTime.UTC(), utcPtr(m.EndTime), m.DurationSeconds, m.Status,
		m.ProcessingStatus, m.RecordingURL, m.Transcript, m.Summary, m.TranscriptionAccuracy, m.OrganizerID,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get meeting id: %w", err)
	}

	for _, p := range m.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO meeting_participants (meeting_id, user_id) VALUES (?, ?)`,
			id, p.ID,
		); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit meeting: %w", err)
	}

	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

func (r *MeetingRepository) GetByID(ctx context.Context, id int64) (*domain.Meeting, error) {
	return r.getOne(ctx, `m.id = ?`, id)
}

func (r *MeetingRepository) GetByRecordingURL(ctx context.Context, url string) (*domain.Meeting, error) {
	if url == "" {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, `m.recording_url = ?`, url)
}

func (r *MeetingRepository) getOne(ctx context.Context, where string, arg any) (*domain.Meeting, error) {
	m, err := scanMeeting(r.db.QueryRowContext(ctx, meetingSelect+` WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}

	participants, err := r.participantsByMeeting(ctx, []int64{m.ID})
	if err != nil {
		return nil, err
	}
	m.Participants = participants[m.ID]
	return m, nil
}

func (r *MeetingRepository) Update(ctx context.Context, m *domain.Meeting) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE meetings SET title = ?, description = ?, start_time = ?, end_time = ?,
		 duration_seconds = ?, status = ?, processing_status = ?, recording_url = ?,
		 transcript = ?, summary = ?, transcription_accuracy = ?, updated_at = ?
		 WHERE id = ?`,
		m.Title, m.Description, m.StartTime.UTC(), utcPtr(m.EndTime),
		m.DurationSeconds, m.Status, m.ProcessingStatus, m.RecordingURL,
		m.Transcript, m.Summary, m.TranscriptionAccuracy, now,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}
	m.UpdatedAt = now
	return nil
}

func (r *MeetingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM meetings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	return expectOneRow(result)
}

func (r *MeetingRepository) AddParticipant(ctx context.Context, meetingID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO meeting_participants (meeting_id, user_id) VALUES (?, ?)`,
		meetingID, userID,
	)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE meetings SET updated_at = ? WHERE id = ?`, time.Now().UTC(), meetingID)
	if err != nil {
		return fmt.Errorf("touch meeting: %w", err)
	}
	return nil
}

func (r *MeetingRepository) ListByMember(ctx context.Context, userID int64, req domain.PageRequest) (*domain.Page[domain.Meeting], error) {
	const memberFilter = ` WHERE m.organizer_id = ? OR m.id IN
		(SELECT meeting_id FROM meeting_participants WHERE user_id = ?)`

	page := &domain.Page[domain.Meeting]{Page: req.Page, Size: req.Size, Items: []domain.Meeting{}}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meetings m`+memberFilter, userID, userID,
	).Scan(&page.TotalElements)
	if err != nil {
		return nil, fmt.Errorf("count meetings: %w", err)
	}

	query := meetingSelect + memberFilter + orderBy(req.Sort) + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, userID, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		page.Items = append(page.Items, *m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	participants, err := r.participantsByMeeting(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		page.Items[i].Participants = participants[page.Items[i].ID]
	}
	return page, nil
}

func (r *MeetingRepository) CountByOrganizer(ctx context.Context, organizerID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meetings WHERE organizer_id = ?`, organizerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count meetings by organizer: %w", err)
	}
	return n, nil
}

func (r *MeetingRepository) CountByOrganizerAndStatus(ctx context.Context, organizerID int64, status domain.MeetingStatus) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meetings WHERE organizer_id = ? AND status = ?`, organizerID, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count meetings by status: %w", err)
	}
	return n, nil
}

func (r *MeetingRepository) AverageAccuracyByOrganizer(ctx context.Context, organizerID int64) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(transcription_accuracy) FROM meetings WHERE organizer_id = ?`, organizerID,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average accuracy: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *MeetingRepository) UpdateProcessingStatus(ctx context.Context, id int64, status domain.ProcessingStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE meetings SET processing_status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update processing status: %w", err)
	}
	return expectOneRow(result)
}

// participantsByMeeting loads participants for several meetings in one query.
func (r *MeetingRepository) participantsByMeeting(ctx context.Context, meetingIDs []int64) (map[int64][]domain.UserSummary, error) {
	result := make(map[int64][]domain.UserSummary)
	if len(meetingIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(meetingIDs))
	args := make([]any, len(meetingIDs))
	for i, id := range meetingIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT mp.meeting_id, u.id, u.full_name, u.email
		 FROM meeting_participants mp JOIN users u ON u.id = mp.user_id
		 WHERE mp.meeting_id IN (%s) ORDER BY u.id`,
		strings.Join(placeholders, ","),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var meetingID int64
		var p domain.UserSummary
		if err := rows.Scan(&meetingID, &p.ID, &p.FullName, &p.Email); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		result[meetingID] = append(result[meetingID], p)
	}
	return result, rows.Err()
}

// orderBy builds an ORDER BY clause from whitelisted sort fields. Unsorted
// listings fall back to id order so paging is stable.
func orderBy(sort []domain.SortOrder) string {
	var parts []string
	for _, s := range sort {
		col, ok := sortColumns[s.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		return " ORDER BY m.id ASC"
	}
	last := "m.id ASC"
	if sort[len(sort)-1].Desc {
		last = "m.id DESC"
	}
	return " ORDER BY " + strings.Join(parts, ", ") + ", " + last
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
