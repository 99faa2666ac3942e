package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindmeet/mindmeet/internal/domain"
)

type meetingRepo struct {
	pool *pgxpool.Pool
}

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

func scanMeeting(row pgx.Row) (*domain.Meeting, error) {
	m := &domain.Meeting{}
	var status, processing string
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.StartTime, &m.EndTime, &m.DurationSeconds,
		&status, &processing, &m.RecordingURL, &m.Transcript, &m.Summary,
		&m.TranscriptionAccuracy, &m.OrganizerID, &m.Organizer.FullName, &m.Organizer.Email,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Status = domain.MeetingStatus(status)
	m.ProcessingStatus = domain.ProcessingStatus(processing)
	m.Organizer.ID = m.OrganizerID
	return m, nil
}

func (r *meetingRepo) Create(ctx context.Context, m *domain.Meeting) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO meetings (title, description, start_time, end_time, duration_seconds, status,
		 processing_status, recording_url, transcript, summary, transcription_accuracy, organizer_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		m.Title, m.Description, m.StartTime, m.EndTime, m.DurationSeconds, string(m.Status),
		string(m.ProcessingStatus), m.RecordingURL, m.Transcript, m.Summary, m.TranscriptionAccuracy,
		m.OrganizerID,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}

	for _, p := range m.Participants {
		if _, err := tx.Exec(ctx,
			`INSERT INTO meeting_participants (meeting_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			m.ID, p.ID,
		); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit meeting: %w", err)
	}
	return nil
}

func (r *meetingRepo) GetByID(ctx context.Context, id int64) (*domain.Meeting, error) {
	return r.getOne(ctx, `m.id = $1`, id)
}

func (r *meetingRepo) GetByRecordingURL(ctx context.Context, url string) (*domain.Meeting, error) {
	if url == "" {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, `m.recording_url = $1`, url)
}

func (r *meetingRepo) getOne(ctx context.Context, where string, arg any) (*domain.Meeting, error) {
	m, err := scanMeeting(r.pool.QueryRow(ctx, meetingSelect+` WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (r *meetingRepo) Update(ctx context.Context, m *domain.Meeting) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE meetings SET title = $1, description = $2, start_time = $3, end_time = $4,
		 duration_seconds = $5, status = $6, processing_status = $7, recording_url = $8,
		 transcript = $9, summary = $10, transcription_accuracy = $11, updated_at = NOW()
		 WHERE id = $12
		 RETURNING updated_at`,
		m.Title, m.Description, m.StartTime, m.EndTime,
		m.DurationSeconds, string(m.Status), string(m.ProcessingStatus), m.RecordingURL,
		m.Transcript, m.Summary, m.TranscriptionAccuracy,
		m.ID,
	).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update meeting: %w", err)
	}
	return nil
}

func (r *meetingRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *meetingRepo) AddParticipant(ctx context.Context, meetingID, userID int64) error {
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO meeting_participants (meeting_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		meetingID, userID)
	batch.Queue(`UPDATE meetings SET updated_at = NOW() WHERE id = $1`, meetingID)
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (r *meetingRepo) ListByMember(ctx context.Context, userID int64, req domain.PageRequest) (*domain.Page[domain.Meeting], error) {
	const memberFilter = ` WHERE m.organizer_id = $1 OR m.id IN
		(SELECT meeting_id FROM meeting_participants WHERE user_id = $1)`

	page := &domain.Page[domain.Meeting]{Page: req.Page, Size: req.Size, Items: []domain.Meeting{}}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM meetings m`+memberFilter, userID,
	).Scan(&page.TotalElements); err != nil {
		return nil, fmt.Errorf("count meetings: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		meetingSelect+memberFilter+orderBy(req.Sort)+` LIMIT $2 OFFSET $3`,
		userID, req.Size, req.Offset())
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

func (r *meetingRepo) CountByOrganizer(ctx context.Context, organizerID int64) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM meetings WHERE organizer_id = $1`, organizerID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count meetings by organizer: %w", err)
	}
	return n, nil
}

func (r *meetingRepo) CountByOrganizerAndStatus(ctx context.Context, organizerID int64, status domain.MeetingStatus) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM meetings WHERE organizer_id = $1 AND status = $2`, organizerID, string(status),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count meetings by status: %w", err)
	}
	return n, nil
}

func (r *meetingRepo) AverageAccuracyByOrganizer(ctx context.Context, organizerID int64) (*float64, error) {
	var avg *float64
	if err := r.pool.QueryRow(ctx,
		`SELECT AVG(transcription_accuracy) FROM meetings WHERE organizer_id = $1`, organizerID,
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average accuracy: %w", err)
	}
	return avg, nil
}

func (r *meetingRepo) UpdateProcessingStatus(ctx context.Context, id int64, status domain.ProcessingStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE meetings SET processing_status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update processing status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *meetingRepo) participantsByMeeting(ctx context.Context, meetingIDs []int64) (map[int64][]domain.UserSummary, error) {
	result := make(map[int64][]domain.UserSummary)
	if len(meetingIDs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT mp.meeting_id, u.id, u.full_name, u.email
		 FROM meeting_participants mp JOIN users u ON u.id = mp.user_id
		 WHERE mp.meeting_id = ANY($1) ORDER BY u.id`, meetingIDs)
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
