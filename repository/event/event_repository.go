package event

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/event-ticket/model"
)

type SQL struct {
	conn *sqlx.DB
}

type EventRepository interface {
	List(ctx context.Context) ([]model.EventEntity, error)
	GetByID(ctx context.Context, id uint64) (*model.EventEntity, error)
	Create(ctx context.Context, data *model.EventEntity) (uint64, error)
}

func NewEventRepository(conn *sqlx.DB) EventRepository {
	return &SQL{conn: conn}
}

const (
	// tables created before event_description became NOT NULL may still hold NULLs
	eventColumns = `id, user_id, event_title, COALESCE(event_description, '') AS event_description, event_start_date, event_end_date, event_location, event_price, image_url, created_at`

	listEventsQuery = `SELECT ` + eventColumns + ` FROM events ORDER BY event_start_date, id`
	getEventQuery   = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	insertEvent     = `INSERT INTO events (user_id, event_title, event_description, event_start_date, event_end_date, event_location, event_price, image_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`
)

func (s *SQL) List(ctx context.Context) ([]model.EventEntity, error) {
	rows, err := s.conn.QueryxContext(ctx, listEventsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.EventEntity, 0)
	for rows.Next() {
		var it model.EventEntity
		if err := rows.StructScan(&it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// GetByID returns nil, nil when the event does not exist.
func (s *SQL) GetByID(ctx context.Context, id uint64) (*model.EventEntity, error) {
	var entity model.EventEntity
	if err := s.conn.QueryRowxContext(ctx, getEventQuery, id).StructScan(&entity); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

func (s *SQL) Create(ctx context.Context, data *model.EventEntity) (uint64, error) {
	res, err := s.conn.ExecContext(ctx, insertEvent,
		data.UserID, data.Title, data.Description, data.StartDate, data.EndDate, data.Location, data.Price, data.ImageURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
