package repository

import (
	"context"
	"database/sql"
	"time"

	"sensornode/internal/models"
)

type StateRepo interface {
	Save(ctx context.Context, s models.DeviceSnapshot) error
	Load(ctx context.Context) (models.DeviceSnapshot, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
	}
}
