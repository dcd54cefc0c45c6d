package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sensornode/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	deviceStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO device_state (id, state, boot_count, failures, last_reading, last_status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state=excluded.state,
			boot_count=excluded.boot_count,
			failures=excluded.failures,
			last_reading=excluded.last_reading,
			last_status=excluded.last_status,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, state, boot_count, failures, last_reading, last_status, updated_at
		FROM device_state WHERE id=?
	`
)

// marshalReading converts the last reading to a nullable JSON string.
func marshalReading(r *models.Reading) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// unmarshalReading parses the stored JSON back into a reading.
func unmarshalReading(s sql.NullString) (*models.Reading, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var r models.Reading
	if err := json.Unmarshal([]byte(s.String), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Save updates or inserts the device_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, snap models.DeviceSnapshot) error {
	reading, err := marshalReading(snap.LastReading)
	if err != nil {
		return fmt.Errorf("marshal last reading: %w", err)
	}

	// always persisted as UTC; set if zero
	tsUTC := snap.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		deviceStateRowID,
		snap.State.String(),
		snap.BootCount,
		snap.ConsecutiveFailures,
		reading,
		snap.LastStatus,
		tsUTC,
	)
	return err
}

// Load fetches the single device_state row (id=1).
func (r *StateSQLite) Load(ctx context.Context) (models.DeviceSnapshot, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, deviceStateRowID)

	var (
		s         models.DeviceSnapshot
		stateName string
		reading   sql.NullString
	)
	if err := row.Scan(
		&s.ID,
		&stateName,
		&s.BootCount,
		&s.ConsecutiveFailures,
		&reading,
		&s.LastStatus,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceSnapshot{}, nil // nothing journaled yet
		}
		return models.DeviceSnapshot{}, err
	}

	state, err := models.ParseDeviceState(stateName)
	if err != nil {
		return models.DeviceSnapshot{}, err
	}
	s.State = state

	last, err := unmarshalReading(reading)
	if err != nil {
		return models.DeviceSnapshot{}, fmt.Errorf("unmarshal last reading: %w", err)
	}
	s.LastReading = last
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
