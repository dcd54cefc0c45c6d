package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"sensornode/internal/models"
	"sensornode/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestStateSQLite_Save_SetsUTCWhenTimeZero(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	snap := models.DeviceSnapshot{
		State:               models.StateReportingFailed,
		BootCount:           2,
		ConsecutiveFailures: 1,
		LastStatus:          500,
	}

	isUTCRecent := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok || tm.Location() != time.UTC {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_state")).
		WithArgs(
			1,
			"REPORTING_FAILED",
			2,
			1,
			nil, // no reading yet
			500,
			isUTCRecent,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Save_MarshalsReading(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	takenAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := models.DeviceSnapshot{
		State:       models.StateReportingOK,
		LastReading: &models.Reading{Temperature: 21.5, Humidity: 40, TakenAt: takenAt},
		LastStatus:  201,
		UpdatedAt:   takenAt,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_state")).
		WithArgs(
			1,
			"REPORTING_OK",
			0,
			0,
			`{"temperature":21.5,"humidity":40,"taken_at":"2025-03-01T12:00:00Z"}`,
			201,
			takenAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Save_ExecErrorIsPropagated(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_state")).
		WillReturnError(errors.New("db down"))

	if err := repo.Save(context.Background(), models.DeviceSnapshot{}); err == nil {
		t.Fatalf("Save() expected error, got nil")
	}
}

func TestStateSQLite_Load_NoRowsReturnsZeroValue(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, state, boot_count, failures, last_reading, last_status, updated_at")).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, models.DeviceSnapshot{}) {
		t.Fatalf("Load() expected zero snapshot, got: %+v", got)
	}
}

func TestStateSQLite_Load_HappyPath(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	locNY, _ := time.LoadLocation("America/New_York")
	nonUTC := time.Date(2024, 2, 1, 8, 30, 0, 0, locNY)

	cols := []string{"id", "state", "boot_count", "failures", "last_reading", "last_status", "updated_at"}
	rows := sqlmock.NewRows(cols).AddRow(
		1,
		"HALTED",
		4,
		3,
		`{"temperature":19.25,"humidity":55.5,"taken_at":"2024-02-01T13:29:30Z"}`,
		503,
		nonUTC,
	)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, state, boot_count, failures, last_reading, last_status, updated_at")).
		WithArgs(1).
		WillReturnRows(rows)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.ID != 1 || got.State != models.StateHalted || got.BootCount != 4 ||
		got.ConsecutiveFailures != 3 || got.LastStatus != 503 {
		t.Fatalf("Load() unexpected fields: %+v", got)
	}
	if got.LastReading == nil || got.LastReading.Temperature != 19.25 || got.LastReading.Humidity != 55.5 {
		t.Fatalf("Load() unexpected reading: %+v", got.LastReading)
	}
	if got.UpdatedAt.Location() != time.UTC {
		t.Fatalf("Load() UpdatedAt not UTC: %v", got.UpdatedAt.Location())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Load_UnknownStateIsError(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewStateSQLite(db)

	cols := []string{"id", "state", "boot_count", "failures", "last_reading", "last_status", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, state")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "HEATING", 0, 0, nil, 0, time.Now()))

	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatalf("Load() expected error for unknown state, got nil")
	}
}

// Helpers

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
