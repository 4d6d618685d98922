package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	domainDevice "beacon-tracker/internal/domain/device"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &DB{DB: gormDB}, mock
}

func deviceRows(d *domainDevice.Device) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "name", "identifier", "icon",
		"lat", "lng", "accuracy", "is_active", "last_update", "created_at",
	}).AddRow(
		d.ID, d.OwnerID, d.Name, d.Identifier, d.Icon,
		d.Position.Lat, d.Position.Lng, d.Position.Accuracy,
		d.IsActive, d.LastUpdate, d.CreatedAt,
	)
}

func sampleDevice() *domainDevice.Device {
	now := time.Now().UTC()
	return &domainDevice.Device{
		ID:         uuid.New(),
		OwnerID:    uuid.New(),
		Name:       "Alpha",
		Identifier: "dev-001",
		Icon:       "fox",
		Position:   domainDevice.Position{Lat: 41.90, Lng: 12.49, Accuracy: 15},
		IsActive:   true,
		LastUpdate: now,
		CreatedAt:  now,
	}
}

func TestDeviceRepository_GetByOwner(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	want := sampleDevice()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "devices" WHERE owner_id = $1`)).
		WillReturnRows(deviceRows(want))

	got, err := repo.GetByOwner(context.Background(), want.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Position, got.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_GetByOwner_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "devices" WHERE owner_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByOwner(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainDevice.ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Create(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	d := sampleDevice()
	d.ID = uuid.Nil

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "devices"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "icon", "lat", "lng", "accuracy", "is_active"}).
			AddRow(uuid.New(), d.Icon, d.Position.Lat, d.Position.Lng, d.Position.Accuracy, d.IsActive))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), d)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.False(t, d.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Create_DuplicateOwner(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "devices"`)).
		WillReturnError(&pqError{msg: `duplicate key value violates unique constraint "idx_devices_owner_id"`})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleDevice())
	assert.ErrorIs(t, err, domainDevice.ErrDeviceAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type pqError struct{ msg string }

func (e *pqError) Error() string { return e.msg }

func TestDeviceRepository_UpdatePosition(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	deviceID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "devices" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdatePosition(context.Background(), deviceID,
		domainDevice.Position{Lat: 45.46, Lng: 9.19, Accuracy: 8}, time.Now().UTC())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_UpdatePosition_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "devices" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdatePosition(context.Background(), uuid.New(),
		domainDevice.Position{Lat: 1, Lng: 2}, time.Now().UTC())
	assert.ErrorIs(t, err, domainDevice.ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Deactivate(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "devices" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Deactivate(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_ListActive(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	first := sampleDevice()
	second := sampleDevice()
	second.LastUpdate = first.LastUpdate.Add(-time.Hour)

	rows := deviceRows(first)
	rows.AddRow(
		second.ID, second.OwnerID, second.Name, second.Identifier, second.Icon,
		second.Position.Lat, second.Position.Lng, second.Position.Accuracy,
		second.IsActive, second.LastUpdate, second.CreatedAt,
	)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "devices" WHERE is_active = $1 ORDER BY last_update DESC`)).
		WillReturnRows(rows)

	devices, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, first.ID, devices[0].ID)
	assert.Equal(t, second.ID, devices[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Update(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	d := sampleDevice()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "devices" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "devices" WHERE id = $1`)).
		WillReturnRows(deviceRows(d))

	updated, err := repo.Update(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, d.Name, updated.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Update_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDeviceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "devices" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := repo.Update(context.Background(), sampleDevice())
	assert.ErrorIs(t, err, domainDevice.ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
