package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"admin-backend/core/cache"
	"admin-backend/core/storage/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}
	// gorm pings once while opening.
	mock.ExpectPing()

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

type pingBackend struct {
	cache.Backend
	err error
}

func (b pingBackend) Ping(context.Context) error { return b.err }

func TestReady(t *testing.T) {
	t.Run("AllHealthy", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		sqlMock.ExpectPing()
		store := new(mocks.Client)
		store.On("BucketExists", mock.Anything, "uploads").Return(true, nil)

		svc := NewService(db, pingBackend{}, store, "uploads", time.Second, nil)
		report := svc.Ready(context.Background())

		assert.Equal(t, StatusOK, report.Status)
		assert.Equal(t, StatusOK, report.Checks["database"].Status)
		assert.Equal(t, StatusOK, report.Checks["cache"].Status)
		assert.Equal(t, StatusOK, report.Checks["storage"].Status)
		require.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("DatabaseDown", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		sqlMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		svc := NewService(db, pingBackend{}, nil, "uploads", time.Second, nil)
		report := svc.Ready(context.Background())

		assert.Equal(t, StatusError, report.Status)
		assert.Equal(t, "connection refused", report.Checks["database"].Error)
		assert.Equal(t, StatusDisabled, report.Checks["storage"].Status)
	})

	t.Run("CacheDownDegrades", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		sqlMock.ExpectPing()

		svc := NewService(db, pingBackend{err: errors.New("redis down")}, nil, "uploads", time.Second, nil)
		report := svc.Ready(context.Background())

		assert.Equal(t, StatusDegraded, report.Status)
		assert.Equal(t, StatusError, report.Checks["cache"].Status)
	})

	t.Run("BucketMissingDegrades", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		sqlMock.ExpectPing()
		store := new(mocks.Client)
		store.On("BucketExists", mock.Anything, "uploads").Return(false, nil)

		svc := NewService(db, pingBackend{}, store, "uploads", time.Second, nil)
		report := svc.Ready(context.Background())

		assert.Equal(t, StatusDegraded, report.Status)
		assert.Equal(t, "bucket uploads does not exist", report.Checks["storage"].Error)
	})

	t.Run("NoDatabase", func(t *testing.T) {
		svc := NewService(nil, nil, nil, "", 0, nil)
		report := svc.Ready(context.Background())

		assert.Equal(t, StatusError, report.Status)
		assert.Equal(t, StatusDisabled, report.Checks["cache"].Status)
	})
}
