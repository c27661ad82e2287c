package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"table-timeline-backend/internal/db"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteStore opens a private in-memory database per test.
func newSQLiteStore(t *testing.T) *gormStore {
	gormDB, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return NewGormStore(gormDB).(*gormStore)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("maps")
	assert.NoError(t, err)
	assert.Equal(t, RoleMaps, role)

	role, err = ParseRole("reservations")
	assert.NoError(t, err)
	assert.Equal(t, RoleReservations, role)

	_, err = ParseRole("Maps")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestGormStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.LatestDataset(ctx, RoleMaps)
	assert.ErrorIs(t, err, ErrNotFound)

	saved, err := s.SaveDataset(ctx, Upload{
		Role:     RoleMaps,
		FileName: "maps.csv",
		Content:  "restaurant_name,date,meal,tables\n",
		RowCount: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, "upload", saved.Source)
	_, err = uuid.Parse(saved.Revision)
	assert.NoError(t, err)

	loaded, err := s.LatestDataset(ctx, RoleMaps)
	require.NoError(t, err)
	assert.Equal(t, saved.Revision, loaded.Revision)
	assert.Equal(t, "maps.csv", loaded.FileName)
	assert.Equal(t, "restaurant_name,date,meal,tables\n", loaded.Content)

	_, err = s.LatestDataset(ctx, RoleReservations)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_ReplaceArchivesPrevious(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first, err := s.SaveDataset(ctx, Upload{Role: RoleReservations, FileName: "a.csv", Content: "x\n1\n", RowCount: 1})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	second, err := s.SaveDataset(ctx, Upload{Role: RoleReservations, FileName: "b.csv", Source: SourceIngest, Content: "x\n1\n2\n", RowCount: 2})
	require.NoError(t, err)
	assert.NotEqual(t, first.Revision, second.Revision)

	loaded, err := s.LatestDataset(ctx, RoleReservations)
	require.NoError(t, err)
	assert.Equal(t, second.Revision, loaded.Revision)
	assert.Equal(t, 2, loaded.RowCount)
	assert.Equal(t, "ingest", loaded.Source)

	history, err := s.History(ctx, RoleReservations, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, first.Revision, history[0].Revision)
	assert.Equal(t, "a.csv", history[0].FileName)
	assert.True(t, history[0].ReplacedAt.Equal(clock))
}

func TestGormStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	assert.NoError(t, s.DeleteDataset(ctx, RoleMaps))

	saved, err := s.SaveDataset(ctx, Upload{Role: RoleMaps, FileName: "maps.csv", Content: "a\n1\n", RowCount: 1})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDataset(ctx, RoleMaps))
	_, err = s.LatestDataset(ctx, RoleMaps)
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := s.History(ctx, RoleMaps, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, saved.Revision, history[0].Revision)
}

func TestGormStore_SaveRejectsInvalidRole(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := s.SaveDataset(context.Background(), Upload{Role: "floors", Content: "a\n"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestGormStore_DatabaseErrors(t *testing.T) {
	errBoom := errors.New("connection reset")

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		run              func(s Store) error
	}{
		{
			name: "load failure is not reported as missing",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "datasets"`)).
					WillReturnError(errBoom)
			},
			run: func(s Store) error {
				_, err := s.LatestDataset(context.Background(), RoleMaps)
				return err
			},
		},
		{
			name: "save rolls back when the current row cannot be read",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "datasets"`)).
					WillReturnError(errBoom)
				mock.ExpectRollback()
			},
			run: func(s Store) error {
				_, err := s.SaveDataset(context.Background(), Upload{Role: RoleMaps, Content: "a\n1\n", RowCount: 1})
				return err
			},
		},
		{
			name: "save rolls back when archiving fails",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "datasets"`)).
					WillReturnRows(sqlmock.NewRows([]string{"role", "revision", "source", "content", "row_count"}).
						AddRow("maps", "old-revision", "upload", "a\n1\n", 1))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "dataset_histories"`)).
					WithArgs("maps", "old-revision", "", "upload", Any{}, Any{}, Any{}).
					WillReturnError(errBoom)
				mock.ExpectRollback()
			},
			run: func(s Store) error {
				_, err := s.SaveDataset(context.Background(), Upload{Role: RoleMaps, Content: "a\n2\n", RowCount: 1})
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newMockDB(t)
			s := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			err := tc.run(s)
			assert.ErrorIs(t, err, errBoom)
			assert.NotErrorIs(t, err, ErrNotFound)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
