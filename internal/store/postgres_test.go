package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-planner/internal/model"
	"github.com/sells-group/inventory-planner/internal/record"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var snapshotColumns = []string{
	"id", "filename", "size_bytes", "business_type", "is_inventory_planning",
	"error_type", "record_counts", "created_at",
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS snapshots`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	snap := model.NewSnapshot("plan.xlsx", 99, testResponse("retail"))
	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), "plan.xlsx", int64(99), "retail", true, "",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveSnapshot(context.Background(), snap))
	assert.NotEmpty(t, snap.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO snapshots`).
		WillReturnError(errors.New("connection reset"))

	err := s.SaveSnapshot(context.Background(), model.NewSnapshot("a.csv", 1, testResponse("retail")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert snapshot")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	response, err := json.Marshal(testResponse("distribution"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM snapshots WHERE id = \$1`).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows(append(snapshotColumns, "response")).
			AddRow("snap-1", "plan.xlsx", int64(10), "distribution", true, "",
				[]byte(`{"sales_history":1}`), created, response))

	got, err := s.GetSnapshot(context.Background(), "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "distribution", got.BusinessType)
	assert.Equal(t, 1, got.Counts[record.SalesHistory])
	assert.Equal(t, created, got.CreatedAt)
	require.NotNil(t, got.Response)
	assert.Equal(t, "distribution", got.Response.BusinessType())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSnapshot_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM snapshots WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSnapshot(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM snapshots WHERE`).
		WithArgs("retail", pgxmock.AnyArg(), 100, 0).
		WillReturnRows(pgxmock.NewRows(snapshotColumns).
			AddRow("b", "b.csv", int64(2), "retail", false, "extraction_error", []byte(`{}`), created.Add(time.Hour)).
			AddRow("a", "a.csv", int64(1), "retail", true, "", []byte(`{"item_master":3}`), created))

	got, err := s.ListSnapshots(context.Background(), SnapshotFilter{BusinessType: "retail"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "extraction_error", got[0].ErrorType)
	assert.Equal(t, 3, got[1].Counts[record.ItemMaster])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM snapshots WHERE id = \$1`).
		WithArgs("a").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM snapshots WHERE id = \$1`).
		WithArgs("b").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteSnapshot(context.Background(), "a"))
	assert.True(t, IsNotFound(s.DeleteSnapshot(context.Background(), "b")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
