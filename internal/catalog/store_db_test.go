package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *PostgresStore) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return mock, NewPostgresStore(db)
}

func TestPostgresStore_ListSortedByID(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, title, price_cents, description\s+FROM products\s+ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price_cents", "description"}).
			AddRow("p1", "Laptop", int64(4560000), "ultrabook").
			AddRow("p2", "Keyboard", int64(4990), "mechanical"))

	ps, err := store.ListSortedByID(context.Background())

	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, Product{ID: "p1", Title: "Laptop", PriceCents: 4560000, Description: "ultrabook"}, ps[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSortedByID_QueryError(t *testing.T) {
	mock, store := setupMockDB(t)
	boom := errors.New("boom")

	mock.ExpectQuery(`SELECT id, title, price_cents, description`).WillReturnError(boom)

	_, err := store.ListSortedByID(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, title, price_cents, description\s+FROM products\s+WHERE id = \$1`).
		WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price_cents", "description"}).
			AddRow("p2", "Keyboard", int64(4990), "mechanical"))

	p, ok, err := store.Get(context.Background(), "p2")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Keyboard", p.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`FROM products\s+WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := store.Get(context.Background(), "nope")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()

	require.NoError(t, NewPostgresStore(db).Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
