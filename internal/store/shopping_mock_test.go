package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectShoppingList(mock sqlmock.Sqlmock, listID, userID string, created time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + listCols + " FROM shopping_lists WHERE id = ? AND user_id = ?")).
		WithArgs(listID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "source_list_id", "created_at", "started_at", "completed_at"}).
			AddRow(listID, "Semana", "shopping", nil, formatTime(created), formatTime(created), nil))

	cols := []string{"id", "list_id", "name", "category", "unit", "planned_quantity", "purchased_quantity", "unit_price", "is_purchased", "is_urgent", "position", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM shopping_list_items WHERE list_id IN (?)")).
		WithArgs(listID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("i1", listID, "Arroz", "Mercearia", "kg", 1.0, 3.0, 2.5, 1, 0, 0, formatTime(created)).
			AddRow("i2", listID, "Feijão", "Mercearia", "kg", 1.0, 2.0, 8.0, 1, 0, 1, formatTime(created)).
			AddRow("i3", listID, "Café", "Mercearia", "un", 1.0, nil, nil, 0, 0, 2, formatTime(created)))
}

func TestFinalizeListRollsBackOnInventoryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ss := NewShoppingStore(db)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	remote := errors.New("connection reset by peer")

	mock.ExpectBegin()
	expectShoppingList(mock, "l1", "u1", created)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_items")).
		WithArgs(sqlmock.AnyArg(), "u1", "Arroz", "Mercearia", "kg", 3.0, 1.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_items")).
		WithArgs(sqlmock.AnyArg(), "u1", "Feijão", "Mercearia", "kg", 2.0, 1.0, sqlmock.AnyArg()).
		WillReturnError(remote)
	mock.ExpectRollback()

	summary, err := ss.FinalizeList(ctx, "u1", "l1", created.Add(time.Hour), 1)
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, remote)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeListRollsBackWhenStatusChanged(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ss := NewShoppingStore(db)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectShoppingList(mock, "l1", "u1", created)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_items")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_items")).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shopping_lists SET status = ?, completed_at = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	summary, err := ss.FinalizeList(context.Background(), "u1", "l1", created.Add(time.Hour), 1)
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, ErrStateChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeListCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ss := NewShoppingStore(db)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectShoppingList(mock, "l1", "u1", created)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_items")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_items")).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shopping_lists SET status = ?, completed_at = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	_, err = ss.FinalizeList(context.Background(), "u1", "l1", created.Add(time.Hour), 1)
	assert.ErrorContains(t, err, "commit finalize")
	assert.NoError(t, mock.ExpectationsWereMet())
}
