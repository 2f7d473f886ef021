package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/storage"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestGetSession_DecodeError(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "title", "group_id", "created_by", "participants", "currency",
		"status", "transactions", "invitations", "created_at", "updated_at"}).
		AddRow("s1", "Broken", nil, "alice", `["alice"]`, "USD", "open", `{not json`, `[]`, 1, 1)
	mock.ExpectQuery(`FROM sessions s WHERE s\.id = \?`).WithArgs("s1").WillReturnRows(rows)

	_, err := store.GetSession(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode transactions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGroup_RollsBackOnMemberFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO groups").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO group_members").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.CreateGroup(context.Background(), &models.Group{Name: "G", OwnerID: "a", Members: []string{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert group member")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePayment_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM payments").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeletePayment(context.Background(), "p1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users WHERE email = \?`).
		WithArgs("a@example.com").
		WillReturnError(sql.ErrConnDone)

	user, err := store.GetUserByEmail(context.Background(), "a@example.com")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
