package social

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestMarkPostedOnlyFromQueued(t *testing.T) {
	store, mock := newStoreMock(t)
	id := uuid.New()

	mock.ExpectExec(`(?s)UPDATE social_posts\s+SET status = \$1, external_id = \$2,.+WHERE id = \$8 AND status = \$9`).
		WithArgs(StatusPosted, "fb_123", 800, 40, 25, 5, 2, id, StatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.MarkPosted(context.Background(), id, "fb_123", 800, 40, 25, 5, 2)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedOnlyFromQueued(t *testing.T) {
	store, mock := newStoreMock(t)
	id := uuid.New()

	mock.ExpectExec(`(?s)UPDATE social_posts\s+SET status = \$1, error_message = \$2.+WHERE id = \$3 AND status = \$4`).
		WithArgs(StatusFailed, "gateway error: status 503", id, StatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkFailed(context.Background(), id, "gateway error: status 503")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	store, mock := newStoreMock(t)
	id := uuid.New()

	mock.ExpectQuery(`(?s)SELECT .+ FROM social_posts WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}
