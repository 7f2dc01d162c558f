package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func dealColumns() []string {
	return []string{"id", "name", "value", "stage", "owner_id", "last_activity_at", "is_stale", "cold_pool"}
}

func TestListUnassignedLeadsSelectsOwnerlessLeadsOldestFirst(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDealRepository(NewBaseRepository(db))

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM deals\s+WHERE stage = 'Lead' AND owner_id IS NULL\s+ORDER BY created_at ASC\s+LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(dealColumns()).
			AddRow(id, "Acme", 1000.0, "Lead", nil, time.Now(), false, false))

	deals, err := repo.ListUnassignedLeads(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, id, deals[0].ID)
	assert.Nil(t, deals[0].OwnerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepQueriesExcludeTerminalStages(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDealRepository(NewBaseRepository(db))
	cutoff := time.Now().Add(-72 * time.Hour)

	terminal := regexp.QuoteMeta(`lower(stage) NOT IN ('closed', 'lost', 'paid')`)

	mock.ExpectQuery(`is_stale = false\s+AND cold_pool = false\s+AND owner_id IS NOT NULL\s+AND ` + terminal).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(dealColumns()))
	_, err := repo.ListStaleCandidates(context.Background(), cutoff)
	require.NoError(t, err)

	mock.ExpectQuery(`is_stale = true\s+AND cold_pool = false\s+AND escalation_sent_at IS NULL\s+AND owner_id IS NOT NULL\s+AND ` + terminal).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(dealColumns()))
	_, err = repo.ListEscalationCandidates(context.Background(), cutoff)
	require.NoError(t, err)

	mock.ExpectQuery(`cold_pool = false\s+AND ` + terminal).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(dealColumns()))
	_, err = repo.ListColdPoolCandidates(context.Background(), cutoff)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignOwnerTxGuardsAgainstDoubleAssignment(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDealRepository(NewBaseRepository(db))

	dealID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE deals\s+SET owner_id = \$1, updated_at = \$2\s+WHERE id = \$3 AND owner_id IS NULL`).
		WithArgs(ownerID, sqlmock.AnyArg(), dealID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.AssignOwnerTx(context.Background(), tx, dealID, ownerID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignOwnerTxAlreadyAssigned(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDealRepository(NewBaseRepository(db))

	dealID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE deals`).
		WithArgs(ownerID, sqlmock.AnyArg(), dealID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.AssignOwnerTx(context.Background(), tx, dealID, ownerID)
	assert.EqualError(t, err, "deal already assigned")
}

func TestMoveToColdPoolTxClearsOwner(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDealRepository(NewBaseRepository(db))

	dealID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`SET cold_pool = true, is_stale = true, owner_id = NULL, updated_at = \$1\s+WHERE id = \$2 AND cold_pool = false`).
		WithArgs(sqlmock.AnyArg(), dealID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.MoveToColdPoolTx(context.Background(), tx, dealID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateScoreMissingDeal(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDealRepository(NewBaseRepository(db))

	id := uuid.New()
	at := time.Now()

	mock.ExpectExec(`UPDATE deals\s+SET lead_score = \$1, score_updated_at = \$2, updated_at = \$2\s+WHERE id = \$3`).
		WithArgs(42, at, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateScore(context.Background(), id, 42, at)
	assert.EqualError(t, err, "deal not found")
}

func TestListDueFollowUpsFiltersNotifiedAndUnscheduled(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDealRepository(NewBaseRepository(db))
	now := time.Now()

	mock.ExpectQuery(`owner_id IS NOT NULL\s+AND next_follow_up_at IS NOT NULL\s+AND next_follow_up_at <= \$1\s+AND follow_up_notified = false`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(dealColumns()))

	_, err := repo.ListDueFollowUps(context.Background(), now)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
