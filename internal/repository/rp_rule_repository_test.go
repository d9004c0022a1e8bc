package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/cordova-labs/booking-portal-api/internal/models"
)

func TestRPRuleRepositoryListForCombination(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRPRuleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "subject_id", "rp_id", "is_saturday", "is_avrd", "priority", "max_classes_per_day", "created_at", "updated_at"}).
		AddRow("rule-1", "subj-1", "rp-1", false, true, 1, 2, time.Now(), time.Now()).
		AddRow("rule-2", "subj-1", "rp-2", false, true, 2, 3, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE subject_id = $1 AND is_saturday = $2 AND is_avrd = $3 ORDER BY priority")).
		WithArgs("subj-1", false, true).
		WillReturnRows(rows)

	rules, err := repo.ListForCombination(context.Background(), "subj-1", false, true)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, "rp-1", rules[0].RPID)
	require.Equal(t, 1, rules[0].Priority)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRPRuleRepositoryEmptyCombinationIsNotAnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRPRuleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE subject_id = $1")).
		WithArgs("subj-unknown", true, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id", "rp_id", "is_saturday", "is_avrd", "priority", "max_classes_per_day", "created_at", "updated_at"}))

	rules, err := repo.ListForCombination(context.Background(), "subj-unknown", true, false)
	require.NoError(t, err)
	require.Empty(t, rules)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRPRuleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRPRuleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rp_subject_rules")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rule := &models.RPSubjectRule{SubjectID: "subj-1", RPID: "rp-1", Priority: 1, MaxClassesPerDay: 2}
	require.NoError(t, repo.Create(context.Background(), rule))
	require.NotEmpty(t, rule.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRPRuleRepositoryDeleteUnknownID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRPRuleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rp_subject_rules WHERE id = $1")).
		WithArgs("rule-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "rule-missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
