package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*SessionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	repo := &SessionRepository{db: db, idleTimeout: 30 * time.Minute}
	return repo, mock, func() { _ = db.Close() }
}

func TestGetReturnsSessionNotFoundForUnknownID(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT session_id, criteria, last_mode, updated_at").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetReturnsSessionNotFoundForIdleSession(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	stale := time.Now().UTC().Add(-45 * time.Minute)
	rows := sqlmock.NewRows([]string{"session_id", "criteria", "last_mode", "updated_at"}).
		AddRow("sess-1", []byte(`{"required_skills":["golang"]}`), "hybrid", stale)
	mock.ExpectQuery("SELECT session_id, criteria, last_mode, updated_at").
		WithArgs("sess-1").
		WillReturnRows(rows)

	_, err := repo.Get(context.Background(), "sess-1")
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for idle session, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetUnmarshalsCriteriaAndMode(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	updated := time.Now().UTC().Add(-5 * time.Minute)
	rows := sqlmock.NewRows([]string{"session_id", "criteria", "last_mode", "updated_at"}).
		AddRow("sess-2", []byte(`{"profile_name":"Backend Engineer","required_skills":["golang","postgresql"]}`), "local", updated)
	mock.ExpectQuery("SELECT session_id, criteria, last_mode, updated_at").
		WithArgs("sess-2").
		WillReturnRows(rows)

	session, err := repo.Get(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if session.Criteria.ProfileName != "Backend Engineer" {
		t.Fatalf("profile name = %q", session.Criteria.ProfileName)
	}
	if len(session.Criteria.RequiredSkills) != 2 {
		t.Fatalf("required skills = %v", session.Criteria.RequiredSkills)
	}
	if session.LastMode != domain.ModeLocal {
		t.Fatalf("last mode = %q", session.LastMode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPutUpsertsSession(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO match_sessions").
		WithArgs("sess-3", sqlmock.AnyArg(), "hybrid", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), domain.SessionContext{
		SessionID: "sess-3",
		Criteria:  domain.Criteria{RequiredSkills: []string{"golang"}},
		LastMode:  domain.ModeHybrid,
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteIdleReportsDeletedCount(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM match_sessions").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	deleted, err := repo.DeleteIdle(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("DeleteIdle: %v", err)
	}
	if deleted != 4 {
		t.Fatalf("deleted = %d", deleted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
