package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

func newConversationRepoWithMock(t *testing.T) (*ConversationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ConversationRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestAppendTurnInsertsAndPrunes(t *testing.T) {
	repo, mock, done := newConversationRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO conversation_turns").
		WithArgs("session-1", domain.RoleUser, "what is project 225?", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM conversation_turns").
		WithArgs("session-1", maxTurnsPerSession).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AppendTurn(context.Background(), "session-1", domain.Turn{
		Role:    domain.RoleUser,
		Content: "what is project 225?",
	})
	if err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentTurnsReturnsChronologicalOrder(t *testing.T) {
	repo, mock, done := newConversationRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"role", "content"}).
		AddRow(domain.RoleAssistant, "second reply").
		AddRow(domain.RoleUser, "first question")
	mock.ExpectQuery("SELECT role, content").
		WithArgs("session-1", 10).
		WillReturnRows(rows)

	turns, err := repo.ListRecentTurns(context.Background(), "session-1", 10)
	if err != nil {
		t.Fatalf("ListRecentTurns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "first question" || turns[1].Content != "second reply" {
		t.Fatalf("expected chronological order, got %v", turns)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentTurnsCapsLimit(t *testing.T) {
	repo, mock, done := newConversationRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT role, content").
		WithArgs("session-1", maxTurnsPerSession).
		WillReturnRows(sqlmock.NewRows([]string{"role", "content"}))

	if _, err := repo.ListRecentTurns(context.Background(), "session-1", 500); err != nil {
		t.Fatalf("ListRecentTurns() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
