package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

// Sessions keep at most this many turns; older ones are pruned on append so
// history reads stay bounded.
const maxTurnsPerSession = 20

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversation_turns (session_id, role, content, created_at)
VALUES ($1,$2,$3,$4)
`, sessionID, turn.Role, turn.Content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
DELETE FROM conversation_turns
WHERE session_id = $1
  AND id NOT IN (
	SELECT id FROM conversation_turns
	WHERE session_id = $1
	ORDER BY id DESC
	LIMIT $2
)
`, sessionID, maxTurnsPerSession)
	if err != nil {
		return fmt.Errorf("prune turns: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListRecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	if limit <= 0 || limit > maxTurnsPerSession {
		limit = maxTurnsPerSession
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT role, content
FROM conversation_turns
WHERE session_id = $1
ORDER BY id DESC
LIMIT $2
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Turn, 0, limit)
	for rows.Next() {
		var turn domain.Turn
		if err := rows.Scan(&turn.Role, &turn.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// Returned in descending order from SQL; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
