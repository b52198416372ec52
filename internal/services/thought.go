package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

const thoughtColumns = `id, thought_text, username, reactions, created_at`

var (
	_ ThoughtStore           = (*PostgresThoughtStore)(nil)
	_ AuthoredThoughtCreator = (*PostgresThoughtStore)(nil)
)

// PostgresThoughtStore embeds reactions as a jsonb array on the thought row.
type PostgresThoughtStore struct {
	db  DB
	now func() time.Time
}

func NewPostgresThoughtStore(db DB) *PostgresThoughtStore {
	return &PostgresThoughtStore{db: db, now: time.Now}
}

func (s *PostgresThoughtStore) Create(ctx context.Context, params models.CreateThoughtParams) (*models.Thought, error) {
	thought, err := scanThought(s.db.QueryRow(ctx,
		`INSERT INTO thoughts (thought_text, username)
		 VALUES ($1, $2)
		 RETURNING `+thoughtColumns,
		params.ThoughtText, params.Username,
	))
	if err != nil {
		return nil, fmt.Errorf("creating thought: %w", err)
	}
	return thought, nil
}

// CreateAuthored inserts the thought and appends its id to the author in
// one transaction.
func (s *PostgresThoughtStore) CreateAuthored(ctx context.Context, authorID uuid.UUID, params models.CreateThoughtParams) (*models.Thought, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin thought create: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := lockAuthorForUpdate(ctx, tx, authorID); err != nil {
		return nil, err
	}

	thought, err := scanThought(tx.QueryRow(ctx,
		`INSERT INTO thoughts (thought_text, username)
		 VALUES ($1, $2)
		 RETURNING `+thoughtColumns,
		params.ThoughtText, params.Username,
	))
	if err != nil {
		return nil, fmt.Errorf("creating thought: %w", err)
	}

	result, err := tx.Exec(ctx,
		`UPDATE users SET thought_ids = array_append(thought_ids, $2) WHERE id = $1`,
		authorID, thought.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("appending thought: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit thought create: %w", err)
	}
	committed = true
	return thought, nil
}

func (s *PostgresThoughtStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM thoughts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting thought: %w", err)
	}
	return nil
}

func (s *PostgresThoughtStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Thought, error) {
	thought, err := scanThought(s.db.QueryRow(ctx,
		`SELECT `+thoughtColumns+` FROM thoughts WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting thought: %w", err)
	}
	return thought, nil
}

func (s *PostgresThoughtStore) Find(ctx context.Context, filter models.ThoughtFilter) ([]models.Thought, error) {
	var (
		rows Rows
		err  error
	)
	if filter.Username != nil {
		rows, err = s.db.Query(ctx,
			`SELECT `+thoughtColumns+` FROM thoughts WHERE username = $1 ORDER BY created_at DESC`,
			*filter.Username,
		)
	} else {
		rows, err = s.db.Query(ctx,
			`SELECT `+thoughtColumns+` FROM thoughts ORDER BY created_at DESC`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing thoughts: %w", err)
	}
	return collectThoughts(rows)
}

func (s *PostgresThoughtStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Thought, error) {
	if len(ids) == 0 {
		return []models.Thought{}, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+thoughtColumns+` FROM thoughts WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("getting thoughts by ids: %w", err)
	}
	return collectThoughts(rows)
}

// AppendReaction concatenates onto the jsonb array in place, so concurrent
// reactions on one thought never overwrite each other.
func (s *PostgresThoughtStore) AppendReaction(ctx context.Context, thoughtID uuid.UUID, params models.CreateReactionParams) (*models.Thought, error) {
	reaction := models.Reaction{
		ID:           uuid.New(),
		ReactionBody: params.ReactionBody,
		Username:     params.Username,
		CreatedAt:    s.now().UTC(),
	}
	payload, err := json.Marshal([]models.Reaction{reaction})
	if err != nil {
		return nil, fmt.Errorf("encoding reaction: %w", err)
	}

	thought, err := scanThought(s.db.QueryRow(ctx,
		`UPDATE thoughts SET reactions = reactions || $2::jsonb
		 WHERE id = $1
		 RETURNING `+thoughtColumns,
		thoughtID, string(payload),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("adding reaction: %w", err)
	}
	return thought, nil
}

func scanThought(row Row) (*models.Thought, error) {
	thought := &models.Thought{}
	var reactions []byte
	if err := row.Scan(&thought.ID, &thought.ThoughtText, &thought.Username, &reactions, &thought.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeReactions(reactions, thought); err != nil {
		return nil, err
	}
	return thought, nil
}

func collectThoughts(rows Rows) ([]models.Thought, error) {
	defer rows.Close()

	thoughts := []models.Thought{}
	for rows.Next() {
		var t models.Thought
		var reactions []byte
		if err := rows.Scan(&t.ID, &t.ThoughtText, &t.Username, &reactions, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning thought: %w", err)
		}
		if err := decodeReactions(reactions, &t); err != nil {
			return nil, err
		}
		thoughts = append(thoughts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thoughts: %w", err)
	}
	return thoughts, nil
}

func decodeReactions(raw []byte, thought *models.Thought) error {
	thought.Reactions = []models.Reaction{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &thought.Reactions); err != nil {
		return fmt.Errorf("decoding reactions: %w", err)
	}
	return nil
}
