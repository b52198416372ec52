package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

const userColumns = `id, username, email, thought_ids, friend_ids, created_at`

var _ UserStore = (*PostgresUserStore)(nil)

// PostgresUserStore keeps thought and friend references as uuid[] columns.
type PostgresUserStore struct {
	db DBConn
}

func NewPostgresUserStore(db DBConn) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		params.Username, params.Email, params.PasswordHash,
	))
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return user, nil
}

func (s *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		username,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return user, nil
}

func (s *PostgresUserStore) FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Username, &user.Email, &user.ThoughtIDs, &user.FriendIDs, &user.CreatedAt, &user.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresUserStore) FindAll(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return collectUsers(rows)
}

func (s *PostgresUserStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("getting users by ids: %w", err)
	}
	return collectUsers(rows)
}

func (s *PostgresUserStore) AppendThought(ctx context.Context, userID, thoughtID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`UPDATE users SET thought_ids = array_append(thought_ids, $2) WHERE id = $1`,
		userID, thoughtID,
	)
	if err != nil {
		return fmt.Errorf("appending thought: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddFriend inserts friendID into the set in a single statement so
// concurrent callers cannot duplicate it.
func (s *PostgresUserStore) AddFriend(ctx context.Context, userID, friendID uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users
		 SET friend_ids = CASE
		     WHEN $2 = ANY(friend_ids) THEN friend_ids
		     ELSE array_append(friend_ids, $2)
		 END
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, friendID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("adding friend: %w", err)
	}
	return user, nil
}

func scanUser(row Row) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.ThoughtIDs, &user.FriendIDs, &user.CreatedAt); err != nil {
		return nil, err
	}
	return user, nil
}

func collectUsers(rows Rows) ([]models.User, error) {
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.ThoughtIDs, &u.FriendIDs, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}
