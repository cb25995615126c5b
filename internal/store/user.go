package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cardledger/cardledger/internal/models"
)

const userColumns = "id, email, base_user, reviewer, editor, admin, creator"

func scanActor(scan func(dest ...any) error) (*models.Actor, error) {
	var a models.Actor

	err := scan(
		&a.ID, &a.Email,
		&a.Privileges.BaseUser, &a.Privileges.Reviewer, &a.Privileges.Editor,
		&a.Privileges.Admin, &a.Privileges.Creator,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// UserStore is the identity provider backing authentication and privilege
// changes. API keys are stored as SHA-256 hex digests, never in the clear.
type UserStore struct {
	Base
}

// NewUserStore creates a new UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

// HashAPIKey returns the hex SHA-256 digest stored for an API key.
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))

	return hex.EncodeToString(hash[:])
}

// GetByAPIKey resolves an actor from a presented API key.
func (s *UserStore) GetByAPIKey(ctx context.Context, apiKey string) (*models.Actor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE api_key_sha = $1",
		HashAPIKey(apiKey),
	)

	a, err := scanActor(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrActorNotFound
		}

		return nil, fmt.Errorf("looking up actor by API key: %w", err)
	}

	return a, nil
}

// Get returns an actor by ID.
func (s *UserStore) Get(ctx context.Context, id int64) (*models.Actor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)

	a, err := scanActor(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrActorNotFound
		}

		return nil, fmt.Errorf("looking up actor: %w", err)
	}

	return a, nil
}

// Create inserts a user with the given privileges and hashed API key.
func (s *UserStore) Create(ctx context.Context, email, apiKeySHA string, priv models.Privileges) (*models.Actor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		`INSERT INTO users (email, api_key_sha, base_user, reviewer, editor, admin, creator)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		email, apiKeySHA, priv.BaseUser, priv.Reviewer, priv.Editor, priv.Admin, priv.Creator,
	)

	a, err := scanActor(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("scanning created user: %w", err)
	}

	return a, nil
}

// RevokeBase strips an actor's base contribution privilege. Used when a
// reviewer reports one of their proposals.
func (s *UserStore) RevokeBase(ctx context.Context, userID int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, "UPDATE users SET base_user = FALSE WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("revoking base privilege: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrActorNotFound
	}

	return nil
}
