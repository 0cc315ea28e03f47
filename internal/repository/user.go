package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/booking-api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, external_id, name, email, phone, user_type, gender, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	user, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("users")
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.LanguageIDs, err = r.languageIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetByID loads a user with their language ids.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByExternalID loads the user linked to an auth provider subject.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return r.getOne(ctx, `external_id = $1`, externalID)
}

func (r *UserRepository) languageIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT language_id FROM user_languages WHERE user_id = $1 ORDER BY language_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user languages: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan user languages: %w", err)
	}
	return ids, nil
}

// ListTranslators returns users of the translator role that work with
// languageID, skipping excludeID (0 excludes nobody).
func (r *UserRepository) ListTranslators(ctx context.Context, roleID string, languageID, excludeID int64) ([]model.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE u.user_type = $1
		  AND u.id <> $3
		  AND EXISTS (SELECT 1 FROM user_languages ul WHERE ul.user_id = u.id AND ul.language_id = $2)
		ORDER BY u.id`, roleID, languageID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("query translators: %w", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, fmt.Errorf("scan translators: %w", err)
	}
	return users, nil
}
