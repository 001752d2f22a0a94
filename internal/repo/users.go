package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// Users persists registered chat users. The row id is the Telegram user id.
type Users struct{ pool *pgxpool.Pool }

func NewUsers(p *pgxpool.Pool) *Users { return &Users{pool: p} }

// EnsureUser inserts on first contact and returns the stored row either way,
// so the original created_at (the trial anchor) survives repeated /start.
func (r *Users) EnsureUser(ctx context.Context, u domain.User) (domain.User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users(id, username, first_name, created_at)
		VALUES($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE
		SET username=EXCLUDED.username,
			first_name=EXCLUDED.first_name
		RETURNING id, username, first_name, created_at
	`, u.ID, u.Username, u.FirstName, u.CreatedAt).Scan(&u.ID, &u.Username, &u.FirstName, &u.CreatedAt)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *Users) User(ctx context.Context, userID int64) (domain.User, bool, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, first_name, created_at
		FROM users WHERE id=$1
	`, userID).Scan(&u.ID, &u.Username, &u.FirstName, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return u, true, nil
}
