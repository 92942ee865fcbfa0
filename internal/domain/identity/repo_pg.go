package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/records/internal/platform/db"
	"github.com/ehr/records/internal/platform/query"
	"github.com/ehr/records/pkg/pagination"
)

type userRepoPG struct {
	pool db.Queryable
}

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const userCols = `u.id, u.external_id, u.username, u.email, u.role, u.created_at`

var userFrom = query.From{Table: "app_user", Alias: "u"}

var userSortColumns = map[string]string{
	"username":  "username",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	return &u, err
}

func (r *userRepoPG) getOne(ctx context.Context, where string, arg any) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user u WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `u.id = $1`, id)
}

func (r *userRepoPG) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return r.getOne(ctx, `u.external_id = $1`, externalID)
}

// Create relies on the unique index on external_id, so concurrent first
// requests for the same principal insert a single row.
func (r *userRepoPG) Create(ctx context.Context, u *User) (bool, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO app_user (id, external_id, username, email, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_id) DO NOTHING`,
		u.ID, u.ExternalID, u.Username, u.Email, u.Role)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepoPG) Search(ctx context.Context, f UserFilter, p pagination.Params) ([]*User, int64, error) {
	return query.Fetch(ctx, r.conn(ctx), userSelect(f, p), scanUser)
}

func userSelect(f UserFilter, p pagination.Params) query.Select {
	b := query.NewBuilder().
		SubstringMatch(f.Username, "u.username", "username").
		SubstringMatch(f.Email, "u.email", "email").
		Equals(f.Role, "u.role", "role")

	return query.Select{
		Columns:     userCols,
		From:        userFrom,
		Where:       b,
		Sort:        query.ParseSort(p.Sort),
		SortColumns: userSortColumns,
		Limit:       p.Limit(),
		Offset:      p.Offset(),
	}
}
