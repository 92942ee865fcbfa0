package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/records/internal/platform/db"
	"github.com/ehr/records/internal/platform/query"
	"github.com/ehr/records/internal/platform/tenant"
	"github.com/ehr/records/pkg/pagination"
)

type repoPG struct {
	pool db.Queryable
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const clinicCols = `c.id, c.organization_id, c.name, c.city, c.phone, c.active, c.created_at, c.updated_at`

var clinicFrom = query.From{Table: "clinic", Alias: "c"}

var sortColumns = map[string]string{
	"name":      "name",
	"city":      "city",
	"active":    "active",
	"createdAt": "created_at",
}

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.City, &c.Phone, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

// byID matches one clinic within the current tenant.
func byID(ctx context.Context, id uuid.UUID) *query.Builder {
	return query.NewBuilder().
		Equals(id, "c.id", "id").
		Equals(tenant.IDFromContext(ctx), "c.organization_id", "tenantId")
}

func (r *repoPG) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO clinic (id, organization_id, name, city, phone, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.OrganizationID, c.Name, c.City, c.Phone, c.Active,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert clinic: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	b := byID(ctx, id)
	c, err := scanClinic(r.conn(ctx).QueryRow(ctx,
		`SELECT `+clinicCols+` FROM clinic c`+b.Where(), b.Bindings().NamedArgs()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get clinic: %w", err)
	}
	return c, nil
}

func (r *repoPG) Update(ctx context.Context, c *Clinic) error {
	b := byID(ctx, c.ID)
	args := b.Bindings().NamedArgs()
	args["name"], args["city"], args["phone"], args["active"] = c.Name, c.City, c.Phone, c.Active

	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE clinic c SET name = @name, city = @city, phone = @phone, active = @active, updated_at = NOW()`+
		b.Where()+` RETURNING c.organization_id, c.created_at, c.updated_at`, args,
	).Scan(&c.OrganizationID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update clinic: %w", err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	b := byID(ctx, id)
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinic c`+b.Where(), b.Bindings().NamedArgs())
	if err != nil {
		return fmt.Errorf("delete clinic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, f Filter, p pagination.Params) ([]*Clinic, int64, error) {
	return query.Fetch(ctx, r.conn(ctx), searchSelect(tenant.IDFromContext(ctx), f, p), scanClinic)
}

func searchSelect(tenantID *string, f Filter, p pagination.Params) query.Select {
	b := query.NewBuilder().
		Equals(tenantID, "c.organization_id", "tenantId").
		SubstringMatch(f.Name, "c.name", "name").
		SubstringMatchPtr(f.City, "c.city", "city").
		Equals(f.Active, "c.active", "active")

	return query.Select{
		Columns:     clinicCols,
		From:        clinicFrom,
		Where:       b,
		Sort:        query.ParseSort(p.Sort),
		SortColumns: sortColumns,
		Limit:       p.Limit(),
		Offset:      p.Offset(),
	}
}
