package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/records/internal/platform/db"
	"github.com/ehr/records/internal/platform/query"
	"github.com/ehr/records/internal/platform/tenant"
	"github.com/ehr/records/pkg/pagination"
)

// ErrDuplicateLicense is returned when the license number is already
// registered in the organization.
var ErrDuplicateLicense = errors.New("license number already registered")

type repoPG struct {
	pool db.Queryable
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const doctorCols = `d.id, d.organization_id, d.clinic_id, d.first_name, d.last_name,
	d.specialization, d.license_number, d.created_at, d.updated_at`

var doctorFrom = query.From{Table: "doctor", Alias: "d"}

var sortColumns = map[string]string{
	"firstName":      "first_name",
	"lastName":       "last_name",
	"specialization": "specialization",
	"licenseNumber":  "license_number",
	"createdAt":      "created_at",
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.OrganizationID, &d.ClinicID, &d.FirstName, &d.LastName,
		&d.Specialization, &d.LicenseNumber, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func byID(ctx context.Context, id uuid.UUID) *query.Builder {
	return query.NewBuilder().
		Equals(id, "d.id", "id").
		Equals(tenant.IDFromContext(ctx), "d.organization_id", "tenantId")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor (id, organization_id, clinic_id, first_name, last_name, specialization, license_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		d.ID, d.OrganizationID, d.ClinicID, d.FirstName, d.LastName, d.Specialization, d.LicenseNumber,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateLicense
	}
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	b := byID(ctx, id)
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor d`+b.Where(), b.Bindings().NamedArgs()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	b := byID(ctx, d.ID)
	args := b.Bindings().NamedArgs()
	args["clinicId"] = d.ClinicID
	args["firstName"] = d.FirstName
	args["lastName"] = d.LastName
	args["specialization"] = d.Specialization
	args["licenseNumber"] = d.LicenseNumber

	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctor d SET
			clinic_id = @clinicId, first_name = @firstName, last_name = @lastName,
			specialization = @specialization, license_number = @licenseNumber, updated_at = NOW()`+
		b.Where()+` RETURNING d.organization_id, d.created_at, d.updated_at`, args,
	).Scan(&d.OrganizationID, &d.CreatedAt, &d.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case isUniqueViolation(err):
		return ErrDuplicateLicense
	case err != nil:
		return fmt.Errorf("update doctor: %w", err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	b := byID(ctx, id)
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor d`+b.Where(), b.Bindings().NamedArgs())
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ClinicInOrganization(ctx context.Context, clinicID uuid.UUID, org string) (bool, error) {
	return db.BelongsTo(ctx, r.conn(ctx), "clinic", clinicID, org)
}

func (r *repoPG) Search(ctx context.Context, f Filter, p pagination.Params) ([]*Doctor, int64, error) {
	return query.Fetch(ctx, r.conn(ctx), searchSelect(tenant.IDFromContext(ctx), f, p), scanDoctor)
}

func searchSelect(tenantID *string, f Filter, p pagination.Params) query.Select {
	b := query.NewBuilder().
		Equals(tenantID, "d.organization_id", "tenantId").
		MultiTokenSearch(f.Name, "d.first_name", "d.last_name", "").
		SubstringMatch(f.Specialization, "d.specialization", "").
		Equals(f.ClinicID, "d.clinic_id", "clinicId").
		Equals(f.LicenseNumber, "d.license_number", "licenseNumber")

	return query.Select{
		Columns:     doctorCols,
		From:        doctorFrom,
		Where:       b,
		Sort:        query.ParseSort(p.Sort),
		SortColumns: sortColumns,
		Limit:       p.Limit(),
		Offset:      p.Offset(),
	}
}
