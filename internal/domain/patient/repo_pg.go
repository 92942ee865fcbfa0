package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const patientCols = `p.id, p.organization_id, p.clinic_id, p.first_name, p.last_name,
	p.email, p.birth_date, p.gender, p.created_at, p.updated_at`

// recordsJoin reaches the patient's medical records. A patient may match
// through several records, so listings using it count distinct owners.
var recordsJoin = query.Join{
	Table: "medical_record",
	Alias: "mr",
	On:    "mr.patient_id = p.id AND mr.organization_id = p.organization_id",
	Owner: "patient_id",
}

var sortColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"birthDate": "birth_date",
	"gender":    "gender",
	"createdAt": "created_at",
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.OrganizationID, &p.ClinicID, &p.FirstName, &p.LastName,
		&p.Email, &p.BirthDate, &p.Gender, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func byID(ctx context.Context, id uuid.UUID) *query.Builder {
	return query.NewBuilder().
		Equals(id, "p.id", "id").
		Equals(tenant.IDFromContext(ctx), "p.organization_id", "tenantId")
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, organization_id, clinic_id, first_name, last_name, email, birth_date, gender)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.OrganizationID, p.ClinicID, p.FirstName, p.LastName, p.Email, p.BirthDate, p.Gender,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	b := byID(ctx, id)
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient p`+b.Where(), b.Bindings().NamedArgs()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	b := byID(ctx, p.ID)
	args := b.Bindings().NamedArgs()
	args["clinicId"] = p.ClinicID
	args["firstName"] = p.FirstName
	args["lastName"] = p.LastName
	args["email"] = p.Email
	args["birthDate"] = p.BirthDate
	args["gender"] = p.Gender

	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient p SET
			clinic_id = @clinicId, first_name = @firstName, last_name = @lastName,
			email = @email, birth_date = @birthDate, gender = @gender, updated_at = NOW()`+
		b.Where()+` RETURNING p.organization_id, p.created_at, p.updated_at`, args,
	).Scan(&p.OrganizationID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	b := byID(ctx, id)
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient p`+b.Where(), b.Bindings().NamedArgs())
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ClinicInOrganization(ctx context.Context, clinicID uuid.UUID, org string) (bool, error) {
	return db.BelongsTo(ctx, r.conn(ctx), "clinic", clinicID, org)
}

func (r *repoPG) Search(ctx context.Context, f Filter, p pagination.Params) ([]*Patient, int64, error) {
	return query.Fetch(ctx, r.conn(ctx), searchSelect(tenant.IDFromContext(ctx), f, p), scanPatient)
}

func searchSelect(tenantID *string, f Filter, p pagination.Params) query.Select {
	b := query.NewBuilder().
		Equals(tenantID, "p.organization_id", "tenantId").
		MultiTokenSearch(f.Name, "p.first_name", "p.last_name", "name").
		SubstringMatch(f.Email, "p.email", "email").
		Equals(f.Gender, "p.gender", "gender").
		Equals(f.ClinicID, "p.clinic_id", "clinicId").
		Range(f.BornFrom, "p.birth_date", "bornFrom", f.BornTo, "p.birth_date", "bornTo").
		SubstringMatch(f.Diagnosis, "mr.diagnosis", "diagnosis")

	from := query.From{Table: "patient", Alias: "p"}
	if strings.TrimSpace(f.Diagnosis) != "" {
		from.Joins = append(from.Joins, recordsJoin)
	}

	return query.Select{
		Columns:     patientCols,
		From:        from,
		Where:       b,
		Sort:        query.ParseSort(p.Sort),
		SortColumns: sortColumns,
		Limit:       p.Limit(),
		Offset:      p.Offset(),
	}
}
