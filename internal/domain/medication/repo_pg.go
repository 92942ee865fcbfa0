package medication

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

type repoPG struct {
	pool db.Queryable
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const medicationCols = `m.id, m.organization_id, m.medical_record_id, m.name, m.code, m.dosage, m.prescribed_at, m.created_at`

var medicationFrom = query.From{Table: "medication", Alias: "m"}

var sortColumns = map[string]string{
	"name":         "name",
	"code":         "code",
	"prescribedAt": "prescribed_at",
}

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.OrganizationID, &m.MedicalRecordID, &m.Name, &m.Code, &m.Dosage, &m.PrescribedAt, &m.CreatedAt)
	return &m, err
}

func byID(ctx context.Context, id uuid.UUID) *query.Builder {
	return query.NewBuilder().
		Equals(id, "m.id", "id").
		Equals(tenant.IDFromContext(ctx), "m.organization_id", "tenantId")
}

func (r *repoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medication (id, organization_id, medical_record_id, name, code, dosage, prescribed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		m.ID, m.OrganizationID, m.MedicalRecordID, m.Name, m.Code, m.Dosage, m.PrescribedAt,
	).Scan(&m.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrUnknownRecord
	}
	if err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}
	return nil
}

func (r *repoPG) RecordInOrganization(ctx context.Context, recordID uuid.UUID, org string) (bool, error) {
	return db.BelongsTo(ctx, r.conn(ctx), "medical_record", recordID, org)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	b := byID(ctx, id)
	m, err := scanMedication(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicationCols+` FROM medication m`+b.Where(), b.Bindings().NamedArgs()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	b := byID(ctx, id)
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication m`+b.Where(), b.Bindings().NamedArgs())
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, f Filter, p pagination.Params) ([]*Medication, int64, error) {
	return query.Fetch(ctx, r.conn(ctx), searchSelect(tenant.IDFromContext(ctx), f, p), scanMedication)
}

func searchSelect(tenantID *string, f Filter, p pagination.Params) query.Select {
	b := query.NewBuilder().
		Equals(tenantID, "m.organization_id", "tenantId").
		SubstringMatch(f.Name, "m.name", "").
		Equals(f.Code, "m.code", "").
		Equals(f.MedicalRecordID, "m.medical_record_id", "medicalRecordId").
		Range(f.PrescribedFrom, "m.prescribed_at", "prescribedFrom", f.PrescribedTo, "m.prescribed_at", "prescribedTo")

	return query.Select{
		Columns:     medicationCols,
		From:        medicationFrom,
		Where:       b,
		Sort:        query.ParseSort(p.Sort),
		SortColumns: sortColumns,
		Limit:       p.Limit(),
		Offset:      p.Offset(),
	}
}
