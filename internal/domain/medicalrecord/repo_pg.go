package medicalrecord

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const recordCols = `mr.id, mr.organization_id, mr.patient_id, mr.doctor_id, mr.visit_date,
	mr.diagnosis, mr.notes, mr.created_at, mr.updated_at`

// Joined rows must share the record's organization so name filters never
// reach into another tenant.
var (
	patientJoin = query.Join{Table: "patient", Alias: "p", On: "p.id = mr.patient_id AND p.organization_id = mr.organization_id"}
	doctorJoin  = query.Join{Table: "doctor", Alias: "d", On: "d.id = mr.doctor_id AND d.organization_id = mr.organization_id"}
)

var sortColumns = map[string]string{
	"visitDate": "visit_date",
	"diagnosis": "diagnosis",
	"createdAt": "created_at",
}

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.OrganizationID, &m.PatientID, &m.DoctorID, &m.VisitDate,
		&m.Diagnosis, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func byID(ctx context.Context, id uuid.UUID) *query.Builder {
	return query.NewBuilder().
		Equals(id, "mr.id", "id").
		Equals(tenant.IDFromContext(ctx), "mr.organization_id", "tenantId")
}

func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		return ErrUnknownReference
	default:
		return fmt.Errorf("%s medical record: %w", op, err)
	}
}

func (r *repoPG) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_record (id, organization_id, patient_id, doctor_id, visit_date, diagnosis, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		m.ID, m.OrganizationID, m.PatientID, m.DoctorID, m.VisitDate, m.Diagnosis, m.Notes,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return mapWriteErr("insert", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	b := byID(ctx, id)
	m, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_record mr`+b.Where(), b.Bindings().NamedArgs()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get medical record: %w", err)
	}
	return m, nil
}

func (r *repoPG) Update(ctx context.Context, m *MedicalRecord) error {
	b := byID(ctx, m.ID)
	args := b.Bindings().NamedArgs()
	args["patientId"] = m.PatientID
	args["doctorId"] = m.DoctorID
	args["visitDate"] = m.VisitDate
	args["diagnosis"] = m.Diagnosis
	args["notes"] = m.Notes

	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medical_record mr SET
			patient_id = @patientId, doctor_id = @doctorId, visit_date = @visitDate,
			diagnosis = @diagnosis, notes = @notes, updated_at = NOW()`+
		b.Where()+` RETURNING mr.organization_id, mr.created_at, mr.updated_at`, args,
	).Scan(&m.OrganizationID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return mapWriteErr("update", err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	b := byID(ctx, id)
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_record mr`+b.Where(), b.Bindings().NamedArgs())
	if err != nil {
		return fmt.Errorf("delete medical record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ParticipantsInOrganization(ctx context.Context, patientID, doctorID uuid.UUID, org string) (bool, error) {
	ok, err := db.BelongsTo(ctx, r.conn(ctx), "patient", patientID, org)
	if err != nil || !ok {
		return false, err
	}
	return db.BelongsTo(ctx, r.conn(ctx), "doctor", doctorID, org)
}

func (r *repoPG) Search(ctx context.Context, f Filter, p pagination.Params) ([]*MedicalRecord, int64, error) {
	return query.Fetch(ctx, r.conn(ctx), searchSelect(tenant.IDFromContext(ctx), f, p), scanRecord)
}

func searchSelect(tenantID *string, f Filter, p pagination.Params) query.Select {
	b := query.NewBuilder().
		Equals(tenantID, "mr.organization_id", "tenantId").
		Equals(f.PatientID, "mr.patient_id", "patientId").
		Equals(f.DoctorID, "mr.doctor_id", "doctorId").
		Range(f.VisitFrom, "mr.visit_date", "visitFrom", f.VisitTo, "mr.visit_date", "visitTo").
		SubstringMatch(f.Diagnosis, "mr.diagnosis", "diagnosis").
		MultiTokenSearch(f.PatientName, "p.first_name", "p.last_name", "patient").
		MultiTokenSearch(f.DoctorName, "d.first_name", "d.last_name", "doctor")

	from := query.From{Table: "medical_record", Alias: "mr"}
	if strings.TrimSpace(f.PatientName) != "" {
		from.Joins = append(from.Joins, patientJoin)
	}
	if strings.TrimSpace(f.DoctorName) != "" {
		from.Joins = append(from.Joins, doctorJoin)
	}

	return query.Select{
		Columns:     recordCols,
		From:        from,
		Where:       b,
		Sort:        query.ParseSort(p.Sort),
		SortColumns: sortColumns,
		Limit:       p.Limit(),
		Offset:      p.Offset(),
	}
}
