package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepanel/carepanel/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Executor(ctx, r.pool)
}

const patientCols = `id, first_name, last_name, date_of_birth, email, phone,
	address_street, address_city, address_state, address_zip_code, address_country,
	emergency_contact_name, emergency_contact_relationship, emergency_contact_phone, emergency_contact_email,
	allergies, conditions, blood_type, last_visit, status,
	insurance_provider, insurance_policy_number, insurance_group_number,
	insurance_effective_date, insurance_expiration_date, insurance_copay, insurance_deductible,
	created_at, updated_at`

const medicationCols = `id, patient_id, name, dosage, frequency, prescribed_by, start_date, end_date, is_active`

const documentCols = `id, patient_id, type, name, upload_date, file_size, mime_type, url`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (`+patientCols+`) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,$11,
			$12,$13,$14,$15,
			$16,$17,$18,$19,$20,
			$21,$22,$23,
			$24,$25,$26,$27,
			$28,$29
		)`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Email, p.Phone,
		p.AddressStreet, p.AddressCity, p.AddressState, p.AddressZipCode, p.AddressCountry,
		p.EmergencyContactName, p.EmergencyContactRelationship, p.EmergencyContactPhone, p.EmergencyContactEmail,
		nonNil(p.Allergies), nonNil(p.Conditions), p.BloodType, p.LastVisit, p.Status,
		p.InsuranceProvider, p.InsurancePolicyNumber, p.InsuranceGroupNumber,
		p.InsuranceEffectiveDate, p.InsuranceExpirationDate, p.InsuranceCopay, p.InsuranceDeductible,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return r.insertMedications(ctx, p.Medications)
}

func (r *repoPG) insertMedications(ctx context.Context, meds []*Medication) error {
	for _, m := range meds {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO medications (`+medicationCols+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			m.ID, m.PatientID, m.Name, m.Dosage, m.Frequency, m.PrescribedBy, m.StartDate, m.EndDate, m.IsActive,
		)
		if err != nil {
			return fmt.Errorf("insert medication: %w", err)
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Patient, error) {
	p, err := r.getRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if p.Medications, err = r.medications(ctx, id); err != nil {
		return nil, err
	}
	if p.Documents, err = r.documents(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) GetForUpdate(ctx context.Context, id string) (*Patient, error) {
	return r.getRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1 FOR UPDATE`, id)
}

func (r *repoPG) getRow(ctx context.Context, sql, id string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, sql, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *repoPG) medications(ctx context.Context, patientID string) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+medicationCols+` FROM medications
		WHERE patient_id = $1 ORDER BY start_date, name`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Frequency,
			&m.PrescribedBy, &m.StartDate, &m.EndDate, &m.IsActive); err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *repoPG) documents(ctx context.Context, patientID string) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+documentCols+` FROM documents
		WHERE patient_id = $1 ORDER BY upload_date DESC, name`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.PatientID, &d.Type, &d.Name, &d.UploadDate,
			&d.FileSize, &d.MimeType, &d.URL); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *repoPG) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1 AND id <> $2)`,
		email, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient email: %w", err)
	}
	return exists, nil
}

func (r *repoPG) Update(ctx context.Context, id string, ch Changes, now time.Time) error {
	sql, args, err := UpdateSQL(id, ch, now)
	if err != nil {
		return fmt.Errorf("build patient update: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ReplaceMedications(ctx context.Context, id string, meds []*Medication) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM medications WHERE patient_id = $1`, id); err != nil {
		return fmt.Errorf("delete medications: %w", err)
	}
	return r.insertMedications(ctx, meds)
}

func (r *repoPG) AddDocuments(ctx context.Context, docs []*Document) error {
	for _, d := range docs {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO documents (`+documentCols+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			d.ID, d.PatientID, d.Type, d.Name, d.UploadDate, d.FileSize, d.MimeType, d.URL,
		)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q ListQuery, today time.Time) ([]*Summary, int, error) {
	countSQL, countArgs, err := q.CountSQL(today)
	if err != nil {
		return nil, 0, fmt.Errorf("build patient count: %w", err)
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	pageSQL, pageArgs, err := q.PageSQL(today)
	if err != nil {
		return nil, 0, fmt.Errorf("build patient page: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.DateOfBirth, &s.Email, &s.Phone,
			&s.Status, &s.LastVisit, &s.BloodType, &s.InsuranceProvider); err != nil {
			return nil, 0, fmt.Errorf("scan patient summary: %w", err)
		}
		items = append(items, &s)
	}
	return items, total, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Email, &p.Phone,
		&p.AddressStreet, &p.AddressCity, &p.AddressState, &p.AddressZipCode, &p.AddressCountry,
		&p.EmergencyContactName, &p.EmergencyContactRelationship, &p.EmergencyContactPhone, &p.EmergencyContactEmail,
		&p.Allergies, &p.Conditions, &p.BloodType, &p.LastVisit, &p.Status,
		&p.InsuranceProvider, &p.InsurancePolicyNumber, &p.InsuranceGroupNumber,
		&p.InsuranceEffectiveDate, &p.InsuranceExpirationDate, &p.InsuranceCopay, &p.InsuranceDeductible,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
