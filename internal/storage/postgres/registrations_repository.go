package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/expotrade/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExhibitorRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const exhibitorColumns = `id, company_name, contact_person_name, designation, email_address, contact_number, product_service, company_address, status, created_at, updated_at`

func scanExhibitor(row pgx.Row) (storage.ExhibitorRegistration, error) {
	var reg storage.ExhibitorRegistration
	err := row.Scan(
		&reg.ID,
		&reg.CompanyName,
		&reg.ContactPersonName,
		&reg.Designation,
		&reg.EmailAddress,
		&reg.ContactNumber,
		&reg.ProductService,
		&reg.CompanyAddress,
		&reg.Status,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ExhibitorRegistration{}, storage.ErrNotFound
		}
		return storage.ExhibitorRegistration{}, fmt.Errorf("scan exhibitor registration: %w", err)
	}
	return reg, nil
}

func (r *ExhibitorRepository) List(ctx context.Context) ([]storage.ExhibitorRegistration, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx,
		`SELECT `+exhibitorColumns+` FROM exhibitor_registrations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list exhibitor registrations: %w", err)
	}
	defer rows.Close()

	var regs []storage.ExhibitorRegistration
	for rows.Next() {
		reg, err := scanExhibitor(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *ExhibitorRepository) Create(ctx context.Context, reg storage.ExhibitorRegistration) (storage.ExhibitorRegistration, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO exhibitor_registrations
  (id, company_name, contact_person_name, designation, email_address, contact_number, product_service, company_address, status)
VALUES ($1, $2, $3, $4, lower($5), $6, $7, $8, $9)
RETURNING `+exhibitorColumns,
		reg.ID,
		reg.CompanyName,
		reg.ContactPersonName,
		reg.Designation,
		reg.EmailAddress,
		reg.ContactNumber,
		reg.ProductService,
		reg.CompanyAddress,
		reg.Status,
	)
	created, err := scanExhibitor(row)
	if err != nil {
		return storage.ExhibitorRegistration{}, fmt.Errorf("create exhibitor registration: %w", err)
	}
	return created, nil
}

func (r *ExhibitorRepository) GetByID(ctx context.Context, id string) (storage.ExhibitorRegistration, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+exhibitorColumns+` FROM exhibitor_registrations WHERE id = $1`, id)
	return scanExhibitor(row)
}

func (r *ExhibitorRepository) Update(ctx context.Context, reg storage.ExhibitorRegistration) (storage.ExhibitorRegistration, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE exhibitor_registrations
   SET company_name = $2,
       contact_person_name = $3,
       designation = $4,
       email_address = lower($5),
       contact_number = $6,
       product_service = $7,
       company_address = $8,
       status = $9,
       updated_at = now()
 WHERE id = $1
RETURNING `+exhibitorColumns,
		reg.ID,
		reg.CompanyName,
		reg.ContactPersonName,
		reg.Designation,
		reg.EmailAddress,
		reg.ContactNumber,
		reg.ProductService,
		reg.CompanyAddress,
		reg.Status,
	)
	return scanExhibitor(row)
}

func (r *ExhibitorRepository) Delete(ctx context.Context, id string) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx,
		`DELETE FROM exhibitor_registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exhibitor registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type VisitorRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const visitorColumns = `id, first_name, last_name, company_name, email_address, contact_number, industry, created_at, updated_at`

func scanVisitor(row pgx.Row) (storage.VisitorRegistration, error) {
	var reg storage.VisitorRegistration
	err := row.Scan(
		&reg.ID,
		&reg.FirstName,
		&reg.LastName,
		&reg.CompanyName,
		&reg.EmailAddress,
		&reg.ContactNumber,
		&reg.Industry,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.VisitorRegistration{}, storage.ErrNotFound
		}
		return storage.VisitorRegistration{}, fmt.Errorf("scan visitor registration: %w", err)
	}
	return reg, nil
}

func (r *VisitorRepository) List(ctx context.Context) ([]storage.VisitorRegistration, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx,
		`SELECT `+visitorColumns+` FROM visitor_registrations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list visitor registrations: %w", err)
	}
	defer rows.Close()

	var regs []storage.VisitorRegistration
	for rows.Next() {
		reg, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *VisitorRepository) Create(ctx context.Context, reg storage.VisitorRegistration) (storage.VisitorRegistration, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO visitor_registrations
  (id, first_name, last_name, company_name, email_address, contact_number, industry)
VALUES ($1, $2, $3, $4, lower($5), $6, $7)
RETURNING `+visitorColumns,
		reg.ID,
		reg.FirstName,
		reg.LastName,
		reg.CompanyName,
		reg.EmailAddress,
		reg.ContactNumber,
		reg.Industry,
	)
	created, err := scanVisitor(row)
	if err != nil {
		return storage.VisitorRegistration{}, fmt.Errorf("create visitor registration: %w", err)
	}
	return created, nil
}

func (r *VisitorRepository) GetByID(ctx context.Context, id string) (storage.VisitorRegistration, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+visitorColumns+` FROM visitor_registrations WHERE id = $1`, id)
	return scanVisitor(row)
}

func (r *VisitorRepository) Update(ctx context.Context, reg storage.VisitorRegistration) (storage.VisitorRegistration, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE visitor_registrations
   SET first_name = $2,
       last_name = $3,
       company_name = $4,
       email_address = lower($5),
       contact_number = $6,
       industry = $7,
       updated_at = now()
 WHERE id = $1
RETURNING `+visitorColumns,
		reg.ID,
		reg.FirstName,
		reg.LastName,
		reg.CompanyName,
		reg.EmailAddress,
		reg.ContactNumber,
		reg.Industry,
	)
	return scanVisitor(row)
}

func (r *VisitorRepository) Delete(ctx context.Context, id string) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx,
		`DELETE FROM visitor_registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visitor registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
