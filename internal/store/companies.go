package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"placement/internal/errors"
	"placement/internal/placement"
)

const companyColumns = `id, name, industry, website, status, created_at`

func scanCompany(row rowScanner) (placement.Company, error) {
	var c placement.Company
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.Website, &c.Status, &createdAt); err != nil {
		return placement.Company{}, err
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

// CreateCompany inserts a company. Names are unique.
func (s *Store) CreateCompany(ctx context.Context, c placement.Company) (placement.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return placement.Company{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "company name is required", nil)
	}
	if c.Status == "" {
		c.Status = "active"
	}
	c.ID = newID()
	c.CreatedAt = s.now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM companies WHERE name = ?`), c.Name).Scan(&existing)
		switch {
		case err == nil:
			return errors.NewConflictError(errors.ErrCodeDuplicate, "company already exists", nil).
				WithContext("name", c.Name)
		case !stderrors.Is(err, sql.ErrNoRows):
			return storeErr("failed to look up company", err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			c.ID, c.Name, c.Industry, c.Website, c.Status, formatTime(c.CreatedAt))
		if err != nil {
			return storeErr("failed to insert company", err)
		}
		return nil
	})
	if err != nil {
		return placement.Company{}, err
	}
	return c, nil
}

// GetCompany returns a company by id.
func (s *Store) GetCompany(ctx context.Context, id string) (placement.Company, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+companyColumns+` FROM companies WHERE id = ?`), id)
	c, err := scanCompany(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return placement.Company{}, notFound("company", id)
	}
	if err != nil {
		return placement.Company{}, storeErr("failed to read company", err)
	}
	return c, nil
}

// ListCompanies returns all companies ordered by name.
func (s *Store) ListCompanies(ctx context.Context) ([]placement.Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, storeErr("failed to list companies", err)
	}
	defer rows.Close()

	companies := []placement.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, storeErr("failed to scan company", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to list companies", err)
	}
	return companies, nil
}
