package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/resort-reservation/internal/model"
)

// ErrServiceNotFound is returned when a hotel service lookup fails.
var ErrServiceNotFound = errors.New("service not found")

// ServiceRepo stores the amenities offered by the resort.
type ServiceRepo struct{ db *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceColumns = `id, name, description, TIME_FORMAT(opening_time, '%H:%i'), TIME_FORMAT(closing_time, '%H:%i'),
                        base_cost_cents, registration_date`

func scanService(s rowScanner) (*model.Service, error) {
	var (
		sv   model.Service
		desc sql.NullString
	)
	if err := s.Scan(&sv.ServiceID, &sv.Name, &desc, &sv.OpeningTime, &sv.ClosingTime,
		&sv.BaseCostCents, &sv.RegistrationDate); err != nil {
		return nil, err
	}
	sv.Description = nullString(desc)
	return &sv, nil
}

// Create inserts a service and returns it with its ID and timestamp.
func (r *ServiceRepo) Create(ctx context.Context, sv *model.Service) error {
	const q = `INSERT INTO services (name, description, opening_time, closing_time, base_cost_cents) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, sv.Name, sv.Description, sv.OpeningTime, sv.ClosingTime, sv.BaseCostCents)
	if err != nil {
		return TranslateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*sv = *created
	return nil
}

// GetByID returns ErrServiceNotFound when no row matches.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.Service, error) {
	sv, err := scanService(r.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, TranslateError(err)
	}
	return sv, nil
}

// List returns all services ordered by name.
func (r *ServiceRepo) List(ctx context.Context) ([]model.Service, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY name`)
	if err != nil {
		return nil, TranslateError(err)
	}
	defer rows.Close()
	var out []model.Service
	for rows.Next() {
		sv, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sv)
	}
	return out, TranslateError(rows.Err())
}

// Delete removes a service by id.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return TranslateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrServiceNotFound
	}
	return nil
}
