package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/repository"
)

type pgGateRepository struct {
	db *sql.DB
}

func NewPgGateRepository(db *sql.DB) repository.GateRepository {
	return &pgGateRepository{db: db}
}

func (r *pgGateRepository) Create(ctx context.Context, gate *domain.Gate) (*domain.Gate, error) {
	query := `INSERT INTO gates (facility_id, name, direction, esp32_thing_name, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, gate.FacilityID, gate.Name, gate.Direction, gate.Esp32ThingName).
		Scan(&gate.ID, &gate.CreatedAt, &gate.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("GateRepository.Create: %w", err)
	}
	gate.CreatedAt = gate.CreatedAt.In(time.UTC)
	gate.UpdatedAt = gate.UpdatedAt.In(time.UTC)
	return gate, nil
}

func (r *pgGateRepository) FindByID(ctx context.Context, id int) (*domain.Gate, error) {
	gate := &domain.Gate{}
	query := `SELECT id, facility_id, name, direction, esp32_thing_name, created_at, updated_at
	           FROM gates WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&gate.ID, &gate.FacilityID, &gate.Name, &gate.Direction, &gate.Esp32ThingName, &gate.CreatedAt, &gate.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("GateRepository.FindByID: %w", err)
	}
	gate.CreatedAt = gate.CreatedAt.In(time.UTC)
	gate.UpdatedAt = gate.UpdatedAt.In(time.UTC)
	return gate, nil
}

func (r *pgGateRepository) FindByFacilityID(ctx context.Context, facilityID int) ([]domain.Gate, error) {
	query := `SELECT id, facility_id, name, direction, esp32_thing_name, created_at, updated_at
	           FROM gates WHERE facility_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("GateRepository.FindByFacilityID: %w", err)
	}
	defer rows.Close()

	var gates []domain.Gate
	for rows.Next() {
		var g domain.Gate
		if err := rows.Scan(&g.ID, &g.FacilityID, &g.Name, &g.Direction, &g.Esp32ThingName, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("GateRepository.FindByFacilityID (scanning row): %w", err)
		}
		g.CreatedAt = g.CreatedAt.In(time.UTC)
		g.UpdatedAt = g.UpdatedAt.In(time.UTC)
		gates = append(gates, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("GateRepository.FindByFacilityID (rows error): %w", err)
	}
	return gates, nil
}

// Update cố tình không đụng đến cột direction.
func (r *pgGateRepository) Update(ctx context.Context, gate *domain.Gate) (*domain.Gate, error) {
	query := `UPDATE gates SET name = $1, esp32_thing_name = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $3 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, gate.Name, gate.Esp32ThingName, gate.ID).
		Scan(&gate.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("GateRepository.Update: %w", err)
	}
	gate.UpdatedAt = gate.UpdatedAt.In(time.UTC)
	return gate, nil
}

func (r *pgGateRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("GateRepository.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("GateRepository.Delete (rows affected): %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
