package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/repository"

	"github.com/lib/pq"
)

type pgFacilityRepository struct {
	db *sql.DB
}

func NewPgFacilityRepository(db *sql.DB) repository.FacilityRepository {
	return &pgFacilityRepository{db: db}
}

func (r *pgFacilityRepository) Create(ctx context.Context, facility *domain.Facility, capacity map[domain.VehicleClass]int) (*domain.Facility, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("FacilityRepository.Create (begin tx): %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO facilities (name, address, created_at, updated_at)
	           VALUES ($1, $2, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query, facility.Name, facility.Address).
		Scan(&facility.ID, &facility.CreatedAt, &facility.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: tên bãi đỗ '%s' đã tồn tại", repository.ErrDuplicateEntry, facility.Name)
		}
		return nil, fmt.Errorf("FacilityRepository.Create: %w", err)
	}

	// Seed sức chứa: remaining bắt đầu bằng total.
	facility.Capacities = facility.Capacities[:0]
	for _, class := range domain.AllVehicleClasses {
		total := capacity[class]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO facility_capacities (facility_id, vehicle_class, total, remaining) VALUES ($1, $2, $3, $3)`,
			facility.ID, class, total)
		if err != nil {
			return nil, fmt.Errorf("FacilityRepository.Create (seed capacity %s): %w", class, err)
		}
		facility.Capacities = append(facility.Capacities, domain.CapacityInfo{
			VehicleClass: class, Total: total, Remaining: total,
		})
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("FacilityRepository.Create (commit): %w", err)
	}
	facility.CreatedAt = facility.CreatedAt.In(time.UTC)
	facility.UpdatedAt = facility.UpdatedAt.In(time.UTC)
	return facility, nil
}

func (r *pgFacilityRepository) FindByID(ctx context.Context, id int) (*domain.Facility, error) {
	facility := &domain.Facility{}
	query := `SELECT id, name, address, created_at, updated_at FROM facilities WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&facility.ID, &facility.Name, &facility.Address, &facility.CreatedAt, &facility.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("FacilityRepository.FindByID: %w", err)
	}
	facility.CreatedAt = facility.CreatedAt.In(time.UTC)
	facility.UpdatedAt = facility.UpdatedAt.In(time.UTC)

	caps, err := r.GetCapacity(ctx, id)
	if err != nil {
		return nil, err
	}
	facility.Capacities = caps
	return facility, nil
}

func (r *pgFacilityRepository) FindAll(ctx context.Context) ([]domain.Facility, error) {
	query := `SELECT id, name, address, created_at, updated_at FROM facilities ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("FacilityRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var facilities []domain.Facility
	for rows.Next() {
		var f domain.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Address, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("FacilityRepository.FindAll (scanning row): %w", err)
		}
		f.CreatedAt = f.CreatedAt.In(time.UTC)
		f.UpdatedAt = f.UpdatedAt.In(time.UTC)
		facilities = append(facilities, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("FacilityRepository.FindAll (rows error): %w", err)
	}
	return facilities, nil
}

func (r *pgFacilityRepository) Update(ctx context.Context, facility *domain.Facility) (*domain.Facility, error) {
	query := `UPDATE facilities SET name = $1, address = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $3 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, facility.Name, facility.Address, facility.ID).
		Scan(&facility.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("FacilityRepository.Update: %w", err)
	}
	facility.UpdatedAt = facility.UpdatedAt.In(time.UTC)
	return facility, nil
}

func (r *pgFacilityRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("FacilityRepository.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("FacilityRepository.Delete (rows affected): %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgFacilityRepository) GetCapacity(ctx context.Context, facilityID int) ([]domain.CapacityInfo, error) {
	query := `SELECT vehicle_class, total, remaining FROM facility_capacities
	           WHERE facility_id = $1 ORDER BY vehicle_class`
	rows, err := r.db.QueryContext(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("FacilityRepository.GetCapacity: %w", err)
	}
	defer rows.Close()

	var caps []domain.CapacityInfo
	for rows.Next() {
		var c domain.CapacityInfo
		if err := rows.Scan(&c.VehicleClass, &c.Total, &c.Remaining); err != nil {
			return nil, fmt.Errorf("FacilityRepository.GetCapacity (scanning row): %w", err)
		}
		caps = append(caps, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("FacilityRepository.GetCapacity (rows error): %w", err)
	}
	if len(caps) == 0 {
		return nil, repository.ErrNotFound
	}
	return caps, nil
}
