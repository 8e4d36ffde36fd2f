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

type pgTariffRepository struct {
	db *sql.DB
}

func NewPgTariffRepository(db *sql.DB) repository.TariffRepository {
	return &pgTariffRepository{db: db}
}

const tariffColumns = `id, facility_id, vehicle_class, day_type, start_minute, end_minute, price_per_hour, created_at, updated_at`

func scanTariff(row interface{ Scan(...any) error }, w *domain.TariffWindow) error {
	var price string
	err := row.Scan(&w.ID, &w.FacilityID, &w.VehicleClass, &w.DayType, &w.StartMinute, &w.EndMinute, &price, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return err
	}
	// Cột NUMERIC scan về string rồi parse để không mất độ chính xác.
	w.PricePerHour, err = decimalFromDB(price)
	if err != nil {
		return err
	}
	w.CreatedAt = w.CreatedAt.In(time.UTC)
	w.UpdatedAt = w.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgTariffRepository) Create(ctx context.Context, window *domain.TariffWindow) (*domain.TariffWindow, error) {
	query := `INSERT INTO tariff_windows (facility_id, vehicle_class, day_type, start_minute, end_minute, price_per_hour, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		window.FacilityID, window.VehicleClass, window.DayType, window.StartMinute, window.EndMinute, window.PricePerHour.String()).
		Scan(&window.ID, &window.CreatedAt, &window.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, fmt.Errorf("%w: bãi đỗ %d không tồn tại", repository.ErrNotFound, window.FacilityID)
		}
		return nil, fmt.Errorf("TariffRepository.Create: %w", err)
	}
	window.CreatedAt = window.CreatedAt.In(time.UTC)
	window.UpdatedAt = window.UpdatedAt.In(time.UTC)
	return window, nil
}

func (r *pgTariffRepository) FindByID(ctx context.Context, id int) (*domain.TariffWindow, error) {
	window := &domain.TariffWindow{}
	query := `SELECT ` + tariffColumns + ` FROM tariff_windows WHERE id = $1`
	if err := scanTariff(r.db.QueryRowContext(ctx, query, id), window); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("TariffRepository.FindByID: %w", err)
	}
	return window, nil
}

func (r *pgTariffRepository) FindByFacility(ctx context.Context, facilityID int) ([]domain.TariffWindow, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariff_windows
	           WHERE facility_id = $1
	           ORDER BY vehicle_class, day_type, start_minute`
	return r.queryWindows(ctx, "FindByFacility", query, facilityID)
}

func (r *pgTariffRepository) FindWindows(ctx context.Context, facilityID int, class domain.VehicleClass, dayType domain.DayType) ([]domain.TariffWindow, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariff_windows
	           WHERE facility_id = $1 AND vehicle_class = $2 AND day_type = $3
	           ORDER BY start_minute`
	return r.queryWindows(ctx, "FindWindows", query, facilityID, class, dayType)
}

func (r *pgTariffRepository) queryWindows(ctx context.Context, op, query string, args ...any) ([]domain.TariffWindow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("TariffRepository.%s: %w", op, err)
	}
	defer rows.Close()

	var windows []domain.TariffWindow
	for rows.Next() {
		var w domain.TariffWindow
		if err := scanTariff(rows, &w); err != nil {
			return nil, fmt.Errorf("TariffRepository.%s (scanning row): %w", op, err)
		}
		windows = append(windows, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("TariffRepository.%s (rows error): %w", op, err)
	}
	return windows, nil
}

func (r *pgTariffRepository) Update(ctx context.Context, window *domain.TariffWindow) (*domain.TariffWindow, error) {
	query := `UPDATE tariff_windows
	           SET vehicle_class = $1, day_type = $2, start_minute = $3, end_minute = $4, price_per_hour = $5, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $6 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		window.VehicleClass, window.DayType, window.StartMinute, window.EndMinute, window.PricePerHour.String(), window.ID).
		Scan(&window.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("TariffRepository.Update: %w", err)
	}
	window.UpdatedAt = window.UpdatedAt.In(time.UTC)
	return window, nil
}

func (r *pgTariffRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tariff_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("TariffRepository.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("TariffRepository.Delete (rows affected): %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
