package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/engine"
	"parking_facility/internal/repository"
)

type pgTransitRepository struct {
	db *sql.DB
}

func NewPgTransitRepository(db *sql.DB) repository.TransitRepository {
	return &pgTransitRepository{db: db}
}

// CreateWithCapacityDelta ghi transit và dịch counter remaining trong cùng
// một transaction. Guard `remaining > 0` trên câu UPDATE là hàng rào cuối
// cùng ở tầng DB: nếu không dòng nào được cập nhật khi delta âm, rollback
// và trả ErrCapacityExhausted thay vì để remaining âm.
func (r *pgTransitRepository) CreateWithCapacityDelta(ctx context.Context, transit *domain.Transit, class domain.VehicleClass, delta int) (*domain.Transit, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("TransitRepository.CreateWithCapacityDelta (begin tx): %w", err)
	}
	defer tx.Rollback()

	insertQuery := `INSERT INTO transits (facility_id, gate_id, plate, type, timestamp, gate_event_id, created_at)
	                 VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
	                 RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, insertQuery,
		transit.FacilityID, transit.GateID, transit.Plate, transit.Type, transit.Timestamp, transit.GateEventID).
		Scan(&transit.ID, &transit.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("TransitRepository.CreateWithCapacityDelta (insert transit): %w", err)
	}

	var result sql.Result
	if delta < 0 {
		result, err = tx.ExecContext(ctx,
			`UPDATE facility_capacities SET remaining = remaining - 1, updated_at = CURRENT_TIMESTAMP
			  WHERE facility_id = $1 AND vehicle_class = $2 AND remaining > 0`,
			transit.FacilityID, class)
	} else {
		// Clamp remaining không vượt total: transit "out" của phiên mở trước
		// khi hệ thống bắt đầu đếm không được đẩy counter quá sức chứa.
		result, err = tx.ExecContext(ctx,
			`UPDATE facility_capacities SET remaining = LEAST(remaining + 1, total), updated_at = CURRENT_TIMESTAMP
			  WHERE facility_id = $1 AND vehicle_class = $2`,
			transit.FacilityID, class)
	}
	if err != nil {
		return nil, fmt.Errorf("TransitRepository.CreateWithCapacityDelta (update capacity): %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("TransitRepository.CreateWithCapacityDelta (rows affected): %w", err)
	}
	if affected == 0 {
		if delta < 0 {
			return nil, engine.ErrCapacityExhausted
		}
		return nil, fmt.Errorf("TransitRepository.CreateWithCapacityDelta: không có dòng sức chứa cho bãi %d loại xe %s", transit.FacilityID, class)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("TransitRepository.CreateWithCapacityDelta (commit): %w", err)
	}
	transit.Timestamp = transit.Timestamp.In(time.UTC)
	transit.CreatedAt = transit.CreatedAt.In(time.UTC)
	return transit, nil
}

const transitColumns = `id, facility_id, gate_id, plate, type, timestamp, gate_event_id, created_at`

func scanTransit(row interface{ Scan(...any) error }, t *domain.Transit) error {
	err := row.Scan(&t.ID, &t.FacilityID, &t.GateID, &t.Plate, &t.Type, &t.Timestamp, &t.GateEventID, &t.CreatedAt)
	if err != nil {
		return err
	}
	t.Timestamp = t.Timestamp.In(time.UTC)
	t.CreatedAt = t.CreatedAt.In(time.UTC)
	return nil
}

func (r *pgTransitRepository) FindByID(ctx context.Context, id int) (*domain.Transit, error) {
	transit := &domain.Transit{}
	query := `SELECT ` + transitColumns + ` FROM transits WHERE id = $1`
	if err := scanTransit(r.db.QueryRowContext(ctx, query, id), transit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("TransitRepository.FindByID: %w", err)
	}
	return transit, nil
}

func (r *pgTransitRepository) FindLastByPlate(ctx context.Context, plate string) (*domain.Transit, error) {
	transit := &domain.Transit{}
	// Tie-break theo id: hai transit cùng timestamp thì cái ghi sau thắng.
	query := `SELECT ` + transitColumns + ` FROM transits
	           WHERE plate = $1 ORDER BY timestamp DESC, id DESC LIMIT 1`
	if err := scanTransit(r.db.QueryRowContext(ctx, query, plate), transit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("TransitRepository.FindLastByPlate: %w", err)
	}
	return transit, nil
}

func (r *pgTransitRepository) FindByFacilityAndRange(ctx context.Context, facilityID int, class *domain.VehicleClass, from, to time.Time) ([]domain.Transit, error) {
	query := `SELECT t.id, t.facility_id, t.gate_id, t.plate, t.type, t.timestamp, t.gate_event_id, t.created_at
	           FROM transits t`
	args := []any{facilityID, from, to}
	if class != nil {
		query += ` JOIN vehicles v ON v.plate = t.plate`
	}
	query += ` WHERE t.facility_id = $1 AND t.timestamp >= $2 AND t.timestamp <= $3`
	if class != nil {
		query += ` AND v.vehicle_class = $4`
		args = append(args, *class)
	}
	query += ` ORDER BY t.timestamp ASC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("TransitRepository.FindByFacilityAndRange: %w", err)
	}
	defer rows.Close()

	var transits []domain.Transit
	for rows.Next() {
		var t domain.Transit
		if err := scanTransit(rows, &t); err != nil {
			return nil, fmt.Errorf("TransitRepository.FindByFacilityAndRange (scanning row): %w", err)
		}
		transits = append(transits, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("TransitRepository.FindByFacilityAndRange (rows error): %w", err)
	}
	return transits, nil
}

func (r *pgTransitRepository) Find(ctx context.Context, filter domain.TransitFilterDTO) ([]domain.Transit, error) {
	query := `SELECT ` + transitColumns + ` FROM transits WHERE 1=1`
	var args []any
	idx := 1
	if filter.FacilityID != nil {
		query += ` AND facility_id = $` + strconv.Itoa(idx)
		args = append(args, *filter.FacilityID)
		idx++
	}
	if filter.Plate != nil {
		query += ` AND plate = $` + strconv.Itoa(idx)
		args = append(args, *filter.Plate)
		idx++
	}
	if filter.Type != nil {
		query += ` AND type = $` + strconv.Itoa(idx)
		args = append(args, *filter.Type)
		idx++
	}
	if filter.From != nil {
		from, err := time.Parse(time.RFC3339, *filter.From)
		if err != nil {
			return nil, fmt.Errorf("TransitRepository.Find: tham số from không hợp lệ: %w", err)
		}
		query += ` AND timestamp >= $` + strconv.Itoa(idx)
		args = append(args, from)
		idx++
	}
	if filter.To != nil {
		to, err := time.Parse(time.RFC3339, *filter.To)
		if err != nil {
			return nil, fmt.Errorf("TransitRepository.Find: tham số to không hợp lệ: %w", err)
		}
		query += ` AND timestamp <= $` + strconv.Itoa(idx)
		args = append(args, to)
		idx++
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT 500`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("TransitRepository.Find: %w", err)
	}
	defer rows.Close()

	var transits []domain.Transit
	for rows.Next() {
		var t domain.Transit
		if err := scanTransit(rows, &t); err != nil {
			return nil, fmt.Errorf("TransitRepository.Find (scanning row): %w", err)
		}
		transits = append(transits, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("TransitRepository.Find (rows error): %w", err)
	}
	return transits, nil
}
