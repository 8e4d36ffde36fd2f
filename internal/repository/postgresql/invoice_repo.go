package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/repository"
)

type pgInvoiceRepository struct {
	db *sql.DB
}

func NewPgInvoiceRepository(db *sql.DB) repository.InvoiceRepository {
	return &pgInvoiceRepository{db: db}
}

const invoiceColumns = `id, facility_id, plate, vehicle_class, entry_time, exit_time, amount, uncovered_minutes, created_at`

func scanInvoice(row interface{ Scan(...any) error }, inv *domain.Invoice) error {
	var amount string
	err := row.Scan(&inv.ID, &inv.FacilityID, &inv.Plate, &inv.VehicleClass,
		&inv.EntryTime, &inv.ExitTime, &amount, &inv.UncoveredMinutes, &inv.CreatedAt)
	if err != nil {
		return err
	}
	inv.Amount, err = decimalFromDB(amount)
	if err != nil {
		return err
	}
	inv.EntryTime = inv.EntryTime.In(time.UTC)
	inv.ExitTime = inv.ExitTime.In(time.UTC)
	inv.CreatedAt = inv.CreatedAt.In(time.UTC)
	return nil
}

func (r *pgInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	query := `INSERT INTO invoices (facility_id, plate, vehicle_class, entry_time, exit_time, amount, uncovered_minutes, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
	           RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		invoice.FacilityID, invoice.Plate, invoice.VehicleClass,
		invoice.EntryTime, invoice.ExitTime, invoice.Amount.StringFixed(2), invoice.UncoveredMinutes).
		Scan(&invoice.ID, &invoice.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("InvoiceRepository.Create: %w", err)
	}
	invoice.CreatedAt = invoice.CreatedAt.In(time.UTC)
	return invoice, nil
}

func (r *pgInvoiceRepository) FindByID(ctx context.Context, id int) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	if err := scanInvoice(r.db.QueryRowContext(ctx, query, id), invoice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("InvoiceRepository.FindByID: %w", err)
	}
	return invoice, nil
}

func (r *pgInvoiceRepository) Find(ctx context.Context, filter domain.InvoiceFilterDTO) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
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
	query += ` ORDER BY created_at DESC, id DESC LIMIT 500`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("InvoiceRepository.Find: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("InvoiceRepository.Find (scanning row): %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("InvoiceRepository.Find (rows error): %w", err)
	}
	return invoices, nil
}
