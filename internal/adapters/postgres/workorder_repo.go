package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// WorkOrderRepo implements ports.WorkOrderRepository.
type WorkOrderRepo struct {
	db *DB
}

func NewWorkOrderRepo(db *DB) *WorkOrderRepo {
	return &WorkOrderRepo{db: db}
}

func (r *WorkOrderRepo) Create(ctx context.Context, wo *domain.WorkOrder) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO work_orders (farm_id, product_id, aircraft_id, field_ids, planned_date, dosage, pilot,
		                         status, planned_area_ha, volume_required_l, estimated_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, wo.FarmID, wo.ProductID, wo.AircraftID, wo.FieldIDs, wo.PlannedDate, wo.Dosage, nilIfEmpty(wo.Pilot),
		string(wo.Status), wo.PlannedAreaHa, wo.VolumeRequiredL, wo.EstimatedCost, wo.CreatedAt, wo.UpdatedAt,
	).Scan(&wo.ID)
	return mapErr(err)
}

func (r *WorkOrderRepo) GetByID(ctx context.Context, id string) (*domain.WorkOrder, error) {
	rows, err := r.db.Pool.Query(ctx, workOrderSelect+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	orders, err := scanWorkOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	return &orders[0], nil
}

func (r *WorkOrderRepo) List(ctx context.Context, f domain.WorkOrderFilter) ([]domain.WorkOrder, error) {
	var where []string
	var args []any
	if f.FarmID != "" {
		args = append(args, f.FarmID)
		where = append(where, fmt.Sprintf("farm_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := workOrderSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	q += fmt.Sprintf(" ORDER BY planned_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanWorkOrders(rows)
}

func (r *WorkOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.WorkOrderStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE work_orders SET status = $2, updated_at = now() WHERE id = $1
	`, id, string(status))
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const workOrderSelect = `
	SELECT id, farm_id, product_id, aircraft_id, field_ids, planned_date, dosage, COALESCE(pilot, ''),
	       status, planned_area_ha, volume_required_l, estimated_cost, created_at, updated_at
	FROM work_orders`

func scanWorkOrders(rows rowsScanner) ([]domain.WorkOrder, error) {
	defer rows.Close()

	var orders []domain.WorkOrder
	for rows.Next() {
		var wo domain.WorkOrder
		var status string
		if err := rows.Scan(
			&wo.ID, &wo.FarmID, &wo.ProductID, &wo.AircraftID, &wo.FieldIDs, &wo.PlannedDate, &wo.Dosage, &wo.Pilot,
			&status, &wo.PlannedAreaHa, &wo.VolumeRequiredL, &wo.EstimatedCost, &wo.CreatedAt, &wo.UpdatedAt,
		); err != nil {
			return nil, err
		}
		wo.Status = domain.WorkOrderStatus(status)
		orders = append(orders, wo)
	}
	return orders, rows.Err()
}
