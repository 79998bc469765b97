package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"shelfsim-api-go/internal/models"
)

const layoutColumns = `layout_id, schema_version, type, grid_size_x, grid_size_y, warehouse_x, warehouse_y, cells_json, cell_count, created_at`

// CreateLayout inserts a layout in a single statement. A clash on layout_id
// surfaces as ErrDuplicate, so concurrent creates cannot both succeed.
func (s *Store) CreateLayout(ctx context.Context, layout *models.Layout) error {
	cellsJSON, err := encodeCells(layout.Cells)
	if err != nil {
		return err
	}
	layout.CellCount = len(layout.Cells)
	layout.CreatedAt = fromMillis(toMillis(s.now()))

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO layouts (`+layoutColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		layout.LayoutID,
		layout.SchemaVersion,
		layout.Type,
		layout.GridSize.X,
		layout.GridSize.Y,
		layout.Warehouse.X,
		layout.Warehouse.Y,
		cellsJSON,
		layout.CellCount,
		toMillis(layout.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert layout: %w", mapError(err))
	}
	return nil
}

// GetLayout returns a layout with decoded cells, or nil when absent.
func (s *Store) GetLayout(ctx context.Context, layoutID string) (*models.Layout, error) {
	var (
		layout    models.Layout
		cellsJSON string
		createdMs int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT `+layoutColumns+` FROM layouts WHERE layout_id = ?`, layoutID).Scan(
		&layout.LayoutID,
		&layout.SchemaVersion,
		&layout.Type,
		&layout.GridSize.X,
		&layout.GridSize.Y,
		&layout.Warehouse.X,
		&layout.Warehouse.Y,
		&cellsJSON,
		&layout.CellCount,
		&createdMs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select layout: %w", err)
	}
	cells, err := decodeCells(cellsJSON)
	if err != nil {
		return nil, err
	}
	layout.Cells = cells
	layout.CreatedAt = fromMillis(createdMs)
	return &layout, nil
}

// ListLayouts returns summaries of every layout, newest first. Cell data is not read.
func (s *Store) ListLayouts(ctx context.Context) ([]models.LayoutSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT layout_id, created_at, cell_count FROM layouts ORDER BY created_at DESC, layout_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select layouts: %w", err)
	}
	defer rows.Close()

	out := []models.LayoutSummary{}
	for rows.Next() {
		var (
			summary   models.LayoutSummary
			createdMs int64
		)
		if err := rows.Scan(&summary.LayoutID, &createdMs, &summary.CellCount); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		summary.CreatedAt = fromMillis(createdMs)
		out = append(out, summary)
	}
	return out, rows.Err()
}

// UpdateLayout replaces a layout's fields and recomputes its cell count.
// CreatedAt is left untouched.
func (s *Store) UpdateLayout(ctx context.Context, layout *models.Layout) error {
	cellsJSON, err := encodeCells(layout.Cells)
	if err != nil {
		return err
	}
	layout.CellCount = len(layout.Cells)

	res, err := s.db.ExecContext(ctx,
		`UPDATE layouts
         SET schema_version = ?, type = ?, grid_size_x = ?, grid_size_y = ?,
             warehouse_x = ?, warehouse_y = ?, cells_json = ?, cell_count = ?
         WHERE layout_id = ?`,
		layout.SchemaVersion,
		layout.Type,
		layout.GridSize.X,
		layout.GridSize.Y,
		layout.Warehouse.X,
		layout.Warehouse.Y,
		cellsJSON,
		layout.CellCount,
		layout.LayoutID,
	)
	if err != nil {
		return fmt.Errorf("update layout: %w", err)
	}
	return requireAffected(res)
}

func encodeCells(cells []models.CellData) (string, error) {
	if cells == nil {
		cells = []models.CellData{}
	}
	raw, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("encode cells: %w", err)
	}
	return string(raw), nil
}

func decodeCells(raw string) ([]models.CellData, error) {
	cells := []models.CellData{}
	if raw == "" {
		return cells, nil
	}
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("decode cells: %w", err)
	}
	return cells, nil
}
