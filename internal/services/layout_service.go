package services

// File: internal/services/layout_service.go
// Purpose: Layout create/read/update with defaulting of optional fields.

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"shelfsim-api-go/internal/apperr"
	"shelfsim-api-go/internal/db"
	"shelfsim-api-go/internal/models"
	"shelfsim-api-go/internal/mq"
)

// LayoutService coordinates layout persistence.
type LayoutService struct {
	store    *db.Store
	validate *Validator
	events   notifier
	log      *zap.Logger
}

// NewLayoutService constructs a LayoutService with dependencies.
func NewLayoutService(store *db.Store, d Deps) *LayoutService {
	return &LayoutService{store: store, validate: d.Validator, events: newNotifier(d), log: d.Logger}
}

// Create stores a new layout. An existing layout ID yields LAYOUT_ALREADY_EXISTS.
func (s *LayoutService) Create(ctx context.Context, req models.LayoutRequest) (*models.LayoutSummary, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	layout := layoutFromRequest(req)
	if err := s.store.CreateLayout(ctx, &layout); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.CodeLayoutAlreadyExists, fmt.Sprintf("Layout with ID '%s' already exists.", req.LayoutID))
		}
		return nil, apperr.Internal(err)
	}
	s.log.Info("layout created", zap.String("layout_id", layout.LayoutID), zap.Int("cell_count", layout.CellCount))
	s.events.publish(mq.LayoutCreated, map[string]any{
		"layout_id":  layout.LayoutID,
		"cell_count": layout.CellCount,
	})
	summary := layout.Summary()
	return &summary, nil
}

// Get returns the full layout including decoded cells.
func (s *LayoutService) Get(ctx context.Context, layoutID string) (*models.Layout, error) {
	layout, err := s.store.GetLayout(ctx, layoutID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if layout == nil {
		s.log.Warn("layout not found", zap.String("layout_id", layoutID))
		return nil, layoutNotFound(layoutID)
	}
	return layout, nil
}

// List returns every layout summary, newest first.
func (s *LayoutService) List(ctx context.Context) (*models.LayoutList, error) {
	summaries, err := s.store.ListLayouts(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &models.LayoutList{Layouts: summaries}, nil
}

// Update replaces layout layoutID. The body must carry the same ID.
func (s *LayoutService) Update(ctx context.Context, layoutID string, req models.LayoutRequest) (*models.LayoutSummary, error) {
	if req.LayoutID != layoutID {
		return nil, apperr.New(apperr.CodeLayoutIDMismatch, "Layout ID in URL does not match Layout ID in body.", http.StatusBadRequest)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	layout := layoutFromRequest(req)
	if err := s.store.UpdateLayout(ctx, &layout); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, layoutNotFound(layoutID)
		}
		return nil, apperr.Internal(err)
	}
	stored, err := s.store.GetLayout(ctx, layoutID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if stored == nil {
		return nil, layoutNotFound(layoutID)
	}
	s.log.Info("layout updated", zap.String("layout_id", layoutID), zap.Int("cell_count", stored.CellCount))
	s.events.publish(mq.LayoutUpdated, map[string]any{
		"layout_id":  layoutID,
		"cell_count": stored.CellCount,
	})
	summary := stored.Summary()
	return &summary, nil
}

// layoutFromRequest applies schema, type and orientation defaults.
func layoutFromRequest(req models.LayoutRequest) models.Layout {
	layout := models.Layout{
		LayoutID:      req.LayoutID,
		SchemaVersion: req.SchemaVersion,
		Type:          req.Type,
		GridSize:      req.GridSize,
		Warehouse:     req.Warehouse,
		Cells:         make([]models.CellData, len(req.Cells)),
	}
	if layout.SchemaVersion == "" {
		layout.SchemaVersion = models.DefaultSchemaVersion
	}
	if layout.Type == "" {
		layout.Type = models.DefaultLayoutType
	}
	for i, cell := range req.Cells {
		if cell.Orientation == "" {
			cell.Orientation = models.DefaultOrientation
		}
		if cell.ApproachPriority == nil {
			cell.ApproachPriority = []string{}
		}
		layout.Cells[i] = cell
	}
	return layout
}

func layoutNotFound(layoutID string) error {
	return apperr.NotFound(apperr.CodeLayoutNotFound, fmt.Sprintf("Layout with ID '%s' not found.", layoutID))
}
