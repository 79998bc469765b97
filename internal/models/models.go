// Package models defines request/response and DB model shapes.
package models

// File: internal/models/models.go
// Purpose: Shared data structures for books, layouts, runs and jobs.

import "time"

// Run statuses.
const (
	RunPending   = "PENDING"
	RunRunning   = "RUNNING"
	RunCompleted = "COMPLETED"
	RunFailed    = "FAILED"
)

// Job actions and results.
const (
	ActionPut  = "PUT"
	ActionPick = "PICK"

	ResultSuccess = "Success"
	ResultFailed  = "Failed"
)

// Layout defaults.
const (
	DefaultSchemaVersion = "1.0"
	DefaultLayoutType    = "cells_layout"
	DefaultOrientation   = "N"
)

// Run defaults.
const (
	DefaultHandleTimeSec         = 2.0
	DefaultRobotSpeedCellsPerSec = 3.0
	DefaultTopN                  = 3
	DefaultMoveTimeoutSec        = 30.0
)

// Book models the books table and API payloads.
type Book struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      *string   `json:"author"`
	ThicknessMm int       `json:"thicknessMm"`
	HeightMm    int       `json:"heightMm"`
	SKU         *string   `json:"sku"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GridSize is the layout width (X) and height (Y) in cells.
type GridSize struct {
	X int `json:"x" validate:"min=1,max=1000"`
	Y int `json:"y" validate:"min=1,max=1000"`
}

// Position is a non-negative grid coordinate.
type Position struct {
	X int `json:"x" validate:"min=0,max=1000"`
	Y int `json:"y" validate:"min=0,max=1000"`
}

// CellData describes one cell of a layout. It is never stored on its own.
type CellData struct {
	Code             string   `json:"code" validate:"required,max=20"`
	X                int      `json:"x"`
	Y                int      `json:"y"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	TileW            int      `json:"tileW"`
	TileH            int      `json:"tileH"`
	Orientation      string   `json:"orientation" validate:"omitempty,oneof=N E S W"`
	ApproachPriority []string `json:"approachPriority" validate:"dive,oneof=N E S W"`
	Blocked          bool     `json:"blocked"`
}

// Layout models the layouts table. Cells are persisted as one encoded column.
type Layout struct {
	LayoutID      string     `json:"layoutId"`
	SchemaVersion string     `json:"schemaVersion"`
	Type          string     `json:"type"`
	GridSize      GridSize   `json:"gridSize"`
	Warehouse     Position   `json:"warehouse"`
	Cells         []CellData `json:"cells"`
	CellCount     int        `json:"cellCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// LayoutSummary is the short form returned by create, update and list.
type LayoutSummary struct {
	LayoutID  string    `json:"layoutId"`
	CreatedAt time.Time `json:"createdAt"`
	CellCount int       `json:"cellCount"`
}

// Summary returns the short form of l.
func (l Layout) Summary() LayoutSummary {
	return LayoutSummary{LayoutID: l.LayoutID, CreatedAt: l.CreatedAt, CellCount: l.CellCount}
}

// Run models the runs table and API payloads.
type Run struct {
	ID                    int64     `json:"id"`
	LayoutID              *string   `json:"layoutId"`
	RandomSeed            int       `json:"randomSeed"`
	HandleTimeSec         float64   `json:"handleTimeSec"`
	RobotSpeedCellsPerSec float64   `json:"robotSpeedCellsPerSec"`
	TopN                  int       `json:"topN"`
	MoveTimeoutSec        float64   `json:"moveTimeoutSec"`
	Status                string    `json:"status"`
	Summary               *string   `json:"summary"`
	CreatedAt             time.Time `json:"createdAt"`
	Jobs                  []Job     `json:"jobs"`
}

// Job models the jobs table and API payloads.
type Job struct {
	ID              int64      `json:"id"`
	RunID           int64      `json:"runId"`
	Action          string     `json:"action"`
	CellCode        string     `json:"cellCode"`
	BookTitle       *string    `json:"bookTitle"`
	Quantity        int        `json:"quantity"`
	StartTs         *time.Time `json:"startTs"`
	EndTs           *time.Time `json:"endTs"`
	TravelTimeSec   *float64   `json:"travelTimeSec"`
	HandleTimeSec   *float64   `json:"handleTimeSec"`
	TotalTimeSec    *float64   `json:"totalTimeSec"`
	PathLengthCells *int       `json:"pathLengthCells"`
	Result          *string    `json:"result"`
	FailReason      *string    `json:"failReason"`
	ErrorCode       *string    `json:"errorCode"`
	RobotName       *string    `json:"robotName"`
	Run             *Run       `json:"run,omitempty"`
}

// Page describes one slice of a paginated listing.
type Page struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
}

// NewPage computes TotalPages as ceil(total / pageSize).
func NewPage(page, pageSize int, total int64) Page {
	var pages int64
	if pageSize > 0 {
		pages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Page{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: pages}
}

// RunList is the response payload for GET /api/runs.
type RunList struct {
	Data []Run `json:"data"`
	Meta Page  `json:"meta"`
}

// LayoutList is the response payload for GET /api/layouts.
type LayoutList struct {
	Layouts []LayoutSummary `json:"layouts"`
}
