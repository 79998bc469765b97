package models

import "time"

// BookRequest is the payload for POST and PUT /api/books.
// ID is caller-assigned on create and ignored on update.
type BookRequest struct {
	ID          int64   `json:"id" validate:"gte=0"`
	Title       string  `json:"title" validate:"required,max=200"`
	Author      *string `json:"author" validate:"omitempty,max=200"`
	ThicknessMm int     `json:"thicknessMm" validate:"min=1,max=1000"`
	HeightMm    int     `json:"heightMm" validate:"min=1,max=1000"`
	SKU         *string `json:"sku" validate:"omitempty,max=50"`
}

// BookQuery holds GET /api/books parameters.
type BookQuery struct {
	Search   string
	Page     int
	PageSize int
}

// LayoutRequest is the payload for POST and PUT /api/layouts.
type LayoutRequest struct {
	LayoutID      string     `json:"layoutId" validate:"required,max=100"`
	SchemaVersion string     `json:"schemaVersion" validate:"max=20"`
	Type          string     `json:"type" validate:"max=50"`
	GridSize      GridSize   `json:"gridSize"`
	Warehouse     Position   `json:"warehouse"`
	Cells         []CellData `json:"cells" validate:"required,min=1,dive"`
}

// CreateRunRequest is the payload for POST /api/runs. Omitted tunables take
// their documented defaults and an omitted seed is 0.
type CreateRunRequest struct {
	RandomSeed            *int     `json:"randomSeed"`
	HandleTimeSec         *float64 `json:"handleTimeSec" validate:"omitempty,gte=0.1,lte=100"`
	RobotSpeedCellsPerSec *float64 `json:"robotSpeedCellsPerSec" validate:"omitempty,gte=0.1,lte=100"`
	TopN                  *int     `json:"topN" validate:"omitempty,min=1,max=10"`
	LayoutID              *string  `json:"layoutId" validate:"omitempty,max=100"`
	MoveTimeoutSec        *float64 `json:"moveTimeoutSec" validate:"omitempty,gte=1,lte=3600"`
}

// UpdateRunStatusRequest is the payload for PATCH /api/runs/{id}/status.
type UpdateRunStatusRequest struct {
	Status  string  `json:"status" validate:"required,oneof=PENDING RUNNING COMPLETED FAILED"`
	Summary *string `json:"summary"`
}

// JobSpec is one entry of a batch create.
type JobSpec struct {
	Action    string  `json:"action" validate:"required,oneof=PUT PICK"`
	CellCode  string  `json:"cellCode" validate:"required,cellcode"`
	BookTitle *string `json:"bookTitle" validate:"omitempty,max=200"`
	Quantity  int     `json:"quantity" validate:"min=1"`
}

// CreateJobsBatchRequest is the payload for POST /api/jobs/batch.
type CreateJobsBatchRequest struct {
	RunID int64     `json:"runId" validate:"required"`
	Jobs  []JobSpec `json:"jobs" validate:"required,min=1,dive"`
}

// CreateJobsBatchResponse reports a batch insert. JobIDs repeats the run id
// once per created job; CreatedJobIDs lists the identifiers actually assigned.
type CreateJobsBatchResponse struct {
	Accepted      int     `json:"accepted"`
	RunID         int64   `json:"runId"`
	JobIDs        []int64 `json:"jobIds"`
	CreatedJobIDs []int64 `json:"createdJobIds"`
}

// JobResultPatch is the payload for PATCH /api/jobs/{id}/result. Each field
// only overwrites the stored value when it is present and non-null.
type JobResultPatch struct {
	StartTs         Optional[time.Time] `json:"startTs"`
	EndTs           Optional[time.Time] `json:"endTs"`
	TravelTimeSec   Optional[float64]   `json:"travelTimeSec"`
	HandleTimeSec   Optional[float64]   `json:"handleTimeSec"`
	TotalTimeSec    Optional[float64]   `json:"totalTimeSec"`
	PathLengthCells Optional[int]       `json:"pathLengthCells"`
	Result          Optional[string]    `json:"result"`
	FailReason      Optional[string]    `json:"failReason"`
	ErrorCode       Optional[string]    `json:"errorCode"`
	RobotName       Optional[string]    `json:"robotName"`
}

// Empty reports whether the patch would change nothing.
func (p JobResultPatch) Empty() bool {
	return !p.StartTs.Present() && !p.EndTs.Present() &&
		!p.TravelTimeSec.Present() && !p.HandleTimeSec.Present() && !p.TotalTimeSec.Present() &&
		!p.PathLengthCells.Present() && !NonEmpty(p.Result) && !NonEmpty(p.FailReason) &&
		!NonEmpty(p.ErrorCode) && !NonEmpty(p.RobotName)
}
