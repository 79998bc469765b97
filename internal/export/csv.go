// Package export renders run results as downloadable CSV documents.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Embedded zone database so the export zone resolves on minimal images.
	_ "time/tzdata"

	"shelfsim-api-go/internal/models"
)

// DefaultTimezone is the zone job timestamps are rendered in.
const DefaultTimezone = "Asia/Seoul"

const (
	timestampLayout = "2006-01-02 15:04:05"
	filenameLayout  = "20060102_150405"
	utf8BOM         = "\uFEFF"
)

// Header is the fixed column order of a results document.
var Header = []string{
	"JobId", "Action", "CellCode", "BookTitle", "Quantity", "StartTs", "EndTs",
	"TravelTimeSec", "HandleTimeSec", "TotalTimeSec", "PathLengthCells",
	"Result", "FailReason", "RobotName",
}

// Exporter renders jobs to CSV. A nil location means the zone lookup failed
// and timestamps are rendered in UTC with a "(UTC)" suffix.
type Exporter struct {
	loc *time.Location
}

// New loads the named zone. When the zone cannot be loaded the returned
// Exporter falls back to UTC rendering and the load error is returned
// alongside it so callers can log it.
func New(timezone string) (*Exporter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return &Exporter{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Exporter{loc: loc}, nil
}

// Location returns the zone timestamps are converted to, or nil in fallback mode.
func (e *Exporter) Location() *time.Location {
	return e.loc
}

// Render returns a BOM-prefixed CSV document with one row per job, in the
// order given.
func (e *Exporter) Render(jobs []models.Job) []byte {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	buf.WriteString(strings.Join(Header, ","))
	buf.WriteByte('\n')
	for _, job := range jobs {
		buf.WriteString(strings.Join(e.row(job), ","))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (e *Exporter) row(job models.Job) []string {
	pathLength := 0
	if job.PathLengthCells != nil {
		pathLength = *job.PathLengthCells
	}
	return []string{
		strconv.FormatInt(job.ID, 10),
		job.Action,
		job.CellCode,
		Escape(deref(job.BookTitle)),
		strconv.Itoa(job.Quantity),
		e.FormatTimestamp(job.StartTs),
		e.FormatTimestamp(job.EndTs),
		FormatSeconds(job.TravelTimeSec),
		FormatSeconds(job.HandleTimeSec),
		FormatSeconds(job.TotalTimeSec),
		strconv.Itoa(pathLength),
		deref(job.Result),
		Escape(deref(job.FailReason)),
		Escape(deref(job.RobotName)),
	}
}

// FormatTimestamp converts t from UTC to the exporter's zone.
func (e *Exporter) FormatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	if e.loc == nil {
		return t.UTC().Format(timestampLayout) + "(UTC)"
	}
	return t.In(e.loc).Format(timestampLayout)
}

// FormatSeconds renders v with exactly two decimals; nil renders empty.
func FormatSeconds(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// Escape quotes a field if and only if it contains a comma, a double quote,
// a carriage return or a newline. Embedded quotes are doubled.
func Escape(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Filename returns the download name for an export produced at now.
func Filename(now time.Time) string {
	return "results_" + now.UTC().Format(filenameLayout) + ".csv"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
