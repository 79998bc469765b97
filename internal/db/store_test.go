package db

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfsim-api-go/internal/models"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	clock := &stepClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s, err := Open(DriverSQLite, fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path), WithClock(clock.now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestBookCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	book := &models.Book{ID: 42, Title: "Go in Action", Author: strPtr("Kennedy"), ThicknessMm: 20, HeightMm: 230, SKU: strPtr("GO-42")}
	require.NoError(t, s.CreateBook(ctx, book))
	assert.False(t, book.CreatedAt.IsZero())

	got, err := s.GetBook(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *book, *got)

	err = s.CreateBook(ctx, &models.Book{ID: 42, Title: "dup", ThicknessMm: 1, HeightMm: 1})
	assert.ErrorIs(t, err, ErrDuplicate)

	update := models.Book{ID: 42, Title: "Go in Action 2e", ThicknessMm: 25, HeightMm: 235}
	require.NoError(t, s.UpdateBook(ctx, update))
	got, err = s.GetBook(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Go in Action 2e", got.Title)
	assert.Nil(t, got.Author)
	assert.Nil(t, got.SKU)
	assert.Equal(t, book.CreatedAt, got.CreatedAt)

	assert.ErrorIs(t, s.UpdateBook(ctx, models.Book{ID: 7, Title: "x", ThicknessMm: 1, HeightMm: 1}), ErrNotFound)

	require.NoError(t, s.DeleteBook(ctx, 42))
	got, err = s.GetBook(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, s.DeleteBook(ctx, 42), ErrNotFound)
}

func TestListBooksSearchAndPagination(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	seed := []models.Book{
		{ID: 1, Title: "Delta", ThicknessMm: 10, HeightMm: 100},
		{ID: 2, Title: "alpha", Author: strPtr("Zed Writer"), ThicknessMm: 10, HeightMm: 100},
		{ID: 3, Title: "Charlie", SKU: strPtr("SKU-100%"), ThicknessMm: 10, HeightMm: 100},
		{ID: 4, Title: "Bravo", Author: strPtr("Ann"), ThicknessMm: 10, HeightMm: 100},
		{ID: 5, Title: "Echo", ThicknessMm: 10, HeightMm: 100},
	}
	for i := range seed {
		require.NoError(t, s.CreateBook(ctx, &seed[i]))
	}

	all, err := s.ListBooks(ctx, models.BookQuery{Page: 1, PageSize: 50})
	require.NoError(t, err)
	titles := make([]string, 0, len(all))
	for _, b := range all {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"Bravo", "Charlie", "Delta", "Echo", "alpha"}, titles)

	var paged []string
	for page := 1; page <= 3; page++ {
		books, err := s.ListBooks(ctx, models.BookQuery{Page: page, PageSize: 2})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(books), 2)
		for _, b := range books {
			paged = append(paged, b.Title)
		}
	}
	assert.Equal(t, titles, paged)

	byAuthor, err := s.ListBooks(ctx, models.BookQuery{Search: "zed", Page: 1, PageSize: 50})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, int64(2), byAuthor[0].ID)

	bySKU, err := s.ListBooks(ctx, models.BookQuery{Search: "100%", Page: 1, PageSize: 50})
	require.NoError(t, err)
	require.Len(t, bySKU, 1)
	assert.Equal(t, int64(3), bySKU[0].ID)

	wildcard, err := s.ListBooks(ctx, models.BookQuery{Search: "_", Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Empty(t, wildcard)
}

func TestListBooksSearchFoldsNonASCII(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateBook(ctx, &models.Book{ID: 1, Title: "Éclair Guide", ThicknessMm: 10, HeightMm: 100}))
	require.NoError(t, s.CreateBook(ctx, &models.Book{ID: 2, Title: "Plain", Author: strPtr("Søren Ås"), ThicknessMm: 10, HeightMm: 100}))

	for _, term := range []string{"Éclair", "ÉCLAIR", "éclair", "guide"} {
		books, err := s.ListBooks(ctx, models.BookQuery{Search: term, Page: 1, PageSize: 50})
		require.NoError(t, err)
		require.Len(t, books, 1, term)
		assert.Equal(t, int64(1), books[0].ID, term)
	}

	books, err := s.ListBooks(ctx, models.BookQuery{Search: "SØREN", Page: 1, PageSize: 50})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, int64(2), books[0].ID)
}

func TestListPastLastRepresentablePage(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateBook(ctx, &models.Book{ID: 1, Title: "Only", ThicknessMm: 10, HeightMm: 100}))
	newRun(t, s)

	books, err := s.ListBooks(ctx, models.BookQuery{Page: 1 << 62, PageSize: 4})
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)

	runs, total, err := s.ListRuns(ctx, 1<<62, 4)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
	assert.Equal(t, int64(1), total)

	runs, total, err = s.ListRuns(ctx, math.MaxInt, 1)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Equal(t, int64(1), total)
}

func TestPageOffset(t *testing.T) {
	off, ok := pageOffset(3, 20)
	assert.True(t, ok)
	assert.Equal(t, 40, off)

	off, ok = pageOffset(math.MaxInt, 1)
	assert.True(t, ok)
	assert.Equal(t, math.MaxInt-1, off)

	_, ok = pageOffset(1<<62, 4)
	assert.False(t, ok)

	_, ok = pageOffset(math.MaxInt, 2)
	assert.False(t, ok)
}

func TestLayoutRoundTripAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	cells := []models.CellData{
		{Code: "A01", X: 1, Y: 2, Width: 1, Height: 1, TileW: 32, TileH: 32, Orientation: "E", ApproachPriority: []string{"N", "W"}},
		{Code: "A02", X: 2, Y: 2, Width: 1, Height: 2, TileW: 32, TileH: 64, Orientation: "N", ApproachPriority: []string{}, Blocked: true},
	}
	layout := &models.Layout{
		LayoutID: "W1", SchemaVersion: "1.0", Type: "cells_layout",
		GridSize: models.GridSize{X: 10, Y: 8}, Warehouse: models.Position{X: 0, Y: 3}, Cells: cells,
	}
	require.NoError(t, s.CreateLayout(ctx, layout))
	assert.Equal(t, 2, layout.CellCount)

	got, err := s.GetLayout(ctx, "W1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cells, got.Cells)
	assert.Equal(t, 2, got.CellCount)
	assert.Equal(t, layout.CreatedAt, got.CreatedAt)

	err = s.CreateLayout(ctx, &models.Layout{LayoutID: "W1", Cells: cells[:1]})
	assert.ErrorIs(t, err, ErrDuplicate)

	got.Cells = cells[:1]
	got.GridSize = models.GridSize{X: 4, Y: 4}
	require.NoError(t, s.UpdateLayout(ctx, got))
	again, err := s.GetLayout(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.CellCount)
	assert.Equal(t, 4, again.GridSize.X)
	assert.Equal(t, layout.CreatedAt, again.CreatedAt)

	assert.ErrorIs(t, s.UpdateLayout(ctx, &models.Layout{LayoutID: "nope"}), ErrNotFound)

	missing, err := s.GetLayout(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListLayoutsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateLayout(ctx, &models.Layout{LayoutID: id, Cells: []models.CellData{{Code: "A01"}}}))
	}
	summaries, err := s.ListLayouts(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "third", summaries[0].LayoutID)
	assert.Equal(t, "first", summaries[2].LayoutID)
	assert.Equal(t, 1, summaries[0].CellCount)
}

func newRun(t *testing.T, s *Store) *models.Run {
	t.Helper()
	run := &models.Run{RandomSeed: 1, HandleTimeSec: 2, RobotSpeedCellsPerSec: 3, TopN: 3, MoveTimeoutSec: 30, Status: models.RunPending}
	require.NoError(t, s.CreateRun(context.Background(), run))
	return run
}

func TestRunsPaginationAndStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, newRun(t, s).ID)
	}

	var seen []int64
	for page := 1; page <= 3; page++ {
		runs, total, err := s.ListRuns(ctx, page, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		for _, r := range runs {
			seen = append(seen, r.ID)
		}
	}
	assert.Equal(t, []int64{ids[4], ids[3], ids[2], ids[1], ids[0]}, seen)

	summary := `{"completed":3}`
	require.NoError(t, s.UpdateRunStatus(ctx, ids[0], models.RunCompleted, &summary))
	require.NoError(t, s.UpdateRunStatus(ctx, ids[0], models.RunFailed, nil))
	run, err := s.GetRun(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.RunFailed, run.Status)
	require.NotNil(t, run.Summary)
	assert.Equal(t, summary, *run.Summary)

	assert.ErrorIs(t, s.UpdateRunStatus(ctx, 999, models.RunRunning, nil), ErrNotFound)
}

func TestJobsBatchOrderingPatchAndCascade(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run := newRun(t, s)

	ids, err := s.CreateJobs(ctx, run.ID, []models.Job{
		{Action: models.ActionPick, CellCode: "A01", BookTitle: strPtr("Foo"), Quantity: 1},
		{Action: models.ActionPut, CellCode: "B02", Quantity: 2},
		{Action: models.ActionPick, CellCode: "C03", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	late := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	early := late.Add(-time.Hour)
	require.NoError(t, s.UpdateJobResult(ctx, ids[0], models.JobResultPatch{StartTs: models.Some(late)}))
	require.NoError(t, s.UpdateJobResult(ctx, ids[2], models.JobResultPatch{
		StartTs:         models.Some(early),
		PathLengthCells: models.Some(12),
		Result:          models.Some(models.ResultSuccess),
		RobotName:       models.Some("R1"),
	}))

	jobs, err := s.ListJobsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, []int64{ids[2], ids[0], ids[1]}, []int64{jobs[0].ID, jobs[1].ID, jobs[2].ID})

	// A patch touching only one field keeps the rest.
	require.NoError(t, s.UpdateJobResult(ctx, ids[2], models.JobResultPatch{
		TravelTimeSec: models.Some(1.5),
		Result:        models.Some(""),
	}))
	job, err := s.GetJob(ctx, ids[2])
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, 12, *job.PathLengthCells)
	assert.Equal(t, models.ResultSuccess, *job.Result)
	assert.Equal(t, "R1", *job.RobotName)
	assert.Equal(t, 1.5, *job.TravelTimeSec)
	assert.True(t, job.StartTs.Equal(early))
	assert.Nil(t, job.EndTs)

	assert.ErrorIs(t, s.UpdateJobResult(ctx, 999, models.JobResultPatch{}), ErrNotFound)

	require.NoError(t, s.DeleteRun(ctx, run.ID))
	jobs, err = s.ListJobsByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	exists, err := s.RunExists(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateJobsForMissingRunStoresNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.CreateJobs(ctx, 404, []models.Job{{Action: models.ActionPick, CellCode: "A01", Quantity: 1}})
	assert.ErrorIs(t, err, ErrForeignKey)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count))
	assert.Zero(t, count)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "50!%!_off!!", escapeLike("50%_off!"))
}
