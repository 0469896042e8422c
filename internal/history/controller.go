// Package history loads the measurement table, renders its rows and
// exports the loaded batch as CSV.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"servodash/internal/db"
	"servodash/internal/loop"
	"servodash/internal/metrics"
	"servodash/internal/models"
	"servodash/internal/notify"
)

var (
	ErrNothingToExport = errors.New("nothing to export")
	ErrBadLimit        = errors.New("table limit must be one of 25, 50, 100, 200")
)

// Limits are the row counts the table selector offers.
var Limits = []int{25, 50, 100, 200}

const DefaultLimit = 50

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusRows    Status = "rows"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

type State struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Rows    []Row  `json:"rows,omitempty"`
	Limit   int    `json:"limit"`
}

type Fetcher interface {
	Measurements(ctx context.Context, limit int) ([]models.HistoryRow, error)
}

type Notifier interface {
	Show(msg string, sev notify.Severity) notify.Notification
}

type Options struct {
	Limit     int
	ExportDir string
	Timeout   time.Duration
}

type Controller struct {
	dispatch loop.Dispatcher
	api      Fetcher
	repo     *db.Repository
	notes    Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger

	limit     int
	exportDir string
	timeout   time.Duration
	state     State
	loads     int
}

func NewController(dispatch loop.Dispatcher, api Fetcher, repo *db.Repository, notes Notifier, m *metrics.Metrics, logger *slog.Logger, opts Options) *Controller {
	limit := opts.Limit
	if !validLimit(limit) {
		limit = DefaultLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Controller{
		dispatch:  dispatch,
		api:       api,
		repo:      repo,
		notes:     notes,
		metrics:   m,
		log:       logger,
		limit:     limit,
		exportDir: opts.ExportDir,
		timeout:   opts.Timeout,
		state:     State{Status: StatusIdle, Limit: limit},
	}
}

func validLimit(n int) bool {
	for _, l := range Limits {
		if l == n {
			return true
		}
	}
	return false
}

func (c *Controller) Limit() int { return c.limit }

func (c *Controller) SetLimit(n int) error {
	if !validLimit(n) {
		return fmt.Errorf("%w: got %d", ErrBadLimit, n)
	}
	c.limit = n
	c.state.Limit = n
	return nil
}

// Load shows the loading placeholder and fetches the current limit. Loads
// are never cancelled; whichever completes last is what the table shows.
func (c *Controller) Load() {
	limit := c.limit
	c.loads++
	c.state = State{Status: StatusLoading, Message: "Caricamento dati...", Limit: limit}
	c.log.Info("loading table", "limit", limit)
	api, timeout := c.api, c.timeout
	c.dispatch.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		rows, err := api.Measurements(ctx, limit)
		return func() { c.complete(rows, err) }
	})
}

// Loads counts Load calls.
func (c *Controller) Loads() int { return c.loads }

func (c *Controller) complete(rows []models.HistoryRow, err error) {
	if err == nil {
		err = c.repo.ReplaceMeasurements(context.Background(), rows)
	}
	if err != nil {
		c.metrics.TableLoad(false)
		c.log.Error("table load failed", "err", err)
		c.state = State{Status: StatusError, Message: "Errore: " + err.Error(), Limit: c.limit}
		c.notes.Show("Errore caricamento tabella", notify.Error)
		return
	}
	c.metrics.TableLoad(true)
	c.log.Info("table updated", "rows", len(rows))
	if len(rows) == 0 {
		c.state = State{Status: StatusEmpty, Message: "Nessun dato disponibile", Limit: c.limit}
		return
	}
	cells := make([]Row, len(rows))
	for i, r := range rows {
		cells[i] = FormatRow(r)
	}
	c.state = State{Status: StatusRows, Rows: cells, Limit: c.limit}
}

func (c *Controller) State() State {
	st := c.state
	st.Rows = append([]Row(nil), c.state.Rows...)
	return st
}

// Cached returns the rows of the last successful load.
func (c *Controller) Cached(ctx context.Context) ([]models.HistoryRow, error) {
	return c.repo.ListMeasurements(ctx)
}

// Export writes the cached batch to the export directory and returns the
// file path.
func (c *Controller) Export(ctx context.Context, now time.Time) (string, error) {
	rows, err := c.repo.ListMeasurements(ctx)
	if err != nil {
		c.log.Error("read cached rows", "err", err)
		c.notes.Show("Errore durante l'export", notify.Error)
		return "", err
	}
	if len(rows) == 0 {
		c.notes.Show("Nessun dato da esportare", notify.Warning)
		return "", ErrNothingToExport
	}
	path, size, err := writeExport(c.exportDir, now, rows)
	if err != nil {
		c.log.Error("csv export failed", "err", err)
		c.notes.Show("Errore durante l'export", notify.Error)
		return "", err
	}
	c.metrics.Export()
	c.log.Info("csv exported", "path", path, "rows", len(rows), "bytes", size)
	c.notes.Show(fmt.Sprintf("Esportati %d record (%s)", len(rows), humanize.Bytes(uint64(size))), notify.Success)
	return path, nil
}
