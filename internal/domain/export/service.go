package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opdlog/opdlog/internal/domain/visit"
	"github.com/opdlog/opdlog/internal/platform/share"
)

// Format names an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
)

// DefaultCooldown is the debounce window between export triggers.
const DefaultCooldown = 350 * time.Millisecond

var (
	// ErrDebounced means a trigger arrived inside the cooldown window of
	// the previous one and was rejected.
	ErrDebounced = errors.New("export already triggered, try again shortly")
	// ErrUnknownFormat means the requested format is not one of csv, xls,
	// xlsx.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Filename returns the dated export filename, e.g. OPD_2026-08-28.csv.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("OPD_%s.%s", now.Format("2006-01-02"), f)
}

func mimeType(f Format) string {
	switch f {
	case FormatCSV:
		return "text/csv;charset=utf-8"
	case FormatXLS:
		return "application/vnd.ms-excel;charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Encode serializes records in the requested format.
func Encode(f Format, records []visit.Record) ([]byte, error) {
	switch f {
	case FormatCSV:
		return []byte(ToDelimitedText(records)), nil
	case FormatXLS:
		return []byte(ToSpreadsheetMarkup(records)), nil
	case FormatXLSX:
		return ToWorkbook(records)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Debouncer rejects triggers arriving within the cooldown of the previous
// accepted one.
type Debouncer struct {
	mu       sync.Mutex
	last     time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewDebouncer returns a Debouncer with the given cooldown (DefaultCooldown
// when zero).
func NewDebouncer(cooldown time.Duration) *Debouncer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Debouncer{cooldown: cooldown, now: time.Now}
}

// Allow reports whether a trigger may proceed, recording it if so.
func (d *Debouncer) Allow() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if now.Sub(d.last) < d.cooldown {
		return false
	}
	d.last = now
	return true
}

// Result reports a finished export.
type Result struct {
	Filename string        `json:"filename"`
	Outcome  share.Outcome `json:"outcome"`
	Records  int           `json:"records"`
}

// Service encodes the current collection and pushes it through the share
// boundary. Triggers are debounced; once a delivery starts it runs to its
// fallback conclusion.
type Service struct {
	visits    *visit.Service
	deliverer *share.Deliverer
	debounce  *Debouncer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService wires an export Service.
func NewService(visits *visit.Service, deliverer *share.Deliverer, debounce *Debouncer, logger zerolog.Logger) *Service {
	return &Service{
		visits:    visits,
		deliverer: deliverer,
		debounce:  debounce,
		logger:    logger,
		now:       time.Now,
	}
}

// Export runs one export end to end: debounce gate, snapshot newest-first,
// encode, deliver.
func (s *Service) Export(ctx context.Context, f Format) (Result, error) {
	if !s.debounce.Allow() {
		return Result{}, ErrDebounced
	}
	records := s.visits.List(ctx)
	data, err := Encode(f, records)
	if err != nil {
		return Result{}, err
	}
	filename := Filename(f, s.now())
	outcome, err := s.deliverer.Deliver(ctx, filename, data, share.Metadata{
		Title:    "Export " + filename,
		Text:     "Exported " + filename,
		MIMEType: mimeType(f),
	})
	if err != nil {
		return Result{}, fmt.Errorf("deliver %s: %w", filename, err)
	}
	s.logger.Info().Str("file", filename).Str("outcome", string(outcome)).Int("records", len(records)).Msg("export complete")
	return Result{Filename: filename, Outcome: outcome, Records: len(records)}, nil
}
