package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complyform/internal/metrics"
	"complyform/internal/sentinel"
	"complyform/models"
)

// ErrBidNotFound единственная ошибка, прерывающая прогон целиком
var ErrBidNotFound = fmt.Errorf("bid %w", sentinel.ErrNotFound)

// Engine прогоняет проверки соответствия по заявке и сохраняет результаты
type Engine struct {
	tx       Transactor
	resolver *Resolver
	checks   CheckSet
	log      zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newRunID func() uuid.UUID
}

type Option func(*Engine)

func WithChecks(set CheckSet) Option {
	return func(e *Engine) { e.checks = set }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(tx Transactor, dir Directory, opts ...Option) *Engine {
	e := &Engine{
		tx:       tx,
		resolver: NewResolver(dir),
		checks:   DefaultChecks(),
		log:      zerolog.Nop(),
		now:      time.Now,
		newRunID: uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Checks включённые проверки в порядке выполнения
func (e *Engine) Checks() []CheckID {
	return e.checks.Ordered()
}

// Run выполняет все включённые проверки и атомарно заменяет сохранённые результаты заявки.
// Прогоны по одной заявке сериализуются транзакцией.
func (e *Engine) Run(ctx context.Context, bidID int) (*Report, error) {
	start := e.now()
	log := e.log.With().Int("bid_id", bidID).Logger()

	var report *Report
	err := e.tx.RunInTx(ctx, bidID, func(s Store) error {
		bid, err := loadBid(ctx, s, bidID)
		if err != nil {
			return err
		}

		ev := e.prepare(ctx, s, bid, log)
		runID := e.newRunID()
		createdAt := e.now().UTC()

		ordered := e.checks.Ordered()
		results := make([]models.ValidationResult, 0, len(ordered))
		for _, id := range ordered {
			out := checks[id](ctx, ev)
			e.metrics.IncCheckOutcome(string(id), out.Status)
			results = append(results, models.ValidationResult{
				BidID:     bid.ID,
				RunID:     runID,
				Check:     string(out.Check),
				Status:    out.Status,
				Message:   out.Message,
				CreatedAt: createdAt,
			})
		}

		if err := s.DeleteValidationResults(ctx, bid.ID); err != nil {
			return fmt.Errorf("delete previous results: %w", err)
		}
		if err := s.InsertValidationResults(ctx, results); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
		if err := s.MarkBidValidated(ctx, bid.ID); err != nil {
			return fmt.Errorf("mark bid validated: %w", err)
		}

		report = NewReport(bid.ID, results)
		report.RunID = runID
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.ObserveValidationRun(report.OverallStatus, start)
	log.Info().
		Str("run_id", report.RunID.String()).
		Str("overall_status", report.OverallStatus).
		Int("failed", report.Failed).
		Int("warnings", report.Warnings).
		Msg("validation run completed")
	return report, nil
}

// Results возвращает последний сохранённый набор результатов
func (e *Engine) Results(ctx context.Context, bidID int) (*Report, error) {
	var report *Report
	err := e.tx.RunInTx(ctx, bidID, func(s Store) error {
		if _, err := loadBid(ctx, s, bidID); err != nil {
			return err
		}
		results, err := s.GetValidationResults(ctx, bidID)
		if err != nil {
			return fmt.Errorf("load results: %w", err)
		}
		report = NewReport(bidID, results)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func loadBid(ctx context.Context, s Store, bidID int) (*models.Bid, error) {
	bid, err := s.GetBidWithLineItems(ctx, bidID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrBidNotFound, bidID)
	}
	if err != nil {
		return nil, fmt.Errorf("load bid %d: %w", bidID, err)
	}
	return bid, nil
}

// line строка заявки вместе с найденными субподрядчиком и записью справочника
type line struct {
	item   models.LineItem
	sub    *models.Subcontractor
	rec    *models.DirectoryRecord
	subErr error
	recErr error
}

func (l *line) resolved() bool {
	return l.subErr == nil && l.recErr == nil
}

// evaluation общее состояние одного прогона, разделяемое проверками
type evaluation struct {
	bid     *models.Bid
	lines   []line
	codes   []string
	totals  Allocation
	catalog *Catalog

	loaded    bool
	loadErr   error
	jurisList []models.Jurisdiction
}

func (e *Engine) prepare(ctx context.Context, s Store, bid *models.Bid, log zerolog.Logger) *evaluation {
	ev := &evaluation{
		bid:     bid,
		lines:   make([]line, 0, len(bid.LineItems)),
		totals:  Allocation{},
		catalog: NewCatalog(s, log),
	}

	codeSets := make([][]string, 0, len(bid.LineItems))
	for _, item := range bid.LineItems {
		l := line{item: item}
		l.sub, l.subErr = s.GetSubcontractor(ctx, item.SubcontractorID)
		if l.subErr == nil {
			l.rec, l.recErr = e.resolver.Resolve(ctx, l.sub)
		}
		if l.subErr != nil && !errors.Is(l.subErr, sentinel.ErrNotFound) {
			log.Error().Err(l.subErr).Int("line_item_id", item.ID).Msg("subcontractor lookup failed")
		}
		if l.recErr != nil && !errors.Is(l.recErr, sentinel.ErrNotFound) {
			log.Error().Err(l.recErr).Int("line_item_id", item.ID).Msg("directory lookup failed")
		}
		if l.resolved() {
			ev.totals.Add(Allocate(item, l.rec))
			codeSets = append(codeSets, l.rec.JurisdictionCodes)
		}
		ev.lines = append(ev.lines, l)
	}
	ev.codes = unionCodes(codeSets...)
	return ev
}

// jurisdictions загружается один раз за прогон
func (ev *evaluation) jurisdictions(ctx context.Context) ([]models.Jurisdiction, error) {
	if !ev.loaded {
		ev.jurisList, ev.loadErr = ev.catalog.Jurisdictions(ctx, ev.codes)
		ev.loaded = true
	}
	return ev.jurisList, ev.loadErr
}
