package rate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cbrates/internal/adapters"
	"cbrates/internal/domain"
	"cbrates/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	OperationBootstrap = "bootstrap"
	OperationRefresh   = "refresh"
)

const (
	actionCreated = "created"
	actionUpdated = "updated"
)

const defaultFetchTimeout = 15 * time.Second

// SyncResult summarizes one bootstrap or refresh run. On failure it holds what
// was written before the run was aborted.
type SyncResult struct {
	Operation string   `json:"operation" example:"refresh"`
	Fetched   int      `json:"fetched" example:"43"`
	Created   int      `json:"created" example:"0"`
	Updated   int      `json:"updated" example:"41"`
	Unchanged int      `json:"unchanged" example:"2"`
	Vanished  []string `json:"vanished,omitempty"`
}

// Engine reconciles the upstream feed with the rate store and serves lookups.
// It holds no state between calls; the store is the only shared resource.
type Engine struct {
	source       adapters.RateSource
	store        adapters.RateStore
	metrics      *metrics.SyncMetrics
	fetchTimeout time.Duration
}

// Initialize is the startup step: an empty store is bootstrapped, a filled one is refreshed.
func (e *Engine) Initialize(ctx context.Context) (SyncResult, error) {
	stored, err := e.store.FindAll(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to inspect rate store: %w", err)
	}
	if len(stored) == 0 {
		return e.Bootstrap(ctx)
	}
	logrus.Infof("Rate store already holds %d rates, refreshing instead of bootstrapping", len(stored))
	return e.Refresh(ctx)
}

// Bootstrap creates a record for every feed entry. It is meant for an empty
// store and has no transactional envelope: a failed write aborts the run and
// leaves earlier writes in place.
func (e *Engine) Bootstrap(ctx context.Context) (SyncResult, error) {
	started := time.Now()
	res, err := e.bootstrap(ctx)
	e.finish(OperationBootstrap, started, res, err)
	return res, err
}

func (e *Engine) bootstrap(ctx context.Context) (SyncResult, error) {
	res := SyncResult{Operation: OperationBootstrap}

	remote, err := e.fetch(ctx)
	if err != nil {
		return res, err
	}
	res.Fetched = len(remote)

	for _, rr := range remote {
		fields := ToFields(rr)
		if _, err = e.store.Create(ctx, fields); err != nil {
			return res, fmt.Errorf("failed to create rate %q: %w", fields.Code, err)
		}
		res.Created++
	}
	return res, nil
}

// Refresh applies the feed onto the store matching records by code. Codes
// that are new to the store are created; stored codes missing from the feed
// are reported and kept.
func (e *Engine) Refresh(ctx context.Context) (SyncResult, error) {
	started := time.Now()
	res, err := e.refresh(ctx)
	e.finish(OperationRefresh, started, res, err)
	if err == nil {
		e.metrics.VanishedCodes.Set(float64(len(res.Vanished)))
	}
	return res, err
}

func (e *Engine) refresh(ctx context.Context) (SyncResult, error) {
	res := SyncResult{Operation: OperationRefresh}

	// the whole feed is fetched and validated before the first write
	remote, err := e.fetch(ctx)
	if err != nil {
		return res, err
	}
	res.Fetched = len(remote)

	stored, err := e.store.FindAll(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load stored rates: %w", err)
	}
	storedByCode := lo.KeyBy(stored, func(r domain.StoredRate) string {
		return r.Code
	})

	for _, rr := range remote {
		fields := ToFields(rr)

		existing, ok := storedByCode[fields.Code]
		if !ok {
			if _, err = e.store.Create(ctx, fields); err != nil {
				return res, fmt.Errorf("failed to create rate %q: %w", fields.Code, err)
			}
			res.Created++
			continue
		}

		if _, err = e.store.Update(ctx, existing.ID, fields); err != nil {
			return res, fmt.Errorf("failed to update rate %q (id %d): %w", fields.Code, existing.ID, err)
		}
		if existing.Fields() == fields {
			res.Unchanged++
		} else {
			res.Updated++
		}
	}

	remoteCodes := lo.SliceToMap(remote, func(r domain.RemoteRate) (string, struct{}) {
		return r.Code, struct{}{}
	})
	res.Vanished = lo.Filter(lo.Keys(storedByCode), func(code string, _ int) bool {
		_, ok := remoteCodes[code]
		return !ok
	})
	slices.Sort(res.Vanished)

	return res, nil
}

func (e *Engine) fetch(ctx context.Context) ([]domain.RemoteRate, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	remote, err := e.source.FetchAll(fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	return remote, nil
}

func (e *Engine) finish(operation string, started time.Time, res SyncResult, err error) {
	e.metrics.ObserveRun(operation, started, err)
	e.metrics.AddRecords(operation, actionCreated, res.Created)
	e.metrics.AddRecords(operation, actionUpdated, res.Updated+res.Unchanged)

	log := logrus.WithFields(logrus.Fields{
		"operation": operation,
		"fetched":   res.Fetched,
		"created":   res.Created,
		"updated":   res.Updated,
		"unchanged": res.Unchanged,
		"duration":  time.Since(started).String(),
	})
	if err != nil {
		if res.Created+res.Updated+res.Unchanged > 0 {
			log = log.WithField("partial", true)
		}
		log.WithError(err).Error("Rate synchronization failed")
		return
	}
	if len(res.Vanished) > 0 {
		log.Warnf("Codes missing from the feed were kept as is: %s", strings.Join(res.Vanished, ", "))
	}
	log.Info("Rate synchronization finished")
}

// Lookup resolves a stored rate by exact, case-sensitive code. It never calls the rate source.
func (e *Engine) Lookup(ctx context.Context, code string) (View, error) {
	stored, err := e.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			e.metrics.LookupsTotal.WithLabelValues("not_found").Inc()
			return View{}, domain.ErrRateNotFound
		}
		e.metrics.LookupsTotal.WithLabelValues("error").Inc()
		return View{}, fmt.Errorf("failed to look up rate %q: %w", code, err)
	}
	e.metrics.LookupsTotal.WithLabelValues("found").Inc()
	return ToView(stored), nil
}

// List returns every stored rate sorted by code.
func (e *Engine) List(ctx context.Context) ([]View, error) {
	stored, err := e.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	views := ToViews(stored)
	slices.SortFunc(views, func(a, b View) int {
		return strings.Compare(a.Code, b.Code)
	})
	return views, nil
}

// Delete removes a stored rate. It is an administrative operation, the sync path never deletes.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if err := e.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete rate %d: %w", id, err)
	}
	logrus.WithField("id", id).Info("Rate deleted")
	return nil
}

func NewEngine(source adapters.RateSource, store adapters.RateStore, syncMetrics *metrics.SyncMetrics, fetchTimeout time.Duration) *Engine {
	if syncMetrics == nil {
		syncMetrics = metrics.NewSyncMetrics(prometheus.NewRegistry())
	}
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &Engine{
		source:       source,
		store:        store,
		metrics:      syncMetrics,
		fetchTimeout: fetchTimeout,
	}
}
