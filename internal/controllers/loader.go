package controllers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/amelner/gallerysync/internal/metrics"
	"github.com/amelner/gallerysync/internal/models"
	"github.com/amelner/gallerysync/internal/services/backend"
	"github.com/amelner/gallerysync/internal/services/realtime"
	"github.com/amelner/gallerysync/internal/snapshot"
	"github.com/amelner/gallerysync/internal/store"
)

// reconcileTimeout bounds a single notification-triggered reconciliation
const reconcileTimeout = 30 * time.Second

// Loader brings the record store from empty to populated and keeps it
// current: initial load with bounded retry, at most one realtime subscription
// per session, and a debounced reconciliation loop that re-fetches page 1 on
// change notifications.
type Loader struct {
	id         string
	store      *store.Store
	backend    backend.Service
	subscriber realtime.Subscriber
	registry   *realtime.Registry
	folderCtrl *FolderController
	snapshot   *snapshot.Store // nil disables snapshot persistence
	logger     *logrus.Logger
	tracer     trace.Tracer

	debounce  time.Duration
	retryBase time.Duration
	retryMax  int

	mu            sync.Mutex
	active        bool
	loading       bool
	hydrated      bool
	debounceTimer *time.Timer
	subCancel     context.CancelFunc

	// pageBase anchors the infinite-scroll cursor after a page jump. The
	// store's offset restarts at the jumped-to page, so LoadMore adds the
	// base back to continue forward from there instead of from page 2.
	pageBase int

	// inFlight excludes overlapping reconciliations; independent of the
	// debounce timer because their failure semantics differ
	inFlight atomic.Bool
}

// NewLoader creates a new loader
func NewLoader(
	st *store.Store,
	svc backend.Service,
	subscriber realtime.Subscriber,
	registry *realtime.Registry,
	folderCtrl *FolderController,
	snap *snapshot.Store,
	debounce time.Duration,
	retryBase time.Duration,
	retryMax int,
	logger *logrus.Logger,
) *Loader {
	if retryMax < 1 {
		retryMax = 1
	}
	return &Loader{
		id:         uuid.NewString(),
		store:      st,
		backend:    svc,
		subscriber: subscriber,
		registry:   registry,
		folderCtrl: folderCtrl,
		snapshot:   snap,
		logger:     logger,
		tracer:     otel.Tracer("gallerysync/loader"),
		debounce:   debounce,
		retryBase:  retryBase,
		retryMax:   retryMax,
	}
}

// Activate performs the initial load and claims the realtime subscription.
// The call is a no-op while another activation is in progress, so re-entrant
// initialization cannot run two conflicting loads.
func (l *Loader) Activate(ctx context.Context) error {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		l.logger.Debug("Activation already in progress, skipping")
		return nil
	}
	l.loading = true
	l.active = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.loading = false
		l.mu.Unlock()
	}()

	l.hydrateFromSnapshot()

	if err := l.loadInitial(ctx); err != nil {
		metrics.LoadsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.LoadsTotal.WithLabelValues("ok").Inc()

	l.EnsureSubscribed()
	return nil
}

// loadInitial fetches the first page with bounded exponential backoff.
// Authentication failures and anything else non-transient surface
// immediately; only transport failures are retried.
func (l *Loader) loadInitial(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.retryBase
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			metrics.LoadRetriesTotal.Inc()
			l.logger.WithField("attempt", attempt).Info("Retrying initial load")
		}

		err := l.fetchAndPopulate(ctx)
		if err == nil {
			return nil
		}
		if backend.Retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(l.retryMax-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	return nil
}

// fetchAndPopulate fetches folder metadata and the first record page
// concurrently and populates folders and store on success
func (l *Loader) fetchAndPopulate(ctx context.Context) error {
	ctx, span := l.tracer.Start(ctx, "loader.initial_load")
	defer span.End()

	var (
		wg        sync.WaitGroup
		page      *backend.RecordPage
		folders   []*models.Folder
		pageErr   error
		folderErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		page, pageErr = l.backend.LoadPageOfRecords(ctx, 1, l.store.PageSize(), l.query())
	}()
	go func() {
		defer wg.Done()
		folders, folderErr = l.backend.ListFolders(ctx)
	}()
	wg.Wait()

	if pageErr != nil {
		span.RecordError(pageErr)
		return pageErr
	}
	if folderErr != nil {
		span.RecordError(folderErr)
		return folderErr
	}

	if !l.isActive() {
		l.logger.Debug("Loader deactivated during initial load, discarding result")
		return nil
	}

	l.folderCtrl.setFolders(folders)
	l.store.LoadPage(page.Records, page.Total, page.TotalPages)
	l.store.SetCurrentPage(1)
	l.setPageBase(0)
	metrics.RecordsHeld.Set(float64(l.store.Len()))
	l.saveSnapshot()

	l.logger.WithFields(logrus.Fields{
		"records": len(page.Records),
		"total":   page.Total,
		"folders": len(folders),
	}).Info("Gallery loaded")
	return nil
}

// Refresh re-fetches the authoritative first page and merges it into the
// store. Unresolved placeholders survive the merge unless the fetched page
// resolves them, so in-flight generations are never hidden by a refresh that
// has not caught up yet.
func (l *Loader) Refresh(ctx context.Context) error {
	ctx, span := l.tracer.Start(ctx, "loader.refresh")
	defer span.End()

	page, err := l.backend.LoadPageOfRecords(ctx, 1, l.store.PageSize(), l.query())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to fetch page 1: %w", err)
	}

	if !l.isActive() {
		l.logger.Debug("Loader deactivated mid-refresh, discarding result")
		return nil
	}

	l.store.LoadPage(page.Records, page.Total, page.TotalPages)
	l.setPageBase(0)
	metrics.RecordsHeld.Set(float64(l.store.Len()))
	l.saveSnapshot()

	if err := l.folderCtrl.Reload(ctx); err != nil {
		l.logger.WithError(err).Warn("Failed to refresh folder metadata")
	}
	return nil
}

// LoadMore fetches the next infinite-scroll page under the active filter
func (l *Loader) LoadMore(ctx context.Context) error {
	offset, _, hasMore := l.store.Cursor()
	if !hasMore {
		return nil
	}

	l.mu.Lock()
	base := l.pageBase
	l.mu.Unlock()

	pageSize := l.store.PageSize()
	page := (base+offset)/pageSize + 1

	res, err := l.backend.LoadPageOfRecords(ctx, page, pageSize, l.query())
	if err != nil {
		return fmt.Errorf("failed to fetch page %d: %w", page, err)
	}
	if !l.isActive() {
		return nil
	}

	newOffset := offset + len(res.Records)
	l.store.AppendPage(res.Records, base+newOffset < res.Total)
	metrics.RecordsHeld.Set(float64(l.store.Len()))
	return nil
}

// LoadPage jumps to a specific page (page-indexed browsing)
func (l *Loader) LoadPage(ctx context.Context, page int) error {
	res, err := l.backend.LoadPageOfRecords(ctx, page, l.store.PageSize(), l.query())
	if err != nil {
		return fmt.Errorf("failed to fetch page %d: %w", page, err)
	}
	if !l.isActive() {
		return nil
	}

	l.store.LoadPage(res.Records, res.Total, res.TotalPages)
	l.store.SetCurrentPage(page)
	l.setPageBase((page - 1) * l.store.PageSize())
	metrics.RecordsHeld.Set(float64(l.store.Len()))
	return nil
}

// SetFilter switches the active filter, which clears the list and resets
// both cursors, then fetches the first page of the new result set
func (l *Loader) SetFilter(ctx context.Context, f store.Filter) error {
	l.store.SetFilter(f)
	return l.Refresh(ctx)
}

// NotifyChange feeds one change notification into the debounce loop. Exposed
// for surfaces that learn about changes outside the realtime channel.
func (l *Loader) NotifyChange() {
	metrics.NotificationsTotal.Inc()
	l.scheduleReconcile()
}

// EnsureSubscribed claims the session's subscription slot if it is free and
// this loader is active. Safe to call repeatedly; late loaders observe the
// slot is held and skip.
func (l *Loader) EnsureSubscribed() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active || l.subCancel != nil {
		return
	}
	if !l.registry.Acquire(l.id) {
		l.logger.Debug("Change subscription held by another loader, skipping")
		return
	}

	subCtx, cancel := context.WithCancel(context.Background())
	events, err := l.subscriber.Subscribe(subCtx)
	if err != nil {
		cancel()
		l.registry.Release(l.id)
		l.logger.WithError(err).Warn("Failed to subscribe to change notifications")
		return
	}

	l.subCancel = cancel
	go l.listen(events)
	l.logger.Debug("Change subscription established")
}

// listen forwards subscription events into the debounce loop
func (l *Loader) listen(events <-chan realtime.Event) {
	for ev := range events {
		metrics.NotificationsTotal.Inc()
		l.logger.WithField("event", ev.Type).Debug("Gallery change notification")
		l.scheduleReconcile()
	}
}

// scheduleReconcile starts or restarts the debounce timer so a burst of
// notifications coalesces into one reconciliation
func (l *Loader) scheduleReconcile() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active {
		return
	}
	if l.debounceTimer != nil {
		l.debounceTimer.Stop()
	}
	l.debounceTimer = time.AfterFunc(l.debounce, l.reconcile)
}

// reconcile runs once the debounce quiet period elapses. If a reconciliation
// is already in flight the attempt is skipped, not queued; the next
// notification schedules a fresh one.
func (l *Loader) reconcile() {
	if !l.isActive() {
		return
	}
	if !l.inFlight.CompareAndSwap(false, true) {
		metrics.ReconciliationsTotal.WithLabelValues("skipped").Inc()
		l.logger.Debug("Reconciliation already in flight, skipping")
		return
	}
	defer l.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	if err := l.Refresh(ctx); err != nil {
		// Non-fatal: the store keeps its last-known-good state and the next
		// notification triggers another attempt
		metrics.ReconciliationsTotal.WithLabelValues("failed").Inc()
		l.logger.WithError(err).Warn("Reconciliation failed")
		return
	}
	metrics.ReconciliationsTotal.WithLabelValues("run").Inc()

	// The subscription slot may have been freed by another loader's teardown
	l.EnsureSubscribed()
}

// Deactivate tears the loader down: cancels any pending debounce timer,
// marks the instance inactive so in-flight results are discarded, and
// releases the subscription slot if held. Never panics; safe to call twice.
func (l *Loader) Deactivate() {
	l.mu.Lock()
	l.active = false
	if l.debounceTimer != nil {
		l.debounceTimer.Stop()
		l.debounceTimer = nil
	}
	cancel := l.subCancel
	l.subCancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.registry.Release(l.id)
	l.logger.Debug("Loader deactivated")
}

func (l *Loader) isActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *Loader) query() backend.RecordQuery {
	f := l.store.Filter()
	return backend.RecordQuery{
		FolderID:    f.FolderID,
		SearchQuery: f.SearchQuery,
		Source:      f.Source,
	}
}

// hydrateFromSnapshot seeds the store from the persisted last-known-good
// snapshot before the first network response, once per loader
func (l *Loader) hydrateFromSnapshot() {
	if l.snapshot == nil {
		return
	}

	l.mu.Lock()
	if l.hydrated {
		l.mu.Unlock()
		return
	}
	l.hydrated = true
	l.mu.Unlock()

	if l.store.Len() > 0 {
		return
	}

	records, err := l.snapshot.Load()
	if err != nil {
		l.logger.WithError(err).Warn("Failed to read gallery snapshot")
		return
	}
	if len(records) == 0 {
		return
	}

	l.store.LoadPage(records, len(records), 1)
	l.logger.WithField("count", len(records)).Info("Hydrated gallery from snapshot")
}

func (l *Loader) setPageBase(base int) {
	l.mu.Lock()
	l.pageBase = base
	l.mu.Unlock()
}

// saveSnapshot persists the held records as the last-known-good gallery. The
// snapshot always holds the unfiltered view; persisting a filtered result set
// would hydrate the next session with only that subset.
func (l *Loader) saveSnapshot() {
	if l.snapshot == nil {
		return
	}
	if l.store.Filter() != (store.Filter{}) {
		return
	}
	if err := l.snapshot.Save(l.store.Records()); err != nil {
		l.logger.WithError(err).Warn("Failed to persist gallery snapshot")
	}
}
