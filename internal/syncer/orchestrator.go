package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"watchmate/internal/compare"
	"watchmate/internal/config"
	"watchmate/internal/letterboxd"
	"watchmate/internal/logging"
	"watchmate/internal/notifications"
)

// ErrBusy indicates another sync session holds the lock.
var ErrBusy = errors.New("syncer: another sync is already running")

// ErrFetch wraps scrape failures so callers can tell them apart from cache
// write failures.
var ErrFetch = errors.New("syncer: fetch failed")

// ErrPersist wraps cache write failures, which abort the session.
var ErrPersist = errors.New("syncer: cache write failed")

// ErrCancelled wraps context cancellation of a session. The underlying
// context error is preserved in the chain.
var ErrCancelled = errors.New("syncer: sync cancelled")

// Fetcher is the scraping surface a session needs. *letterboxd.Client
// satisfies it; tests substitute fakes.
type Fetcher interface {
	FetchWatchlist(ctx context.Context, username string, opts letterboxd.WatchlistOptions) (map[string]struct{}, error)
	FetchFriends(ctx context.Context, username string) ([]string, error)
	WatchlistCount(ctx context.Context, username string) (int, bool)
}

// Store is the persistence surface a session needs. *cache.Store satisfies
// it.
type Store interface {
	SyncWatchlist(ctx context.Context, username string, titles map[string]struct{}) error
	SyncFriends(ctx context.Context, username string, friends []string) error
	Watchlist(ctx context.Context, username string) (map[string]struct{}, error)
}

// Request describes one sync session.
type Request struct {
	Username string
	// Friends to sync against. When empty, the friend list is scraped from
	// the user's following page and persisted.
	Friends []string
	// Decider resolves large-watchlist prompts. Nil means fetch everything.
	Decider Decider
}

// Outcome summarizes a finished session.
type Outcome struct {
	SessionID    string
	Username     string
	Friends      []string
	Results      []compare.Result
	FriendErrors map[string]error
	Duration     time.Duration
}

// Orchestrator runs sync sessions one at a time.
type Orchestrator struct {
	cfg      *config.Config
	fetcher  Fetcher
	store    Store
	notifier notifications.Service
	logger   *slog.Logger
	lock     *flock.Flock
	events   chan Event
}

// New constructs an orchestrator. The lock file lives next to the cache
// database so concurrent invocations against the same cache exclude each
// other.
func New(cfg *config.Config, fetcher Fetcher, store Store, notifier notifications.Service, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Orchestrator{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "syncer")),
		lock:     flock.New(cfg.Cache.Path + ".lock"),
		events:   make(chan Event, 128),
	}
}

// Events exposes the session event stream. The channel is buffered; events
// are dropped rather than stalling the session when no consumer keeps up.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

func (o *Orchestrator) publish(event Event) {
	select {
	case o.events <- event:
	default:
		o.logger.Debug("event dropped, consumer not keeping up",
			logging.String(logging.FieldEventType, string(event.Type)))
	}
}

// Run executes a sync session to completion. Friend fetch failures are
// isolated: the failing friend is recorded in the outcome and the session
// continues. Cache write failures and context cancellation abort the
// session; cancellation leaves previously persisted lists intact.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Outcome, error) {
	locked, err := o.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !locked {
		return nil, ErrBusy
	}
	defer func() {
		if unlockErr := o.lock.Unlock(); unlockErr != nil {
			o.logger.Warn("failed to release sync lock", logging.Error(unlockErr))
		}
	}()

	session := &sessionState{
		id:      uuid.NewString(),
		req:     req,
		started: time.Now(),
	}
	log := o.logger.With(logging.String(logging.FieldSessionID, session.id),
		logging.String(logging.FieldUsername, req.Username))
	log.Info("sync session started")

	outcome, err := o.run(ctx, session, log)
	switch {
	case err == nil:
		o.publish(Event{Type: EventCompleted, SessionID: session.id, Stage: StageDone,
			Fraction: 1, Results: outcome.Results})
		_ = o.notifier.NotifySyncCompleted(ctx, req.Username, len(outcome.Friends),
			compare.TotalTitles(outcome.Results), outcome.Duration)
		log.Info("sync session complete",
			logging.Int("friends", len(outcome.Friends)),
			logging.Int("shared_titles", compare.TotalTitles(outcome.Results)),
			logging.Duration("duration", outcome.Duration))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", ErrCancelled, err)
		o.publish(Event{Type: EventCancelled, SessionID: session.id, Stage: StageCancelled,
			Err: err, Results: outcome.Results})
		// The notifier gets a fresh context; the session one is dead.
		_ = o.notifier.NotifySyncCancelled(context.WithoutCancel(ctx), req.Username)
		log.Info("sync session cancelled",
			logging.Int("partial_results", len(outcome.Results)))
	default:
		o.publish(Event{Type: EventFailed, SessionID: session.id, Stage: StageFailed, Err: err})
		_ = o.notifier.NotifyError(context.WithoutCancel(ctx), err, "sync session")
		log.Error("sync session failed", logging.Error(err))
	}
	return outcome, err
}

type sessionState struct {
	id      string
	req     Request
	started time.Time
	// units completed out of total, for the progress fraction
	done  int
	total int
}

func (o *Orchestrator) run(ctx context.Context, session *sessionState, log *slog.Logger) (*Outcome, error) {
	req := session.req
	outcome := &Outcome{
		SessionID:    session.id,
		Username:     req.Username,
		FriendErrors: make(map[string]error),
	}

	_ = o.notifier.NotifySyncStarted(ctx, req.Username, len(req.Friends))

	// Resolve the friend list first so the progress denominator is known.
	friends := req.Friends
	if len(friends) == 0 {
		var err error
		friends, err = o.fetcher.FetchFriends(ctx, req.Username)
		if err != nil {
			if ctx.Err() != nil {
				return outcome, err
			}
			return outcome, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		if err := o.store.SyncFriends(ctx, req.Username, friends); err != nil {
			return outcome, fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	outcome.Friends = friends
	// One unit per watchlist, plus one for the comparison.
	session.total = 1 + len(friends) + 1

	o.setStage(session, StageOwnWatchlist)
	if err := o.syncOne(ctx, session, req.Username, log); err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrPersist) {
			return outcome, err
		}
		// Fetch failures fall back to the cached copy of the user's list.
		log.Warn("own watchlist fetch failed, comparing against cached copy",
			logging.Error(err))
	}
	session.done++
	o.progress(session)

	o.setStage(session, StageFriends)
	var cancelErr error
	completed := make([]string, 0, len(friends))
	for _, friend := range friends {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}
		err := o.syncOne(ctx, session, friend, log)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				cancelErr = ctxErr
				break
			}
			if errors.Is(err, ErrPersist) {
				return outcome, err
			}
			outcome.FriendErrors[friend] = err
			o.publish(Event{Type: EventFriendFailed, SessionID: session.id,
				Stage: StageFriends, Friend: friend, Err: err})
			log.Warn("friend sync failed, continuing",
				logging.String(logging.FieldFriend, friend), logging.Error(err))
		} else {
			completed = append(completed, friend)
			o.publish(Event{Type: EventFriendSynced, SessionID: session.id,
				Stage: StageFriends, Friend: friend})
		}
		session.done++
		o.progress(session)
	}

	// A cancelled session still compares whatever was persisted before the
	// cancel, so partial results reach the caller. The cache reads below need
	// a live context for that.
	readCtx := ctx
	if cancelErr != nil {
		readCtx = context.WithoutCancel(ctx)
	}

	o.setStage(session, StageComparing)
	userList, err := o.store.Watchlist(readCtx, req.Username)
	if err != nil {
		return outcome, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	friendLists := make(map[string]map[string]struct{}, len(completed))
	for _, friend := range completed {
		list, err := o.store.Watchlist(readCtx, friend)
		if err != nil {
			return outcome, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		friendLists[friend] = list
	}
	outcome.Results = compare.Watchlists(userList, completed, friendLists)
	session.done++
	o.progress(session)

	outcome.Duration = time.Since(session.started)
	return outcome, cancelErr
}

// syncOne fetches and persists a single watchlist, applying the
// large-watchlist decision when the probe crosses the threshold.
func (o *Orchestrator) syncOne(ctx context.Context, session *sessionState, username string, log *slog.Logger) error {
	opts := letterboxd.WatchlistOptions{}
	if count, ok := o.fetcher.WatchlistCount(ctx, username); ok {
		// The fetch reuses the probed count instead of probing again.
		opts.Total = count
		if count >= o.cfg.Letterboxd.LargeThreshold {
			decision := DecideFull
			if session.req.Decider != nil {
				decision = session.req.Decider.Decide(username, count)
			}
			switch decision {
			case DecideSkip:
				log.Info("large watchlist skipped, keeping cached copy",
					logging.String(logging.FieldUsername, username),
					logging.Int("count", count))
				return nil
			case DecideLimit:
				opts.Limit = o.cfg.Letterboxd.LargeLimit
			}
		}
	}

	titles, err := o.fetcher.FetchWatchlist(ctx, username, opts)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	// A finished fetch is committed even when a cancel races in at its tail;
	// the write is one quick local transaction.
	if err := o.store.SyncWatchlist(context.WithoutCancel(ctx), username, titles); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (o *Orchestrator) setStage(session *sessionState, stage Stage) {
	o.publish(Event{Type: EventStageChanged, SessionID: session.id, Stage: stage,
		Fraction: session.fraction()})
}

func (o *Orchestrator) progress(session *sessionState) {
	o.publish(Event{Type: EventProgress, SessionID: session.id, Fraction: session.fraction()})
}

func (s *sessionState) fraction() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.done) / float64(s.total)
}
