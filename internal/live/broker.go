// Package live pushes trip snapshots to subscribers as the store reports
// changes.
//
// A Broker is fed by a repo.ChangeFeed. For every changed trip id it reloads
// the trip once and queues the fresh snapshot to every subscriber of that
// trip, then reloads the trip list of every user whose list contained the
// trip or who can now see it. Each subscriber has its own unbounded mailbox,
// so a stalled reader delays only itself.
//
// Delivery is at-least-once per observed change. The broker does not sequence
// snapshots beyond the order in which the feed reports changes. When a feed
// reconnects it reports repo.AllTrips and every subscriber is reloaded, which
// covers changes made while the feed was down.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/metrics"
	"github.com/pkordes/trip-planner/internal/repo"
)

const (
	kindTrip = "trip"
	kindUser = "user"
)

// Source is the read side of the trip store the broker reloads from.
type Source interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListForUser(ctx context.Context, uid string) ([]domain.Trip, error)
}

// TripSnapshot is one delivery to a trip subscriber. Absent is set, and Trip
// is nil, when the trip does not exist (never created or deleted).
type TripSnapshot struct {
	TripID uuid.UUID    `json:"trip_id"`
	Trip   *domain.Trip `json:"trip,omitempty"`
	Absent bool         `json:"absent"`
}

// Subscription is a live handle on a stream of values of type T.
type Subscription[T any] struct {
	mb     *mailbox[T]
	once   sync.Once
	remove func()
}

// C returns the delivery channel. It is closed after Unsubscribe.
func (s *Subscription[T]) C() <-chan T {
	return s.mb.out
}

// Unsubscribe stops delivery and closes C before returning. Safe to call
// more than once and from multiple goroutines.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		s.remove()
		s.mb.close()
	})
}

// gate holds back change deliveries until a subscriber's first snapshot has
// been queued. A change that arrives earlier marks the gate dirty, and the
// first snapshot is loaded again so it cannot predate that change.
type gate struct {
	mu    sync.Mutex
	open  bool
	dirty bool
}

// deliver runs push once the gate is open. Before that it records the change
// and reports false.
func (g *gate) deliver(push func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		g.dirty = true
		return false
	}
	push()
	return true
}

func (g *gate) opened() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// prime calls load until no change arrives while it runs, then pushes the
// result and opens the gate.
func prime[T any](ctx context.Context, g *gate, load func(context.Context) (T, error), push func(T)) error {
	for {
		g.mu.Lock()
		g.dirty = false
		g.mu.Unlock()

		v, err := load(ctx)
		if err != nil {
			return err
		}

		g.mu.Lock()
		if g.dirty {
			g.mu.Unlock()
			continue
		}
		push(v)
		g.open = true
		g.mu.Unlock()
		return nil
	}
}

type tripSub struct {
	mb *mailbox[TripSnapshot]
	gate
}

type userSub struct {
	uid string
	mb  *mailbox[[]domain.Trip]
	gate

	seenMu sync.Mutex
	seen   map[uuid.UUID]struct{} // ids in the last delivered list
}

func (u *userSub) push(trips []domain.Trip) {
	seen := make(map[uuid.UUID]struct{}, len(trips))
	for _, t := range trips {
		seen[t.ID] = struct{}{}
	}
	u.seenMu.Lock()
	u.seen = seen
	u.seenMu.Unlock()
	u.mb.push(trips)
	metrics.SnapshotsDelivered.WithLabelValues(kindUser).Inc()
}

func (u *userSub) listed(id uuid.UUID) bool {
	u.seenMu.Lock()
	defer u.seenMu.Unlock()
	_, ok := u.seen[id]
	return ok
}

// Broker fans store changes out to live subscribers.
type Broker struct {
	src    Source
	logger *slog.Logger

	mu     sync.Mutex
	nextID uint64
	trips  map[uuid.UUID]map[uint64]*tripSub
	users  map[uint64]*userSub
	subs   map[uint64]func() // every live Unsubscribe, for Close
	closed bool
}

// NewBroker returns a broker that reloads snapshots from src.
func NewBroker(src Source, logger *slog.Logger) *Broker {
	return &Broker{
		src:    src,
		logger: logger,
		trips:  make(map[uuid.UUID]map[uint64]*tripSub),
		users:  make(map[uint64]*userSub),
		subs:   make(map[uint64]func()),
	}
}

// ErrClosed is returned by Subscribe calls made after Close.
var ErrClosed = errors.New("live: broker closed")

// Run feeds the broker from feed until ctx is cancelled.
func (b *Broker) Run(ctx context.Context, feed repo.ChangeFeed) error {
	return feed.Run(ctx, b.Notify)
}

// SubscribeTrip delivers the current snapshot of trip id, then a fresh
// snapshot after every change to it. The subscriber is registered before the
// first load, so a change racing the subscribe is never missed.
func (b *Broker) SubscribeTrip(ctx context.Context, id uuid.UUID) (*Subscription[TripSnapshot], error) {
	ts := &tripSub{mb: newMailbox[TripSnapshot]()}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		ts.mb.close()
		return nil, ErrClosed
	}
	subID := b.nextID
	b.nextID++
	if b.trips[id] == nil {
		b.trips[id] = make(map[uint64]*tripSub)
	}
	b.trips[id][subID] = ts
	sub := &Subscription[TripSnapshot]{mb: ts.mb}
	sub.remove = func() {
		b.mu.Lock()
		delete(b.trips[id], subID)
		if len(b.trips[id]) == 0 {
			delete(b.trips, id)
		}
		delete(b.subs, subID)
		b.mu.Unlock()
		metrics.Subscriptions.WithLabelValues(kindTrip).Dec()
	}
	b.subs[subID] = sub.Unsubscribe
	b.mu.Unlock()
	metrics.Subscriptions.WithLabelValues(kindTrip).Inc()

	load := func(ctx context.Context) (TripSnapshot, error) { return b.loadTrip(ctx, id) }
	push := func(snap TripSnapshot) {
		ts.mb.push(snap)
		metrics.SnapshotsDelivered.WithLabelValues(kindTrip).Inc()
	}
	if err := prime(ctx, &ts.gate, load, push); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("live.Broker.SubscribeTrip: %w", err)
	}
	return sub, nil
}

// SubscribeUserTrips delivers the full list of trips uid can access, then the
// full list again after every change to a trip that is, or was, on it.
func (b *Broker) SubscribeUserTrips(ctx context.Context, uid string) (*Subscription[[]domain.Trip], error) {
	us := &userSub{uid: uid, mb: newMailbox[[]domain.Trip]()}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		us.mb.close()
		return nil, ErrClosed
	}
	subID := b.nextID
	b.nextID++
	b.users[subID] = us
	sub := &Subscription[[]domain.Trip]{mb: us.mb}
	sub.remove = func() {
		b.mu.Lock()
		delete(b.users, subID)
		delete(b.subs, subID)
		b.mu.Unlock()
		metrics.Subscriptions.WithLabelValues(kindUser).Dec()
	}
	b.subs[subID] = sub.Unsubscribe
	b.mu.Unlock()
	metrics.Subscriptions.WithLabelValues(kindUser).Inc()

	load := func(ctx context.Context) ([]domain.Trip, error) { return b.src.ListForUser(ctx, uid) }
	if err := prime(ctx, &us.gate, load, us.push); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("live.Broker.SubscribeUserTrips: %w", err)
	}
	return sub, nil
}

// Notify reloads trip id and queues fresh snapshots to every affected
// subscriber. It matches repo.ChangeHandler; repo.AllTrips resyncs every
// subscriber. Load failures are logged and the change is skipped; the next
// change for the trip delivers again.
func (b *Broker) Notify(ctx context.Context, id uuid.UUID) {
	if id == repo.AllTrips {
		b.Resync(ctx)
		return
	}

	b.mu.Lock()
	tripSubs := make([]*tripSub, 0, len(b.trips[id]))
	for _, ts := range b.trips[id] {
		tripSubs = append(tripSubs, ts)
	}
	users := make([]*userSub, 0, len(b.users))
	for _, us := range b.users {
		users = append(users, us)
	}
	b.mu.Unlock()

	if len(tripSubs) == 0 && len(users) == 0 {
		return
	}

	snap, err := b.loadTrip(ctx, id)
	if err != nil {
		b.logger.Warn("live: reload trip failed", slog.String("trip_id", id.String()), slog.Any("error", err))
		return
	}
	b.pushTrip(snap, tripSubs)

	var allowed []string
	if snap.Trip != nil {
		allowed = snap.Trip.AllowedUsers
	}
	affected := users[:0]
	for _, us := range users {
		// A subscriber still priming has no delivered list to compare against.
		if !us.opened() || us.listed(id) || slices.Contains(allowed, us.uid) {
			affected = append(affected, us)
		}
	}
	b.reloadUsers(ctx, affected)
}

// Resync reloads and queues a fresh snapshot to every subscriber. Feeds
// trigger it, through repo.AllTrips, after changes may have gone unreported.
func (b *Broker) Resync(ctx context.Context) {
	b.mu.Lock()
	byTrip := make(map[uuid.UUID][]*tripSub, len(b.trips))
	for id, subs := range b.trips {
		for _, ts := range subs {
			byTrip[id] = append(byTrip[id], ts)
		}
	}
	users := make([]*userSub, 0, len(b.users))
	for _, us := range b.users {
		users = append(users, us)
	}
	b.mu.Unlock()

	b.logger.Info("live: resyncing subscribers", slog.Int("trips", len(byTrip)), slog.Int("user_lists", len(users)))
	for id, subs := range byTrip {
		snap, err := b.loadTrip(ctx, id)
		if err != nil {
			b.logger.Warn("live: reload trip failed", slog.String("trip_id", id.String()), slog.Any("error", err))
			continue
		}
		b.pushTrip(snap, subs)
	}
	b.reloadUsers(ctx, users)
}

func (b *Broker) pushTrip(snap TripSnapshot, subs []*tripSub) {
	for _, ts := range subs {
		if ts.deliver(func() { ts.mb.push(snap.clone()) }) {
			metrics.SnapshotsDelivered.WithLabelValues(kindTrip).Inc()
		}
	}
}

// reloadUsers loads each distinct uid's list once and queues a copy to each
// of its subscribers.
func (b *Broker) reloadUsers(ctx context.Context, users []*userSub) {
	reloaded := map[string][]domain.Trip{}
	for _, us := range users {
		trips, ok := reloaded[us.uid]
		if !ok {
			var err error
			trips, err = b.src.ListForUser(ctx, us.uid)
			if err != nil {
				b.logger.Warn("live: reload user trips failed", slog.String("uid", us.uid), slog.Any("error", err))
				continue
			}
			reloaded[us.uid] = trips
		}
		us.deliver(func() { us.push(cloneTrips(trips)) })
	}
}

// Close unsubscribes everyone. Later Subscribe calls return ErrClosed.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	unsubs := make([]func(), 0, len(b.subs))
	for _, u := range b.subs {
		unsubs = append(unsubs, u)
	}
	b.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func (b *Broker) loadTrip(ctx context.Context, id uuid.UUID) (TripSnapshot, error) {
	t, err := b.src.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return TripSnapshot{TripID: id, Absent: true}, nil
	}
	if err != nil {
		return TripSnapshot{}, err
	}
	return TripSnapshot{TripID: id, Trip: &t}, nil
}

func (s TripSnapshot) clone() TripSnapshot {
	if s.Trip != nil {
		t := s.Trip.Clone()
		s.Trip = &t
	}
	return s
}

// cloneTrips gives each user subscriber its own copy of a shared reload.
func cloneTrips(trips []domain.Trip) []domain.Trip {
	out := make([]domain.Trip, len(trips))
	for i, t := range trips {
		out[i] = t.Clone()
	}
	return out
}
