// Package session tracks who is signed in. It starts resolving, settles into
// authenticated or anonymous, and keeps following auth changes from the
// backend for as long as it runs.
package session

import (
	"context"
	"log/slog"
	"time"
)

type State string

const (
	StateResolving     State = "resolving"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// DemoIdentity is the fixed identity used when no remote backend is
// configured.
var DemoIdentity = Identity{ID: "demo-user", Email: "demo@moneta.local"}

// Snapshot is the externally visible session state at one point in time.
type Snapshot struct {
	State    State
	Identity Identity
	Profile  Profile
}

type Option func(*Manager)

// WithDemoDelay overrides the simulated resolution delay in demo mode.
func WithDemoDelay(d time.Duration) Option {
	return func(m *Manager) { m.demoDelay = d }
}

// WithProfileTimeout bounds the enrichment fetch after sign-in.
func WithProfileTimeout(d time.Duration) Option {
	return func(m *Manager) { m.profileTimeout = d }
}

// WithChangeListener registers a callback invoked after every state change.
// It runs on the manager's goroutine and must not block.
func WithChangeListener(fn func(Snapshot)) Option {
	return func(m *Manager) { m.onChange = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager owns the session state machine. A nil auth source selects demo
// mode: a fixed identity after a short simulated delay, no remote calls.
type Manager struct {
	source         AuthSource
	demoDelay      time.Duration
	profileTimeout time.Duration
	logger         *slog.Logger
	onChange       func(Snapshot)

	// Serialized by Run's goroutine plus the snapshot channel below.
	snapshots chan snapRequest
	updates   chan func(*sessionState)
}

type snapRequest chan Snapshot

// sessionState is mutated only inside Run. generation counts identity
// changes; an enrichment result stamped with an older generation is stale.
type sessionState struct {
	state      State
	identity   Identity
	profile    Profile
	generation uint64
}

func NewManager(source AuthSource, opts ...Option) *Manager {
	m := &Manager{
		source:         source,
		demoDelay:      200 * time.Millisecond,
		profileTimeout: 3 * time.Second,
		logger:         slog.Default(),
		snapshots:      make(chan snapRequest),
		updates:        make(chan func(*sessionState)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run drives the state machine until ctx is canceled. It must be running for
// Snapshot and Logout to make progress.
func (m *Manager) Run(ctx context.Context) {
	st := sessionState{state: StateResolving}

	var events <-chan AuthEvent
	if m.source != nil {
		events = m.source.Events()
	} else {
		// Demo mode resolves to the fixed identity after the delay.
		timer := time.NewTimer(m.demoDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
			m.apply(&st, func(s *sessionState) { s.signIn(DemoIdentity) })
		case <-ctx.Done():
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-m.snapshots:
			req <- snapshotOf(st)
		case fn := <-m.updates:
			m.apply(&st, fn)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.SignedIn {
				identity := ev.Identity
				var gen uint64
				m.apply(&st, func(s *sessionState) {
					s.signIn(identity)
					gen = s.generation
				})
				go m.enrich(ctx, identity, gen)
			} else {
				m.apply(&st, (*sessionState).signOut)
			}
		}
	}
}

func (s *sessionState) signIn(id Identity) {
	s.state = StateAuthenticated
	s.identity = id
	s.profile = Profile{}
	s.generation++
}

func (s *sessionState) signOut() {
	if s.state == StateAnonymous {
		return
	}
	s.state = StateAnonymous
	s.identity = Identity{}
	s.profile = Profile{}
	s.generation++
}

func (m *Manager) apply(st *sessionState, fn func(*sessionState)) {
	before := *st
	fn(st)
	if m.onChange != nil && *st != before {
		m.onChange(snapshotOf(*st))
	}
}

func snapshotOf(st sessionState) Snapshot {
	return Snapshot{State: st.state, Identity: st.identity, Profile: st.profile}
}

// enrich fetches the profile for a freshly signed-in identity. Failure and
// timeout are swallowed: the minimal identity stays in place either way, and
// a result arriving after the identity changed is discarded.
func (m *Manager) enrich(ctx context.Context, identity Identity, gen uint64) {
	fetchCtx, cancel := context.WithTimeout(ctx, m.profileTimeout)
	defer cancel()

	profile, err := m.source.FetchProfile(fetchCtx, identity.ID)
	if err != nil {
		m.logger.Debug("Profile enrichment skipped", "user_id", identity.ID, "error", err)
		return
	}

	select {
	case m.updates <- func(s *sessionState) {
		if s.generation != gen {
			return
		}
		s.profile = profile
	}:
	case <-ctx.Done():
	}
}

// Snapshot returns the current session state. It blocks until Run services
// the request or ctx ends.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	req := make(snapRequest, 1)
	select {
	case m.snapshots <- req:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-req:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Logout ends the current session. In demo mode the demo identity is seeded
// right back, since there is nothing to sign out of. In live mode the remote
// session is terminated; the resulting signed-out event drives the state
// change, and the local transition here only covers a backend that cannot
// deliver it.
func (m *Manager) Logout(ctx context.Context) error {
	if m.source == nil {
		return m.push(ctx, func(s *sessionState) { s.signIn(DemoIdentity) })
	}
	err := m.source.SignOut(ctx)
	if pushErr := m.push(ctx, (*sessionState).signOut); pushErr != nil {
		return pushErr
	}
	return err
}

func (m *Manager) push(ctx context.Context, fn func(*sessionState)) error {
	select {
	case m.updates <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
