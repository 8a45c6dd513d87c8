package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/sirupsen/logrus"
)

type State string

const (
	StateUnknown         State = "unknown"
	StateChecking        State = "checking"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// DefaultTimeout bounds the initial session check. When the auth backend is
// slow the bootstrap fails open to unauthenticated instead of blocking the
// page.
const DefaultTimeout = 3 * time.Second

// User is the resolved identity for a request. ProfileIncomplete is set
// when the account exists but has no usable display name yet, which routes
// the visitor through profile setup.
type User struct {
	ID                string
	Email             string
	Profile           *types.Profile
	ProfileIncomplete bool
}

// Snapshot is the externally visible session state at a point in time.
type Snapshot struct {
	State State
	User  *User
}

type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (userID, email string, err error)
}

type ProfileGetter interface {
	Profile(ctx context.Context, userID string) (*types.Profile, error)
}

// Bootstrapper resolves the session for incoming requests and runs the
// startup state machine: unknown, checking, then authenticated or
// unauthenticated. Later sign-ins and sign-outs are applied as transitions
// and fanned out to subscribers.
type Bootstrapper struct {
	logger   *logrus.Logger
	verifier TokenVerifier
	profiles ProfileGetter
	timeout  time.Duration

	mu      sync.Mutex
	state   State
	user    *User
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewBootstrapper(logger *logrus.Logger, verifier TokenVerifier, profiles ProfileGetter, timeout time.Duration) *Bootstrapper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Bootstrapper{
		logger:   logger,
		verifier: verifier,
		profiles: profiles,
		timeout:  timeout,
		state:    StateUnknown,
		subs:     make(map[int]func(Snapshot)),
	}
}

func (b *Bootstrapper) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{State: b.state, User: b.user}
}

// Subscribe registers fn for every state transition and returns the
// unsubscribe function. fn runs synchronously under the transition; keep it
// cheap.
func (b *Bootstrapper) Subscribe(fn func(Snapshot)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Bootstrap runs the initial session check for the stored token. An empty
// token, a verification failure, or a check that outlives the timeout all
// land in unauthenticated; only the subscription moves the state after that.
func (b *Bootstrapper) Bootstrap(ctx context.Context, accessToken string) Snapshot {
	b.transition(StateChecking, nil)

	if accessToken == "" {
		return b.transition(StateUnauthenticated, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	user, err := b.Resolve(ctx, accessToken)
	if err != nil {
		b.logger.WithError(err).Warn("session check failed, treating visitor as signed out")
		return b.transition(StateUnauthenticated, nil)
	}

	return b.transition(StateAuthenticated, user)
}

// Resolve verifies the token and attaches the profile. It does not touch
// the state machine, so request middleware can call it per request.
func (b *Bootstrapper) Resolve(ctx context.Context, accessToken string) (*User, error) {

	userID, email, err := b.verifier.Verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user := &User{ID: userID, Email: email}

	profile, err := b.profiles.Profile(ctx, userID)
	switch {
	case err == nil:
		user.Profile = profile
		user.ProfileIncomplete = strings.TrimSpace(profile.FirstName) == ""
	case errors.Is(err, types.ErrProfileNotFound):
		user.ProfileIncomplete = true
	default:
		// A flaky profile read must not sign the visitor out.
		b.logger.WithError(err).WithField("user_id", userID).Warn("profile fetch failed during session resolve")
		user.ProfileIncomplete = true
	}

	return user, nil
}

// SignedIn applies a sign-in transition, as reported by the auth backend
// after a successful login or OTP verification.
func (b *Bootstrapper) SignedIn(user *User) {
	b.transition(StateAuthenticated, user)
}

// SignedOut applies a sign-out transition.
func (b *Bootstrapper) SignedOut() {
	b.transition(StateUnauthenticated, nil)
}

func (b *Bootstrapper) transition(state State, user *User) Snapshot {
	b.mu.Lock()

	b.state = state
	b.user = user
	snap := Snapshot{State: state, User: user}

	fns := make([]func(Snapshot), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}

	return snap
}
