package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/pkg/cryptox"
)

// DefaultReauthWindow is the sliding freshness window: a verification older
// than this no longer satisfies the gate.
const DefaultReauthWindow = 15 * time.Minute

var (
	// ErrInvalidPassword is the step-up gate's password failure. Unlike the
	// sign-in flow, the gate names which check failed so the user can
	// correct it.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrPasswordNotVerified means a code was submitted before the password
	// check passed. Password always comes first.
	ErrPasswordNotVerified = errors.New("password must be verified first")

	ErrNoPendingAction = errors.New("no pending action")
	ErrUnknownAction   = errors.New("unknown action")
)

// IntentExecutor runs a verified pending intent. Executors are registered
// per action name at wiring time.
type IntentExecutor func(ctx context.Context, userID string, intent domain.PendingIntent) error

// ReauthOptions tune the gate policy for a single sensitive action.
type ReauthOptions struct {
	// AlwaysMFA requires a fresh verification regardless of recency.
	AlwaysMFA bool
}

// RequireResult reports what the gate did with a sensitive-action request.
type RequireResult struct {
	// Executed is true when the verification was fresh enough and the
	// intent ran immediately.
	Executed bool

	// State is the gate state after the call.
	State domain.ReauthState
}

// SubmitResult reports the outcome of a credential submission.
type SubmitResult struct {
	// Requires2FA is true when the password passed but a code is still
	// needed before the gate opens.
	Requires2FA bool

	// Executed is true when the pending intent ran as part of this call.
	Executed bool
}

// gate is the per-session step-up state. One pending slot only; a newer
// sensitive action silently replaces an older one (last-action-wins).
type gate struct {
	state        domain.ReauthState
	lastVerified time.Time
	pending      *domain.PendingIntent
	passwordOK   bool
	touchedAt    time.Time
}

// ReauthService is the step-up re-authentication gate. Each session id gets
// its own explicit gate record; nothing is hidden in callbacks or globals.
// Pending actions are tagged intent values, executed exactly once after
// verification, and discarded on cancel with no late invocation.
type ReauthService struct {
	Store  store.Store
	MFA    *MFAService
	Logger *slog.Logger

	// Window overrides DefaultReauthWindow when positive.
	Window time.Duration

	mu        sync.Mutex
	gates     map[string]*gate
	executors map[string]IntentExecutor

	// now is swappable for tests.
	now func() time.Time
}

func NewReauthService(st store.Store, mfa *MFAService, logger *slog.Logger, window time.Duration) *ReauthService {
	if window <= 0 {
		window = DefaultReauthWindow
	}
	return &ReauthService{
		Store:     st,
		MFA:       mfa,
		Logger:    logger,
		Window:    window,
		gates:     make(map[string]*gate),
		executors: make(map[string]IntentExecutor),
		now:       time.Now,
	}
}

// RegisterExecutor binds an action name to its executor. Intents whose
// action has no executor are rejected at Require time.
func (s *ReauthService) RegisterExecutor(action string, fn IntentExecutor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[action] = fn
}

// State reports the current gate state for a session.
func (s *ReauthService) State(sid string) domain.ReauthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[sid]
	if !ok {
		return domain.ReauthIdle
	}
	return g.state
}

// IsReauthRequired applies the gate policy: required when the action demands
// MFA regardless of recency, or when no verification happened within the
// sliding window.
func (s *ReauthService) IsReauthRequired(sid string, opts ReauthOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRequiredLocked(s.gates[sid], opts)
}

func (s *ReauthService) isRequiredLocked(g *gate, opts ReauthOptions) bool {
	if opts.AlwaysMFA {
		return true
	}
	if g == nil || g.lastVerified.IsZero() {
		return true
	}
	return s.now().Sub(g.lastVerified) > s.Window
}

// Require asks the gate to run a sensitive action. With a fresh verification
// the intent executes immediately; otherwise it is retained in the gate's
// single pending slot, replacing any older intent, and the gate moves to
// Required.
func (s *ReauthService) Require(ctx context.Context, sid, userID string, intent domain.PendingIntent, opts ReauthOptions) (RequireResult, error) {
	s.mu.Lock()
	exec, ok := s.executors[intent.Action]
	if !ok {
		s.mu.Unlock()
		return RequireResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, intent.Action)
	}

	g := s.gateLocked(sid)
	if !s.isRequiredLocked(g, opts) {
		g.state = domain.ReauthVerified
		g.touchedAt = s.now()
		s.mu.Unlock()

		if err := exec(ctx, userID, intent); err != nil {
			return RequireResult{Executed: true, State: domain.ReauthVerified}, err
		}
		return RequireResult{Executed: true, State: domain.ReauthVerified}, nil
	}

	if g.pending != nil {
		s.Logger.Debug("replacing pending action", "sid", sid, "old", g.pending.Action, "new", intent.Action)
	}
	retained := intent
	g.pending = &retained
	g.state = domain.ReauthRequired
	g.passwordOK = false
	g.touchedAt = s.now()
	s.mu.Unlock()

	return RequireResult{Executed: false, State: domain.ReauthRequired}, nil
}

// SubmitPassword moves the gate through Verifying on a password submission.
// On success the intent runs immediately unless the user has 2FA enabled, in
// which case the gate stays in Verifying awaiting a code. On failure the
// gate drops back to Required with the intent preserved for retry.
func (s *ReauthService) SubmitPassword(ctx context.Context, sid, userID, password string) (SubmitResult, error) {
	s.mu.Lock()
	g, ok := s.gates[sid]
	if !ok || g.pending == nil {
		s.mu.Unlock()
		return SubmitResult{}, ErrNoPendingAction
	}
	g.state = domain.ReauthVerifying
	g.touchedAt = s.now()
	s.mu.Unlock()

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		s.fail(sid, false)
		return SubmitResult{}, fmt.Errorf("get user: %w", err)
	}
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		s.fail(sid, false)
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return SubmitResult{}, ErrInvalidPassword
		}
		return SubmitResult{}, err
	}

	profile, err := s.Store.Profiles().GetProfile(ctx, userID)
	if err != nil {
		s.fail(sid, false)
		return SubmitResult{}, fmt.Errorf("get profile: %w", err)
	}
	if profile.TwoFactorMisconfigured() {
		s.fail(sid, false)
		return SubmitResult{}, ErrTwoFactorMisconfigured
	}
	if profile.HasTwoFactor() {
		s.mu.Lock()
		if g, ok := s.gates[sid]; ok {
			g.passwordOK = true
		}
		s.mu.Unlock()
		return SubmitResult{Requires2FA: true}, nil
	}

	return s.complete(ctx, sid, userID)
}

// SubmitCode completes a verification whose password step already passed.
// An invalid code drops the gate back to Required, keeping both the intent
// and the verified password step so only the code needs re-entering.
func (s *ReauthService) SubmitCode(ctx context.Context, sid, userID, code string) (SubmitResult, error) {
	s.mu.Lock()
	g, ok := s.gates[sid]
	if !ok || g.pending == nil {
		s.mu.Unlock()
		return SubmitResult{}, ErrNoPendingAction
	}
	if !g.passwordOK {
		s.mu.Unlock()
		return SubmitResult{}, ErrPasswordNotVerified
	}
	g.state = domain.ReauthVerifying
	g.touchedAt = s.now()
	s.mu.Unlock()

	if err := s.MFA.VerifyCode(ctx, userID, code); err != nil {
		s.fail(sid, true)
		return SubmitResult{}, err
	}
	return s.complete(ctx, sid, userID)
}

// Cancel discards the pending intent and returns the gate to Idle. This is
// the only path that drops a pending action, and after it returns no late
// execution of that intent is possible.
func (s *ReauthService) Cancel(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[sid]
	if !ok {
		return
	}
	g.pending = nil
	g.passwordOK = false
	g.state = domain.ReauthIdle
	g.touchedAt = s.now()
}

// PruneStale drops gates that have been idle past the window with nothing
// pending. Called by housekeeping.
func (s *ReauthService) PruneStale() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-2 * s.Window)
	pruned := 0
	for sid, g := range s.gates {
		if g.pending == nil && g.touchedAt.Before(cutoff) {
			delete(s.gates, sid)
			pruned++
		}
	}
	return pruned
}

// complete records the verification and runs the pending intent exactly
// once. The intent is removed from the slot before the executor runs, so a
// concurrent Cancel or a second complete cannot re-dispatch it.
func (s *ReauthService) complete(ctx context.Context, sid, userID string) (SubmitResult, error) {
	s.mu.Lock()
	g, ok := s.gates[sid]
	if !ok || g.pending == nil {
		// Cancelled while the credential check was in flight. The
		// verification still counts; the action does not run.
		if ok {
			g.lastVerified = s.now()
			g.state = domain.ReauthVerified
		}
		s.mu.Unlock()
		return SubmitResult{}, nil
	}
	intent := *g.pending
	g.pending = nil
	g.passwordOK = false
	g.lastVerified = s.now()
	g.state = domain.ReauthVerified
	g.touchedAt = s.now()
	exec := s.executors[intent.Action]
	s.mu.Unlock()

	if exec == nil {
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, intent.Action)
	}
	if err := exec(ctx, userID, intent); err != nil {
		return SubmitResult{Executed: true}, err
	}
	return SubmitResult{Executed: true}, nil
}

// fail returns the gate to Required after a rejected check, preserving the
// pending intent so the user can retry without re-triggering the action. A
// rejected code keeps the already-verified password step; a rejected
// password resets it.
func (s *ReauthService) fail(sid string, keepPassword bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[sid]
	if !ok {
		return
	}
	g.state = domain.ReauthRequired
	if !keepPassword {
		g.passwordOK = false
	}
	g.touchedAt = s.now()
}

func (s *ReauthService) gateLocked(sid string) *gate {
	g, ok := s.gates[sid]
	if !ok {
		g = &gate{state: domain.ReauthIdle}
		s.gates[sid] = g
	}
	return g
}
