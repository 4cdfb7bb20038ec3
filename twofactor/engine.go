package twofactor

import (
	"context"
	"errors"
	"sync"
)

// ErrNoVerifier is returned by Submit on an engine built without a verifier.
var ErrNoVerifier = errors.New("twofactor: verifier is nil")

// Request is the verification payload. It is built immediately before dispatch
// and never stored.
type Request struct {
	Code         string `json:"code"`
	IsBackupCode bool   `json:"isBackupCode"`
}

// Verifier performs the remote verification call.
type Verifier interface {
	VerifyTwoFactor(ctx context.Context, req Request) error
}

// VerifierFunc adapts a function to [Verifier].
type VerifierFunc func(ctx context.Context, req Request) error

func (f VerifierFunc) VerifyTwoFactor(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Rejection is implemented by verifier errors that carry a server response. Such
// errors end the attempt as Rejected instead of failing it.
type Rejection interface {
	error
	RejectionMessage() string
}

// userFacing is implemented by errors whose text is safe to display.
type userFacing interface {
	UserMessage() string
}

// Option configures an [Engine].
type Option func(*Engine)

// WithMode sets the initial mode.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.state.Mode = m }
}

// OnChange registers fn to receive every state the engine moves to. It is called
// outside the engine lock, so it may call back into the engine.
func OnChange(fn func(State)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine executes [Reduce] transitions and the verification side effect. It is
// safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	state    State
	verifier Verifier
	onChange func(State)
}

// NewEngine creates an idle engine that submits through v.
func NewEngine(v Verifier, opts ...Option) *Engine {
	e := &Engine{verifier: v}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dispatch applies ev and returns the resulting state.
func (e *Engine) Dispatch(ev Event) State {
	e.mu.Lock()
	prev := e.state
	next := Reduce(prev, ev)
	e.state = next
	e.mu.Unlock()

	if next != prev {
		e.notify(next)
	}
	return next
}

// Type replaces the input with the sanitized form of value.
func (e *Engine) Type(value string) State {
	return e.Dispatch(Input{Value: value})
}

// Toggle switches between TOTP and backup entry, clearing input and error.
func (e *Engine) Toggle() State {
	return e.Dispatch(ToggleMode{})
}

// Reset returns to an idle step in the current mode.
func (e *Engine) Reset() State {
	return e.Dispatch(Reset{})
}

// Submit validates the input and, when it is well formed, sends it to the
// verifier.
//
// Format errors and rejections are recovered here: the returned state carries the
// message and the error is nil. Any other verifier error is returned and the state
// goes back to editing with a displayable message. A Submit while another is
// in flight returns the current state without calling the verifier.
func (e *Engine) Submit(ctx context.Context) (State, error) {
	e.mu.Lock()
	if e.state.Busy() || e.state.Phase == PhaseSuccess {
		s := e.state
		e.mu.Unlock()
		return s, nil
	}
	validating := Reduce(e.state, Submit{})
	next := Reduce(validating, CheckFormat{})
	e.state = next
	e.mu.Unlock()

	e.notify(validating)
	e.notify(next)
	if next.Phase != PhaseSubmitting {
		return next, nil
	}
	if e.verifier == nil {
		return e.Dispatch(Failed{}), ErrNoVerifier
	}

	err := e.verifier.VerifyTwoFactor(ctx, next.Request())
	if err == nil {
		return e.Dispatch(Verified{}), nil
	}

	var rej Rejection
	if errors.As(err, &rej) {
		return e.Dispatch(Rejected{Message: rej.RejectionMessage()}), nil
	}

	msg := MessageFailed
	var uf userFacing
	if errors.As(err, &uf) {
		msg = uf.UserMessage()
	}
	return e.Dispatch(Failed{Message: msg}), err
}

func (e *Engine) notify(s State) {
	if e.onChange != nil {
		e.onChange(s)
	}
}
