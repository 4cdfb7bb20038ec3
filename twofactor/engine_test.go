package twofactor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type rejectErr struct{ msg string }

func (e *rejectErr) Error() string            { return "rejected: " + e.msg }
func (e *rejectErr) RejectionMessage() string { return e.msg }

type offlineErr struct{}

func (offlineErr) Error() string       { return "dial tcp: connection refused" }
func (offlineErr) UserMessage() string { return "offline" }

type recordingVerifier struct {
	mu    sync.Mutex
	calls []Request
	err   error
}

func (v *recordingVerifier) VerifyTwoFactor(_ context.Context, req Request) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, req)
	return v.err
}

func TestEngineSubmitSuccess(t *testing.T) {
	v := &recordingVerifier{}
	e := NewEngine(v)
	e.Type("123456")

	s, err := e.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if s.Phase != PhaseSuccess {
		t.Fatalf("expected success, got %s", s.Phase)
	}
	if len(v.calls) != 1 || v.calls[0] != (Request{Code: "123456"}) {
		t.Fatalf("unexpected verifier calls %+v", v.calls)
	}
}

func TestEngineBackupCodeSentNormalized(t *testing.T) {
	v := &recordingVerifier{}
	e := NewEngine(v, WithMode(ModeBackup))
	e.Type("12345678")
	if got := e.State().Input; got != "1234-5678" {
		t.Fatalf("expected display form, got %q", got)
	}
	if _, err := e.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if v.calls[0] != (Request{Code: "12345678", IsBackupCode: true}) {
		t.Fatalf("unexpected request %+v", v.calls[0])
	}
}

func TestEngineFormatErrorNeverReachesVerifier(t *testing.T) {
	v := &recordingVerifier{}
	e := NewEngine(v)
	e.Type("12345")

	s, err := e.Submit(context.Background())
	if err != nil {
		t.Fatalf("format errors must not propagate, got %v", err)
	}
	if s.Error != MessageTOTPFormat || s.Phase != PhaseEditing {
		t.Fatalf("unexpected state %+v", s)
	}
	if len(v.calls) != 0 {
		t.Fatalf("verifier called %d times", len(v.calls))
	}
}

func TestEngineRejectionIsRecovered(t *testing.T) {
	e := NewEngine(&recordingVerifier{err: &rejectErr{msg: "code already used"}})
	e.Type("123456")

	s, err := e.Submit(context.Background())
	if err != nil {
		t.Fatalf("rejections must not propagate, got %v", err)
	}
	if s.Phase != PhaseEditing || s.Error != "code already used" || s.Input != "123456" {
		t.Fatalf("unexpected state %+v", s)
	}

	e = NewEngine(&recordingVerifier{err: &rejectErr{}})
	e.Type("123456")
	s, _ = e.Submit(context.Background())
	if s.Error != MessageRejected {
		t.Fatalf("expected generic message, got %q", s.Error)
	}
}

func TestEngineNetworkErrorPropagates(t *testing.T) {
	e := NewEngine(&recordingVerifier{err: offlineErr{}})
	e.Type("123456")

	s, err := e.Submit(context.Background())
	if !errors.As(err, new(offlineErr)) {
		t.Fatalf("expected offline error, got %v", err)
	}
	if s.Phase != PhaseEditing || s.Error != "offline" {
		t.Fatalf("unexpected state %+v", s)
	}

	e = NewEngine(&recordingVerifier{err: errors.New("boom")})
	e.Type("123456")
	s, err = e.Submit(context.Background())
	if err == nil || s.Error != MessageFailed {
		t.Fatalf("expected generic failure, got state %+v err %v", s, err)
	}
}

func TestEngineNilVerifier(t *testing.T) {
	e := NewEngine(nil)
	e.Type("123456")
	s, err := e.Submit(context.Background())
	if !errors.Is(err, ErrNoVerifier) {
		t.Fatalf("expected ErrNoVerifier, got %v", err)
	}
	if s.Phase != PhaseEditing {
		t.Fatalf("unexpected phase %s", s.Phase)
	}
}

func TestEngineSubmitWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	e := NewEngine(VerifierFunc(func(ctx context.Context, _ Request) error {
		calls.Add(1)
		close(entered)
		<-release
		return nil
	}))
	e.Type("123456")

	done := make(chan State, 1)
	go func() {
		s, _ := e.Submit(context.Background())
		done <- s
	}()
	<-entered

	s, err := e.Submit(context.Background())
	if err != nil || s.Phase != PhaseSubmitting {
		t.Fatalf("second submit: state %+v err %v", s, err)
	}
	if s := e.Toggle(); s.Phase != PhaseSubmitting || s.Input != "" {
		t.Fatalf("toggle mid-submit: %+v", s)
	}

	close(release)
	if s := <-done; s.Phase != PhaseSuccess {
		t.Fatalf("expected success, got %s", s.Phase)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one verifier call, got %d", calls.Load())
	}
}

func TestEngineOnChangeSeesEveryPhase(t *testing.T) {
	var phases []Phase
	e := NewEngine(&recordingVerifier{}, OnChange(func(s State) {
		phases = append(phases, s.Phase)
	}))
	e.Type("123456")
	if _, err := e.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	want := []Phase{PhaseEditing, PhaseValidating, PhaseSubmitting, PhaseSuccess}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
	}
}
