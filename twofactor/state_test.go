package twofactor

import "testing"

func apply(s State, events ...Event) State {
	for _, ev := range events {
		s = Reduce(s, ev)
	}
	return s
}

func TestReduceTypingSanitizesAndClearsError(t *testing.T) {
	s := State{Phase: PhaseEditing, Input: "123", Error: "old"}
	s = Reduce(s, Input{Value: "12a3456789"})
	if s.Input != "123456" || s.Error != "" || s.Phase != PhaseEditing {
		t.Fatalf("unexpected state %+v", s)
	}

	s = Reduce(s, Input{Value: ""})
	if s.Phase != PhaseIdle {
		t.Fatalf("empty input should return to idle, got %s", s.Phase)
	}
}

func TestReduceBackupAutoHyphen(t *testing.T) {
	s := apply(State{}, ToggleMode{}, Input{Value: "1234"})
	if s.Mode != ModeBackup || s.Input != "1234-" {
		t.Fatalf("expected auto hyphen, got %+v", s)
	}
	if s.CanSubmit() {
		t.Fatal("4 digits must not enable submit")
	}
	s = Reduce(s, Input{Value: s.Input + "5678"})
	if s.Input != "1234-5678" || !s.CanSubmit() {
		t.Fatalf("expected submittable 1234-5678, got %+v", s)
	}
}

func TestReduceSubmitValidFormat(t *testing.T) {
	s := apply(State{}, Input{Value: "123456"}, Submit{})
	if s.Phase != PhaseValidating {
		t.Fatalf("expected validating, got %s", s.Phase)
	}
	s = Reduce(s, CheckFormat{})
	if s.Phase != PhaseSubmitting {
		t.Fatalf("expected submitting, got %s", s.Phase)
	}
	req := s.Request()
	if req.Code != "123456" || req.IsBackupCode {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestReduceSubmitInvalidFormat(t *testing.T) {
	s := apply(State{}, Input{Value: "12345"}, Submit{}, CheckFormat{})
	if s.Phase != PhaseEditing || s.Error != MessageTOTPFormat || s.Input != "12345" {
		t.Fatalf("unexpected state %+v", s)
	}

	s = apply(State{Mode: ModeBackup}, Input{Value: "1234567"}, Submit{}, CheckFormat{})
	if s.Phase != PhaseEditing || s.Error != MessageBackupFormat {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestReduceBackupRequestIsNormalized(t *testing.T) {
	s := apply(State{Mode: ModeBackup}, Input{Value: "1234-5678"}, Submit{}, CheckFormat{})
	req := s.Request()
	if req.Code != "12345678" || !req.IsBackupCode {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestReduceOutcomes(t *testing.T) {
	submitting := apply(State{}, Input{Value: "123456"}, Submit{}, CheckFormat{})

	ok := Reduce(submitting, Verified{})
	if ok.Phase != PhaseSuccess {
		t.Fatalf("expected success, got %s", ok.Phase)
	}
	if Reduce(ok, Input{Value: "1"}) != ok {
		t.Fatal("success must ignore typing")
	}

	rej := Reduce(submitting, Rejected{Message: "code expired"})
	if rej.Phase != PhaseEditing || rej.Error != "code expired" || rej.Input != "123456" {
		t.Fatalf("unexpected rejected state %+v", rej)
	}
	rej = Reduce(submitting, Rejected{})
	if rej.Error != MessageRejected {
		t.Fatalf("expected generic rejection message, got %q", rej.Error)
	}

	failed := Reduce(submitting, Failed{})
	if failed.Phase != PhaseEditing || failed.Error != MessageFailed {
		t.Fatalf("unexpected failed state %+v", failed)
	}
}

func TestReduceOutcomeOutsideSubmittingIgnored(t *testing.T) {
	s := State{Phase: PhaseEditing, Input: "123"}
	for _, ev := range []Event{Verified{}, Rejected{Message: "x"}, Failed{}, CheckFormat{}} {
		if got := Reduce(s, ev); got != s {
			t.Fatalf("%T changed state: %+v", ev, got)
		}
	}
}

func TestReduceSubmitWhileSubmittingIsNoop(t *testing.T) {
	s := apply(State{}, Input{Value: "123456"}, Submit{}, CheckFormat{})
	if got := Reduce(s, Submit{}); got != s {
		t.Fatalf("second submit changed state: %+v", got)
	}
	if s.CanSubmit() {
		t.Fatal("submit must be disabled while submitting")
	}
}

func TestReduceToggleResetsInputAndError(t *testing.T) {
	s := State{Mode: ModeTOTP, Phase: PhaseEditing, Input: "123", Error: "boom"}
	s = Reduce(s, ToggleMode{})
	if s.Mode != ModeBackup || s.Input != "" || s.Error != "" || s.Phase != PhaseIdle {
		t.Fatalf("unexpected state %+v", s)
	}
	s = Reduce(s, ToggleMode{})
	if s.Mode != ModeTOTP {
		t.Fatalf("expected toggle back to totp, got %s", s.Mode)
	}
}

func TestReduceToggleDuringSubmitKeepsSubmission(t *testing.T) {
	s := apply(State{}, Input{Value: "123456"}, Submit{}, CheckFormat{}, ToggleMode{})
	if s.Phase != PhaseSubmitting || s.Mode != ModeBackup || s.Input != "" {
		t.Fatalf("unexpected state %+v", s)
	}
	s = Reduce(s, Verified{})
	if s.Phase != PhaseSuccess {
		t.Fatalf("in-flight outcome should still land, got %s", s.Phase)
	}
}

func TestReduceSelectAndReset(t *testing.T) {
	s := State{Mode: ModeBackup, Phase: PhaseEditing, Input: "12"}
	if got := Reduce(s, SelectMode{Mode: ModeBackup}); got != s {
		t.Fatalf("selecting current mode changed state: %+v", got)
	}
	s = Reduce(s, Reset{})
	if s != (State{Mode: ModeBackup}) {
		t.Fatalf("unexpected reset state %+v", s)
	}
}
