package twofactor

// Phase is the position of the verification step in its lifecycle.
type Phase uint8

const (
	// PhaseIdle means nothing has been typed in the current mode.
	PhaseIdle Phase = iota
	// PhaseEditing means the user is typing, or is back to typing after a
	// rejected or failed attempt.
	PhaseEditing
	// PhaseValidating means a submission was requested and the local format
	// check has not run yet.
	PhaseValidating
	// PhaseSubmitting means a verification request is in flight.
	PhaseSubmitting
	// PhaseSuccess is terminal until Reset.
	PhaseSuccess
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEditing:
		return "editing"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// State is a snapshot of the verification step. The zero value is an idle TOTP
// step.
type State struct {
	Mode  Mode
	Phase Phase
	// Input is the sanitized value as displayed.
	Input string
	// Error is the message to show, empty when there is none.
	Error string
}

// Busy reports whether a submission is being validated or is in flight.
func (s State) Busy() bool {
	return s.Phase == PhaseValidating || s.Phase == PhaseSubmitting
}

// CanSubmit reports whether a submit control should be enabled.
func (s State) CanSubmit() bool {
	if s.Busy() || s.Phase == PhaseSuccess {
		return false
	}
	return CanSubmit(s.Mode, s.Input)
}

// Request builds the wire request for the current input.
func (s State) Request() Request {
	return Request{
		Code:         Normalize(s.Mode, s.Input),
		IsBackupCode: s.Mode == ModeBackup,
	}
}

// Event is an input to [Reduce].
type Event interface {
	event()
}

type (
	// Input replaces the typed value. It is sanitized for the current mode.
	Input struct{ Value string }

	// ToggleMode switches between TOTP and backup entry.
	ToggleMode struct{}

	// SelectMode switches to a specific mode. Selecting the current mode is a no-op.
	SelectMode struct{ Mode Mode }

	// Submit requests verification of the current input.
	Submit struct{}

	// CheckFormat runs the local format check of a requested submission.
	CheckFormat struct{}

	// Verified reports that the server accepted the code.
	Verified struct{}

	// Rejected reports that the server answered with an error. An empty message
	// is replaced by [MessageRejected].
	Rejected struct{ Message string }

	// Failed reports that no verdict was obtained (for example a network failure).
	Failed struct{ Message string }

	// Reset returns to an idle step in the current mode.
	Reset struct{}
)

func (Input) event() {}
func (ToggleMode) event() {}
func (SelectMode) event() {}
func (Submit) event() {}
func (CheckFormat) event() {}
func (Verified) event() {}
func (Rejected) event() {}
func (Failed) event() {}
func (Reset) event() {}

// Reduce returns the state that follows s after ev. It has no side effects.
// Events that do not apply to the current phase leave the state unchanged.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case Input:
		if s.Busy() || s.Phase == PhaseSuccess {
			return s
		}
		s.Input = Sanitize(s.Mode, ev.Value)
		s.Error = ""
		if s.Input == "" {
			s.Phase = PhaseIdle
		} else {
			s.Phase = PhaseEditing
		}
		return s

	case ToggleMode:
		next := ModeBackup
		if s.Mode == ModeBackup {
			next = ModeTOTP
		}
		return switchMode(s, next)

	case SelectMode:
		if ev.Mode == s.Mode {
			return s
		}
		return switchMode(s, ev.Mode)

	case Submit:
		if s.Busy() || s.Phase == PhaseSuccess {
			return s
		}
		s.Phase = PhaseValidating
		s.Error = ""
		return s

	case CheckFormat:
		if s.Phase != PhaseValidating {
			return s
		}
		if err := Validate(s.Mode, s.Input); err != nil {
			s.Phase = PhaseEditing
			s.Error = err.Error()
			return s
		}
		s.Phase = PhaseSubmitting
		return s

	case Verified:
		if s.Phase != PhaseSubmitting {
			return s
		}
		s.Phase = PhaseSuccess
		s.Error = ""
		return s

	case Rejected:
		if s.Phase != PhaseSubmitting {
			return s
		}
		s.Phase = PhaseEditing
		s.Error = ev.Message
		if s.Error == "" {
			s.Error = MessageRejected
		}
		return s

	case Failed:
		if s.Phase != PhaseSubmitting {
			return s
		}
		s.Phase = PhaseEditing
		s.Error = ev.Message
		if s.Error == "" {
			s.Error = MessageFailed
		}
		return s

	case Reset:
		return State{Mode: s.Mode}
	}
	return s
}

// switchMode clears input and error. An in-flight submission keeps its phase so
// its outcome still lands.
func switchMode(s State, m Mode) State {
	s.Mode = m
	s.Input = ""
	s.Error = ""
	if s.Phase != PhaseSubmitting && s.Phase != PhaseSuccess {
		s.Phase = PhaseIdle
	}
	return s
}
