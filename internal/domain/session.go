package domain

// Session identifies the named sub-window of the day a check-in falls into.
// The empty value means the timestamp is outside every defined session
// (noon break, a gap window, or outside school hours entirely).
type Session string

const (
	SessionMorning   Session = "M"
	SessionAfternoon Session = "A"
	SessionEvening   Session = "E"
	SessionNone      Session = ""
)

func (s Session) String() string {
	return string(s)
}

func (s Session) IsNone() bool {
	return s == SessionNone
}

// Sessions lists the non-None sessions in day order.
func Sessions() []Session {
	return []Session{SessionMorning, SessionAfternoon, SessionEvening}
}
