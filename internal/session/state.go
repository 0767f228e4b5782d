package session

// State is the lifecycle position of a Session. Closed is terminal: a closed
// Session is never reopened, the caller builds a new one.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// canTransition lists the only legal moves. Any state may close.
func (s State) canTransition(to State) bool {
	switch to {
	case StateConnecting:
		return s == StateIdle
	case StateOpen:
		return s == StateConnecting
	case StateClosed:
		return s != StateClosed
	default:
		return false
	}
}
