package session

// State tracks where a session is in its lifecycle. Transitions only move
// forward; Closed is terminal and a session is never reused.
type State int32

const (
	Uninitialized State = iota
	DeviceOpen
	Running
	Stopping
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case DeviceOpen:
		return "DeviceOpen"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}
