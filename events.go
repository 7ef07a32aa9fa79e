package dropship

// EventHandler receives notifications from a Listener.
// Methods are called synchronously from the accept goroutine and should
// return quickly.
type EventHandler interface {
	// OnTransferComplete is called after a file has been stored.
	OnTransferComplete(t Transfer)

	// OnTransferError is called when an accepted connection did not yield a file.
	OnTransferError(remote string, err error)

	// OnStateChange is called on every listener state transition.
	OnStateChange(previous, current State)
}

// BaseEventHandler provides no-op implementations of all EventHandler methods.
// Embed it to implement only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnTransferComplete(t Transfer)            {}
func (BaseEventHandler) OnTransferError(remote string, err error) {}
func (BaseEventHandler) OnStateChange(previous, current State)    {}
