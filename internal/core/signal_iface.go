package core

// LeaveControl is the UI control that asks to leave the room.
type LeaveControl interface {
	OnActivate(fn func()) *Subscription
}
