// Package state holds the room model and the devices that watch it.
package state

// Observer is told that the subject it registered with has changed.
// It reads whatever it needs back from that subject.
type Observer interface {
	Update()
}

type Subject interface {
	AddObserver(Observer)
	RemoveObserver(Observer) error
	NotifyObservers()
}
