package state

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	. "github.com/elijahnyp/room_observer/util"
)

var ErrObserverNotFound = errors.New("observer not found")

// Room is the subject: it tracks how many persons are inside and tells every
// registered observer, in registration order, each time the count is set.
// A Room is not safe for concurrent use.
type Room struct {
	name      string
	observers []Observer
	persons   int
}

var _ Subject = (*Room)(nil)

func NewRoom(name string, out io.Writer) *Room {
	if _, err := fmt.Fprintln(out, "Initiated an empty room!"); err != nil {
		Logger.Error().Msgf("Error writing room banner: %v", err)
	}
	return &Room{name: name}
}

func (r *Room) Name() string {
	return r.name
}

// AddObserver appends o. The same observer may be added more than once.
func (r *Room) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
	Logger.Trace().Msgf("%s: observer %T registered (%d total)", r.name, o, len(r.observers))
}

// RemoveObserver drops the first registration of o. Observers of a type that
// cannot be compared with == never match.
func (r *Room) RemoveObserver(o Observer) error {
	for i, registered := range r.observers {
		if t := reflect.TypeOf(registered); t != nil && !t.Comparable() {
			continue
		}
		if registered == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			Logger.Trace().Msgf("%s: observer %T removed (%d left)", r.name, o, len(r.observers))
			return nil
		}
	}
	return fmt.Errorf("remove %T from %s: %w", o, r.name, ErrObserverNotFound)
}

func (r *Room) NotifyObservers() {
	Logger.Debug().Msgf("%s: notifying %d observers of %d persons", r.name, len(r.observers), r.persons)
	for _, o := range r.observers {
		o.Update()
	}
}

func (r *Room) ObserverCount() int {
	return len(r.observers)
}

// SetPerson records n and runs a full notification round, even if n did not change.
func (r *Room) SetPerson(n int) {
	r.persons = n
	r.NotifyObservers()
}

func (r *Room) GetPerson() int {
	return r.persons
}
