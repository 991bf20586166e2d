package state

import (
	"fmt"
	"io"

	. "github.com/elijahnyp/room_observer/util"
)

const (
	SHUTTING_DOWN = "Shutting down"
	KEEP_RUNNING  = "Keep running"
)

// Decision is what a device does for a given occupant count.
func Decision(persons int) string {
	if persons == 0 {
		return SHUTTING_DOWN
	}
	return KEEP_RUNNING
}

// device is the shared body of the room-watching devices. The room is
// borrowed, not owned.
type device struct {
	label string
	room  *Room
	out   io.Writer
}

func (d *device) react() {
	persons := d.room.GetPerson()
	if _, err := fmt.Fprintf(d.out, "%s: %s. %d persons in the room.\n", d.label, Decision(persons), persons); err != nil {
		Logger.Error().Msgf("%s: error writing status: %v", d.label, err)
	}
}

func announce(out io.Writer, line string) {
	if _, err := fmt.Fprintln(out, line); err != nil {
		Logger.Error().Msgf("Error writing %q: %v", line, err)
	}
}

type Light struct {
	device
}

// NewLight returns a Light already registered with room.
func NewLight(room *Room, out io.Writer) *Light {
	announce(out, "Initializing Lights!")
	l := &Light{device{label: "Light", room: room, out: out}}
	room.AddObserver(l)
	return l
}

func (l *Light) Update() {
	l.react()
}

type SecurityCamera struct {
	device
}

// NewSecurityCamera returns a SecurityCamera already registered with room.
func NewSecurityCamera(room *Room, out io.Writer) *SecurityCamera {
	announce(out, "Initializing Security Camera!")
	c := &SecurityCamera{device{label: "Camera", room: room, out: out}}
	room.AddObserver(c)
	return c
}

func (c *SecurityCamera) Update() {
	c.react()
}
