package main

import (
	"strconv"

	"github.com/elijahnyp/room_observer/state"
	. "github.com/elijahnyp/room_observer/util"
)

// OccupancyPublisher mirrors every notification round onto MQTT: the count on
// the occupancy topic and "true"/"false" on the occupied topic.
type OccupancyPublisher struct {
	room *state.Room
}

// NewOccupancyPublisher returns a publisher already registered with room.
func NewOccupancyPublisher(room *state.Room) *OccupancyPublisher {
	p := &OccupancyPublisher{room: room}
	room.AddObserver(p)
	return p
}

func (p *OccupancyPublisher) Update() {
	persons := p.room.GetPerson()
	if err := Publish(OccupancyTopic(), strconv.Itoa(persons)); err != nil {
		Logger.Warn().Msgf("Error publishing occupancy: %v", err)
	}
	if err := Publish(OccupiedTopic(), strconv.FormatBool(persons != 0)); err != nil {
		Logger.Warn().Msgf("Error publishing occupied state: %v", err)
	}
}
