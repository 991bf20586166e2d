package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/elijahnyp/room_observer/state"
	. "github.com/elijahnyp/room_observer/util"
)

// RoomStatus is the JSON view of a room served by the monitor API and pushed over the websocket.
type RoomStatus struct {
	Room      string `json:"room"`
	Decision  string `json:"decision"`
	Persons   int    `json:"persons"`
	Observers int    `json:"observers"`
	Timestamp int64  `json:"timestamp"`
	Occupied  bool   `json:"occupied"`
}

func statusOf(room *state.Room) RoomStatus {
	persons := room.GetPerson()
	return RoomStatus{
		Room:      room.Name(),
		Persons:   persons,
		Occupied:  persons != 0,
		Decision:  state.Decision(persons),
		Observers: room.ObserverCount(),
		Timestamp: time.Now().Unix(),
	}
}

// RoomController serializes access to a Room for callers on other goroutines
// (MQTT callbacks, HTTP handlers). Everything that touches the room after
// startup goes through it.
type RoomController struct {
	mu      sync.Mutex
	room    *state.Room
	persons chan int
}

func NewRoomController(room *state.Room) *RoomController {
	return &RoomController{
		room:    room,
		persons: make(chan int, 10),
	}
}

func (c *RoomController) SetPerson(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room.SetPerson(n)
}

func (c *RoomController) Status() RoomStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return statusOf(c.room)
}

func parsePersons(payload []byte) (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(payload)))
}

// PersonsReceiver handles messages on the persons topic. The count is queued
// rather than applied here: observers publish and wait, which must not happen
// on the paho callback goroutine.
func (c *RoomController) PersonsReceiver(client MQTT.Client, message MQTT.Message) {
	Logger.Info().Msgf("Message Received on topic %s", message.Topic())
	n, err := parsePersons(message.Payload())
	if err != nil {
		Logger.Warn().Msgf("ignoring persons payload %q on %s: %v", string(message.Payload()), message.Topic(), err)
		return
	}
	select {
	case c.persons <- n:
		Logger.Debug().Msgf("persons message queued: queue len %v", len(c.persons))
	default:
		Logger.Warn().Msgf("persons queue full, dropping %d", n)
	}
}

// PersonsRoutine applies queued counts until ctx is done.
func (c *RoomController) PersonsRoutine(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-c.persons:
			c.SetPerson(n)
		}
	}
}

// APIRoom serves GET (current status) and POST ?persons=N (set the count, then status).
func (c *RoomController) APIRoom(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		n, err := parsePersons([]byte(r.FormValue("persons")))
		if err != nil {
			http.Error(w, "persons must be an integer", http.StatusBadRequest)
			return
		}
		c.SetPerson(n)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Bad Request Method", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c.Status()); err != nil {
		Logger.Error().Err(err).Msg("Error encoding room status")
	}
}
