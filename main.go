package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/elijahnyp/room_observer/state"
	. "github.com/elijahnyp/room_observer/util"
)

// services holds what wire set up and start brings online.
type services struct {
	mqtt    bool
	monitor *MonitorServer
}

// wire registers every observer, subscription and route on room. Nothing is
// started: once start runs, the room is only reached through controller.
func wire(ctx context.Context, model *Model, controller *RoomController, room *state.Room) *services {
	s := &services{}
	if model.MQTT.Enabled {
		NewOccupancyPublisher(room)
		RegisterMQTTSubscription(PersonsTopic(), controller.PersonsReceiver)
		if model.MQTT.HA_advertise {
			RegisterMQTTConnectHook("haadvertise", func(client MQTT.Client) {
				if err := AdvertiseHA(room.Name(), client); err != nil {
					Logger.Error().Msgf("Error advertising to Home Assistant: %v", err)
				}
			})
		}
		s.mqtt = true
	}
	if model.Monitor.Enabled {
		hub := NewHub()
		go hub.Run(ctx)
		NewRoomBroadcaster(hub, room)

		s.monitor = NewMonitorServer()
		s.monitor.AddHandler("/api/room", controller.APIRoom)
		s.monitor.AddRawHandler("/ws", hub.ServeWebSocket(ctx))
	}
	return s
}

func (s *services) serving() bool {
	return s.mqtt || s.monitor != nil
}

// start brings the monitor server and the broker connection up.
func (s *services) start(ctx context.Context, controller *RoomController) error {
	if s.monitor != nil {
		if err := s.monitor.Start(); err != nil {
			Logger.Error().Msgf("Error starting monitor server: %v", err)
		}
		RegisterNewConfigListener(s.monitor.Restart)
	}
	if s.mqtt {
		go controller.PersonsRoutine(ctx)
		RegisterNewConfigListener(func() {
			if err := MqttInit(); err != nil {
				Logger.Error().Msgf("Error reconnecting to broker: %v", err)
			}
		})
		return MqttInit()
	}
	return nil
}

func (s *services) stop() {
	if s.monitor != nil {
		s.monitor.Shutdown()
	}
	if s.mqtt {
		MqttDisconnect()
	}
}

func main() {
	LogInit("info")
	SetupConfig()
	RegisterNewConfigListener(func() { LogInit(Config.GetString("log_level")) })
	OnNewConfig()

	model, err := BuildModel()
	if err != nil {
		Logger.Fatal().Msgf("Error building model: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	room := state.NewRoom(model.Room.Name, os.Stdout)
	state.NewLight(room, os.Stdout)
	state.NewSecurityCamera(room, os.Stdout)
	controller := NewRoomController(room)

	svc := wire(ctx, model, controller, room)
	if err := svc.start(ctx, controller); err != nil {
		Logger.Fatal().Msgf("Error connecting to broker: %v", err)
	}

	for _, n := range model.Room.Sequence {
		controller.SetPerson(n)
	}

	if !svc.serving() {
		return
	}
	Logger.Info().Msg("ready")
	<-ctx.Done()
	Logger.Info().Msg("shutting down")
	svc.stop()
}
