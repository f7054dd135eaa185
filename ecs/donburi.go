package ecs

import (
	"github.com/phanxgames/thicket"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SceneEventType is the Donburi event type for thicket engine events.
var SceneEventType = events.NewEventType[thicket.Event]()

type donburiStore struct {
	world donburi.World
	types map[thicket.EventType]bool
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are published to SceneEventType and can be consumed with
// Subscribe and ProcessEvents. When types is non-empty only those event
// types are forwarded.
func NewDonburiStore(world donburi.World, types ...thicket.EventType) thicket.EntityStore {
	s := &donburiStore{world: world}
	if len(types) > 0 {
		s.types = make(map[thicket.EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	return s
}

func (s *donburiStore) EmitEvent(event thicket.Event) {
	if s.types != nil && !s.types[event.Type] {
		return
	}
	SceneEventType.Publish(s.world, event)
}
