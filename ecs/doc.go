// Package ecs provides ECS adapters for thicket's engine events.
//
// The primary adapter is [NewDonburiStore], which bridges scene graph events
// (nodes attached, detached or destroyed, quadrant moves, scene states
// registered or removed) into a [Donburi] world as typed events. Subscribe
// to [SceneEventType] in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(ecsWorld)
//	world.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
