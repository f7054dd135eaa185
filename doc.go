// Package thicket is a real-time 2D scene graph for [Ebitengine].
//
// A [World] holds an ordered set of [SceneState] layers. Each state owns a
// forest of [Node] values, a [RenderSystem] indexing the drawable ones, and
// a [Camera]. Every tick the world loops its updating states in ascending
// order; every frame it renders its rendering states in the same order
// through a [RenderDevice].
//
// # Quick start
//
//	world := thicket.NewWorld()
//	state := thicket.NewQuadSceneState(
//		thicket.Rect{Width: 4096, Height: 4096}, 5, // world area, quadtree depth
//		thicket.Rect{Width: 640, Height: 480},      // viewport
//		true, true)
//	box := thicket.NewRect("box", thicket.Rect{Width: 80, Height: 40},
//		thicket.Color{R: 0.3, G: 0.7, B: 1, A: 1})
//	box.SetPosition(100, 50)
//	_ = state.AddNode(box)
//	_ = world.RegisterState(0, state)
//	_ = thicket.Run(world, thicket.RunConfig{Title: "Demo", Width: 640, Height: 480})
//
// For headless runs use [FrameLoop] with any [RenderDevice]; its
// multi-threaded profile replays frames on a separate goroutine through a
// [QueuedDevice].
//
// # Nodes
//
// Nodes carry a local [Transform] (position, rotation in radians, scale,
// origin), children they exclusively own, optional setup and loop callbacks,
// named [Animator] values and signal connections. Drawable nodes
// ([NewSprite], [NewRect]) add a visibility flag, a render layer, texture and
// shader handles, and local bounds.
//
// When a node or any ancestor is transformed, the next loop recomputes its
// global matrix and, for drawables, its global bounds, then reports the
// change to the render system. The quadtree render system keeps each
// drawable in the smallest quadrant containing it, so rendering only visits
// quadrants that intersect the camera view.
//
// # Integration
//
// Engine events (nodes attached, detached or destroyed, quadrant moves,
// states registered or removed) are forwarded to an optional [EntityStore];
// the ecs subpackage bridges them into a [Donburi] world.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package thicket
