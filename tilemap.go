package thicket

import (
	"image"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// TileCoord addresses a cell of a tilemap grid.
type TileCoord struct {
	Col, Row int
}

// tilemap is the grid of a NodeTypeTilemap node. Each tile is a drawable
// node parented to the tilemap but kept out of its children: tiles have no
// transform or callbacks of their own and share the tilemap's appearance.
type tilemap struct {
	owner      *Node
	settings   *drawSettings
	tileWidth  float64
	tileHeight float64
	cells      map[TileCoord]*Node
	order      []*Node
}

// NewTilemap creates a tilemap node drawing tileWidth x tileHeight cells
// from regions of texture. Cell (col, row) covers the local rectangle at
// (col*tileWidth, row*tileHeight). The tilemap's visibility, layer, texture,
// shader, blend and color apply to every tile.
func NewTilemap(name string, texture TextureID, tileWidth, tileHeight float64) *Node {
	n := newNode(name, NodeTypeTilemap)
	ds := newDrawSettings()
	ds.texture = texture
	n.tilemap = &tilemap{
		owner:      n,
		settings:   ds,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		cells:      make(map[TileCoord]*Node),
	}
	return n
}

func (n *Node) checkTilemap() error {
	if n.tilemap == nil {
		return nodeErr(ErrNotTilemap, n)
	}
	if n.disposed {
		return nodeErr(ErrDisposed, n)
	}
	return nil
}

// SetTile places a tile drawing region of the tilemap's texture at
// (col, row), or changes the region of the tile already there. While the
// tilemap is attached, a new tile joins the render system immediately.
func (n *Node) SetTile(col, row int, region image.Rectangle) error {
	if err := n.checkTilemap(); err != nil {
		return err
	}
	n.tilemap.set(TileCoord{Col: col, Row: row}, region)
	return nil
}

// SetTileData replaces every tile from a row-major grid of tile ids, cols
// cells wide. Id 0 leaves a cell empty; any other id draws regions[id].
// Fails without side effects when an id has no region.
func (n *Node) SetTileData(cols int, data []uint32, regions []image.Rectangle) error {
	if err := n.checkTilemap(); err != nil {
		return err
	}
	if cols <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "tilemap %q: %d columns", n.label(), cols)
	}
	for i, id := range data {
		if id != 0 && int(id) >= len(regions) {
			return errors.Wrapf(ErrUnknownTile, "tilemap %q: id %d at cell %d", n.label(), id, i)
		}
	}
	n.tilemap.reset()
	for i, id := range data {
		if id != 0 {
			n.tilemap.set(TileCoord{Col: i % cols, Row: i / cols}, regions[id])
		}
	}
	return nil
}

// RemoveTile deletes the tile at (col, row) and reports whether there was one.
func (n *Node) RemoveTile(col, row int) bool {
	if n.tilemap == nil {
		return false
	}
	return n.tilemap.remove(TileCoord{Col: col, Row: row})
}

// Tile returns the texture region of the tile at (col, row).
func (n *Node) Tile(col, row int) (image.Rectangle, bool) {
	if n.tilemap == nil {
		return image.Rectangle{}, false
	}
	t, ok := n.tilemap.cells[TileCoord{Col: col, Row: row}]
	if !ok {
		return image.Rectangle{}, false
	}
	return t.drawable.textureRect, true
}

// NumTiles returns the number of tiles. Zero for other node types.
func (n *Node) NumTiles() int {
	if n.tilemap == nil {
		return 0
	}
	return len(n.tilemap.order)
}

// TileSize returns the cell size in local units.
func (n *Node) TileSize() (w, h float64) {
	if n.tilemap == nil {
		return 0, 0
	}
	return n.tilemap.tileWidth, n.tilemap.tileHeight
}

// CellAt maps a world-space point to the tilemap cell under it and reports
// whether that cell holds a tile.
func (n *Node) CellAt(x, y float64) (TileCoord, bool) {
	m := n.tilemap
	if m == nil || m.tileWidth <= 0 || m.tileHeight <= 0 {
		return TileCoord{}, false
	}
	p := n.WorldToLocal(Vec2{x, y})
	c := TileCoord{
		Col: int(math.Floor(p.X / m.tileWidth)),
		Row: int(math.Floor(p.Y / m.tileHeight)),
	}
	_, ok := m.cells[c]
	return c, ok
}

func (m *tilemap) set(c TileCoord, region image.Rectangle) {
	if t, ok := m.cells[c]; ok {
		t.drawable.textureRect = region.Canon()
		return
	}
	bounds := Rect{
		X:      float64(c.Col) * m.tileWidth,
		Y:      float64(c.Row) * m.tileHeight,
		Width:  m.tileWidth,
		Height: m.tileHeight,
	}
	t := newNode("", NodeTypeTile)
	t.drawable = newDrawable(bounds, m.settings)
	t.drawable.textureRect = region.Canon()
	t.parent = m.owner
	m.cells[c] = t
	m.order = append(m.order, t)
	if s := m.owner.state; s != nil {
		t.state = s
		s.register(t)
	}
}

func (m *tilemap) remove(c TileCoord) bool {
	t, ok := m.cells[c]
	if !ok {
		return false
	}
	delete(m.cells, c)
	m.order = slices.DeleteFunc(m.order, func(x *Node) bool { return x == t })
	m.release(t)
	return true
}

func (m *tilemap) release(t *Node) {
	if s := t.state; s != nil {
		s.unregister(t)
	}
	t.state = nil
	t.parent = nil
	t.disposed = true
}

// reset releases every tile.
func (m *tilemap) reset() {
	for _, t := range m.order {
		m.release(t)
	}
	m.order = nil
	clear(m.cells)
}

// attach registers every tile with s.
func (m *tilemap) attach(s *SceneState) {
	for _, t := range m.order {
		t.state = s
		s.register(t)
	}
}

// detach unregisters every tile from s.
func (m *tilemap) detach(s *SceneState) {
	for _, t := range m.order {
		s.unregister(t)
		t.state = nil
	}
}

// refresh recomputes the tiles' global bounds under the tilemap's new
// global matrix and reports each one to its render system.
func (m *tilemap) refresh(world mgl64.Mat3) {
	for _, t := range m.order {
		t.world = world
		d := t.drawable
		d.global = TransformRect(world, d.local)
		if d.system != nil {
			d.system.HandleChange(t)
		}
	}
}

// fixTiles rebuckets every registered tile after a shared setting changed.
func (m *tilemap) fixTiles() {
	for _, t := range m.order {
		if d := t.drawable; d.system != nil {
			d.system.HandleChange(t)
		}
	}
}
