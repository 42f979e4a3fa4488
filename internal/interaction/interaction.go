// Package interaction turns pointer input on the factory floor into camera
// moves, structure selection and placement intents.
//
//	idle --down on structure--> potentialDrag --moved > threshold--> dragging --up--> idle (move intent)
//	                                  \--up without moving--> idle (click)
//	idle --down off the floor--> panning --up--> idle
//	idle --BeginPlacement--> placing --up--> idle (place intent)
//
// A press on empty floor or on a wall does nothing, so aiming at the
// factory never drags the camera.
package interaction

import (
	"fmt"
	"math"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placement"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render/scene"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

// DragThreshold is how far, in screen pixels, the pointer must travel
// before a press on a structure becomes a drag.
const DragThreshold = 5.0

// State is the pointer state.
type State int

const (
	StateIdle State = iota
	StatePotentialDrag
	StateDragging
	StatePanning
	StatePlacing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePotentialDrag:
		return "potential_drag"
	case StateDragging:
		return "dragging"
	case StatePanning:
		return "panning"
	case StatePlacing:
		return "placing"
	}
	return "unknown"
}

// Intents is the part of the session the controller drives.
type Intents interface {
	MoveStructure(id string, x, y int) (simulation.Result, error)
	Place(kind gamestate.Kind, typ string, x, y int) (simulation.Result, error)
}

// Scene is the part of the scene the controller reads and previews on.
type Scene interface {
	Sprites() []*scene.Sprite
	Iso() projection.Iso
	SetPreview(*scene.Preview)
}

// EventKind classifies what a pointer release did.
type EventKind int

const (
	EventNone     EventKind = iota
	EventClick              // a structure was clicked; open its detail view
	EventMoved              // a move intent was accepted
	EventPlaced             // a place intent was accepted
	EventRejected           // the intent came back rejected
)

// Event is the outcome of a pointer release.
type Event struct {
	Kind        EventKind
	StructureID string
	Result      simulation.Result
}

// Controller is the pointer state machine.
type Controller struct {
	Camera    *Camera
	Threshold float64

	scene   Scene
	rules   *simulation.Rules
	intents Intents

	state        State
	downX, downY float64
	lastX, lastY float64

	target     *scene.Sprite
	grabX      int // pointer cell minus structure origin
	grabY      int
	placeKind  gamestate.Kind
	placeType  string
	origin     projection.Cell
	verdict    placement.Verdict
	hasPreview bool
}

// NewController creates an idle controller.
func NewController(cam *Camera, sc Scene, rules *simulation.Rules, intents Intents) *Controller {
	if cam == nil {
		cam = NewCamera(0)
	}
	return &Controller{
		Camera:    cam,
		Threshold: DragThreshold,
		scene:     sc,
		rules:     rules,
		intents:   intents,
	}
}

// State returns the current pointer state.
func (c *Controller) State() State { return c.state }

// Verdict returns the placement verdict of the current preview.
func (c *Controller) Verdict() placement.Verdict { return c.verdict }

// Target returns the structure being pressed or dragged.
func (c *Controller) Target() *scene.Sprite { return c.target }

// BeginPlacement starts dragging a new structure from the palette.
func (c *Controller) BeginPlacement(kind gamestate.Kind, typ string) {
	c.reset()
	c.state = StatePlacing
	c.placeKind, c.placeType = kind, typ
}

// Cancel drops any drag or placement in progress.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) reset() {
	if c.hasPreview {
		c.scene.SetPreview(nil)
	}
	c.state = StateIdle
	c.target = nil
	c.grabX, c.grabY = 0, 0
	c.placeKind, c.placeType = "", ""
	c.verdict = placement.Verdict{}
	c.hasPreview = false
}

// Hit returns the structure under a screen position.
func (c *Controller) Hit(sx, sy float64) (*scene.Sprite, bool) {
	wx, wy := c.Camera.ScreenToWorld(sx, sy)
	return HitTest(c.scene.Sprites(), c.scene.Iso(), wx, wy)
}

func (c *Controller) cellAt(sx, sy float64) projection.Cell {
	wx, wy := c.Camera.ScreenToWorld(sx, sy)
	return c.scene.Iso().Cell(wx, wy)
}

// onFactory reports whether a cell is floor or carries a wall, i.e. lies on
// or directly beside the floor.
func onFactory(mask placement.FloorMask, cell projection.Cell) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if mask.Contains(cell.X+dx, cell.Y+dy) {
				return true
			}
		}
	}
	return false
}

// PointerDown handles a primary button press at a screen position.
func (c *Controller) PointerDown(state *gamestate.WorldState, sx, sy float64) {
	c.downX, c.downY = sx, sy
	c.lastX, c.lastY = sx, sy
	switch c.state {
	case StatePlacing:
		c.updatePreview(state, sx, sy)
		return
	case StateIdle:
	default:
		return
	}

	if sp, ok := c.Hit(sx, sy); ok {
		cell := c.cellAt(sx, sy)
		c.state = StatePotentialDrag
		c.target = sp
		c.grabX, c.grabY = cell.X-sp.Footprint.X, cell.Y-sp.Footprint.Y
		return
	}
	if onFactory(placement.NewFloorMask(state.FloorSpace), c.cellAt(sx, sy)) {
		return
	}
	c.state = StatePanning
}

// PointerMove handles pointer motion with the button held (or, while
// placing, hovering).
func (c *Controller) PointerMove(state *gamestate.WorldState, sx, sy float64) {
	switch c.state {
	case StatePotentialDrag:
		if math.Hypot(sx-c.downX, sy-c.downY) > c.Threshold {
			c.state = StateDragging
			c.updatePreview(state, sx, sy)
		}
	case StateDragging, StatePlacing:
		c.updatePreview(state, sx, sy)
	case StatePanning:
		c.Camera.Pan(sx-c.lastX, sy-c.lastY)
	}
	c.lastX, c.lastY = sx, sy
}

func (c *Controller) updatePreview(state *gamestate.WorldState, sx, sy float64) {
	cell := c.cellAt(sx, sy)
	c.origin = projection.Cell{X: cell.X - c.grabX, Y: cell.Y - c.grabY}

	kind, typ, moving := c.placeKind, c.placeType, ""
	view := state
	if c.target != nil {
		kind, typ, moving = c.target.Kind, c.target.Type, c.target.ID
		view = placement.Without(state, moving)
	}
	sizeX, sizeY, ok := c.rules.StructureSize(kind, typ)
	if !ok {
		c.verdict = placement.Verdict{Reason: placement.ReasonBadSize, Detail: fmt.Sprintf("unknown %s type %q", kind, typ)}
	} else {
		v, err := placement.CanPlaceAt(view, c.origin.X, c.origin.Y, sizeX, sizeY, c.rules)
		if err != nil {
			v = placement.Verdict{Reason: placement.ReasonBadSize, Detail: err.Error()}
		}
		c.verdict = v
	}
	c.scene.SetPreview(&scene.Preview{
		Kind:     kind,
		Type:     typ,
		X:        c.origin.X,
		Y:        c.origin.Y,
		Valid:    c.verdict.Valid,
		MovingID: moving,
	})
	c.hasPreview = true
}

// PointerUp handles the button release and emits the resulting intent.
// Intent errors are data errors and are returned as is; rejections come
// back as EventRejected.
func (c *Controller) PointerUp(state *gamestate.WorldState, sx, sy float64) (Event, error) {
	defer c.reset()

	switch c.state {
	case StatePotentialDrag:
		return Event{Kind: EventClick, StructureID: c.target.ID}, nil

	case StateDragging:
		c.updatePreview(state, sx, sy)
		sp := c.target
		if c.origin.X == sp.Footprint.X && c.origin.Y == sp.Footprint.Y {
			return Event{StructureID: sp.ID}, nil
		}
		res, err := c.intents.MoveStructure(sp.ID, c.origin.X, c.origin.Y)
		if err != nil {
			return Event{}, err
		}
		return outcome(EventMoved, sp.ID, res), nil

	case StatePlacing:
		c.updatePreview(state, sx, sy)
		res, err := c.intents.Place(c.placeKind, c.placeType, c.origin.X, c.origin.Y)
		if err != nil {
			return Event{}, err
		}
		return outcome(EventPlaced, "", res), nil
	}
	return Event{}, nil
}

func outcome(kind EventKind, id string, res simulation.Result) Event {
	if !res.Accepted {
		kind = EventRejected
	}
	return Event{Kind: kind, StructureID: id, Result: res}
}
