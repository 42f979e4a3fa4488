package interaction

import (
	"math"
	"testing"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placement"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render/headless"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render/scene"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

type fixture struct {
	session *simulation.Session
	scene   *scene.Scene
	ctrl    *Controller
	iso     projection.Iso
}

// newFixture places a furnace at (2,2) and a wire drawer at (10,10) with
// the camera at the world origin, so screen and world coordinates agree.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	rules := simulation.DefaultRules()
	session := simulation.NewSession(rules, 1)
	session.IDs = &simulation.SequentialIDs{Prefix: "s"}
	if res, err := session.PlaceMachine("furnace", 2, 2); err != nil || !res.Accepted {
		t.Fatalf("PlaceMachine: %+v %v", res, err)
	}
	if res, err := session.PlaceMachine("wire_drawer", 10, 10); err != nil || !res.Accepted {
		t.Fatalf("PlaceMachine: %+v %v", res, err)
	}
	sc := scene.New(headless.NewRenderer(), nil, rules, scene.DefaultOptions())
	if err := sc.Sync(session.State); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		session: session,
		scene:   sc,
		ctrl:    NewController(NewCamera(0.25), sc, rules, session),
		iso:     sc.Iso(),
	}
}

// at returns the screen position of a cell center.
func (f *fixture) at(x, y int) (float64, float64) {
	p := f.iso.GridToScreen(float64(x), float64(y))
	return p.X, p.Y
}

func TestCameraRoundTrip(t *testing.T) {
	c := NewCamera(0.25)
	c.X, c.Y = 100, -40
	c.SetZoom(0.5)
	wx, wy := c.ScreenToWorld(30, 70)
	sx, sy := c.WorldToScreen(wx, wy)
	if math.Abs(sx-30) > 1e-9 || math.Abs(sy-70) > 1e-9 {
		t.Errorf("Expected (30,70), got (%v,%v)", sx, sy)
	}
	view := c.View()
	vx, vy := view.Apply(wx, wy)
	if math.Abs(vx-30) > 1e-9 || math.Abs(vy-70) > 1e-9 {
		t.Errorf("Expected view transform to match WorldToScreen, got (%v,%v)", vx, vy)
	}
}

func TestCameraZoomAboutAnchor(t *testing.T) {
	c := NewCamera(0.25)
	wx, wy := c.ScreenToWorld(200, 150)
	c.ZoomAt(0.5, 200, 150)
	if c.Zoom != 0.5 {
		t.Fatalf("Expected zoom 0.5, got %v", c.Zoom)
	}
	ax, ay := c.ScreenToWorld(200, 150)
	if math.Abs(ax-wx) > 1e-9 || math.Abs(ay-wy) > 1e-9 {
		t.Errorf("Expected anchor to stay on (%v,%v), got (%v,%v)", wx, wy, ax, ay)
	}

	c.ZoomAt(0.01, 0, 0)
	if c.Zoom != 0.25 {
		t.Errorf("Expected zoom clamped to 0.25, got %v", c.Zoom)
	}
	c.ZoomAt(100, 0, 0)
	if c.Zoom != 1 {
		t.Errorf("Expected zoom clamped to 1, got %v", c.Zoom)
	}
}

func TestCameraPanFollowsPointer(t *testing.T) {
	c := NewCamera(0.25)
	c.SetZoom(0.5)
	c.Pan(10, -20)
	if c.X != -20 || c.Y != 40 {
		t.Errorf("Expected (-20,40), got (%v,%v)", c.X, c.Y)
	}
}

func TestHitTestFootprintThenAlpha(t *testing.T) {
	f := newFixture(t)
	sprites := f.scene.Sprites()

	sp, ok := HitTest(sprites, f.iso, 192, 0)
	if !ok || sp.ID != "s1" {
		t.Fatalf("Expected the furnace by footprint, got %v", sp)
	}

	// Above the furnace's footprint, on its box art.
	cell := f.iso.Cell(192, -60)
	if sp.Footprint.Contains(cell.X, cell.Y) {
		t.Fatal("Test point should be outside the footprint")
	}
	sp, ok = HitTest(sprites, f.iso, 192, -60)
	if !ok || sp.ID != "s1" {
		t.Errorf("Expected the furnace by alpha, got %v", sp)
	}

	if _, ok := HitTest(sprites, f.iso, 2000, 0); ok {
		t.Error("Expected no structure far from the factory")
	}
}

func TestFrontmostPrefersHigherScreenY(t *testing.T) {
	back := &scene.Sprite{ID: "back", Anchor: projection.Point{Y: -10}}
	front := &scene.Sprite{ID: "front", Anchor: projection.Point{Y: 30}}
	got := frontmost([]*scene.Sprite{front, back}, func(*scene.Sprite) bool { return true })
	if got != front {
		t.Errorf("Expected front, got %s", got.ID)
	}
}

func TestClickWithoutMoving(t *testing.T) {
	f := newFixture(t)
	sx, sy := f.at(3, 3)
	f.ctrl.PointerDown(f.session.State, sx, sy)
	if f.ctrl.State() != StatePotentialDrag {
		t.Fatalf("Expected potential drag, got %s", f.ctrl.State())
	}
	f.ctrl.PointerMove(f.session.State, sx+3, sy)
	if f.ctrl.State() != StatePotentialDrag {
		t.Fatalf("Expected movement under the threshold to keep potential drag, got %s", f.ctrl.State())
	}
	ev, err := f.ctrl.PointerUp(f.session.State, sx+3, sy)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != EventClick || ev.StructureID != "s1" {
		t.Errorf("Expected click on s1, got %+v", ev)
	}
	if f.ctrl.State() != StateIdle {
		t.Errorf("Expected idle after release, got %s", f.ctrl.State())
	}
}

func TestDragMovesStructure(t *testing.T) {
	f := newFixture(t)
	sx, sy := f.at(3, 3) // one cell in from the furnace origin
	f.ctrl.PointerDown(f.session.State, sx, sy)

	tx, ty := f.at(7, 3)
	f.ctrl.PointerMove(f.session.State, tx, ty)
	if f.ctrl.State() != StateDragging {
		t.Fatalf("Expected dragging, got %s", f.ctrl.State())
	}
	if !f.ctrl.Verdict().Valid {
		t.Fatalf("Expected a valid preview, got %+v", f.ctrl.Verdict())
	}
	p := f.scene.Preview()
	if p == nil || p.X != 6 || p.Y != 2 || p.MovingID != "s1" {
		t.Fatalf("Expected preview at (6,2) moving s1, got %+v", p)
	}
	if f.session.State.MachineByID("s1").X != 2 {
		t.Fatal("Expected no intent before release")
	}

	ev, err := f.ctrl.PointerUp(f.session.State, tx, ty)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != EventMoved {
		t.Fatalf("Expected moved, got %+v", ev)
	}
	if m := f.session.State.MachineByID("s1"); m.X != 6 || m.Y != 2 {
		t.Errorf("Expected furnace at (6,2), got (%d,%d)", m.X, m.Y)
	}
	if f.scene.Preview() != nil {
		t.Error("Expected preview cleared")
	}
}

func TestDragOntoStructureIsRejected(t *testing.T) {
	f := newFixture(t)
	sx, sy := f.at(3, 3)
	f.ctrl.PointerDown(f.session.State, sx, sy)
	tx, ty := f.at(10, 10)
	f.ctrl.PointerMove(f.session.State, tx, ty)

	v := f.ctrl.Verdict()
	if v.Valid || v.Reason != placement.ReasonCollision {
		t.Fatalf("Expected collision verdict, got %+v", v)
	}
	if p := f.scene.Preview(); p == nil || p.Valid {
		t.Fatal("Expected an invalid preview")
	}

	ev, err := f.ctrl.PointerUp(f.session.State, tx, ty)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != EventRejected || ev.Result.Reason != string(placement.ReasonCollision) {
		t.Errorf("Expected rejection, got %+v", ev)
	}
	if m := f.session.State.MachineByID("s1"); m.X != 2 || m.Y != 2 {
		t.Error("Expected the furnace to stay put")
	}
}

func TestPressOnEmptyFloorIsNoop(t *testing.T) {
	f := newFixture(t)
	sx, sy := f.at(12, 3)
	f.ctrl.PointerDown(f.session.State, sx, sy)
	if f.ctrl.State() != StateIdle {
		t.Fatalf("Expected idle, got %s", f.ctrl.State())
	}
	f.ctrl.PointerMove(f.session.State, sx+50, sy+50)
	if f.ctrl.Camera.X != 0 || f.ctrl.Camera.Y != 0 {
		t.Error("Expected the camera not to move")
	}
	ev, _ := f.ctrl.PointerUp(f.session.State, sx+50, sy+50)
	if ev.Kind != EventNone {
		t.Errorf("Expected no event, got %+v", ev)
	}
}

func TestPressOutsideFactoryPans(t *testing.T) {
	f := newFixture(t)
	sx, sy := f.at(-5, -5)
	f.ctrl.PointerDown(f.session.State, sx, sy)
	if f.ctrl.State() != StatePanning {
		t.Fatalf("Expected panning, got %s", f.ctrl.State())
	}
	f.ctrl.PointerMove(f.session.State, sx+10, sy+20)
	if f.ctrl.Camera.X != -10 || f.ctrl.Camera.Y != -20 {
		t.Errorf("Expected camera at (-10,-20), got (%v,%v)", f.ctrl.Camera.X, f.ctrl.Camera.Y)
	}
	f.ctrl.PointerUp(f.session.State, sx+10, sy+20)
	if f.ctrl.State() != StateIdle {
		t.Errorf("Expected idle, got %s", f.ctrl.State())
	}
}

func TestPlacementFromPalette(t *testing.T) {
	f := newFixture(t)
	f.ctrl.BeginPlacement(gamestate.KindMachine, "wire_drawer")
	sx, sy := f.at(13, 13)
	f.ctrl.PointerMove(f.session.State, sx, sy)
	if p := f.scene.Preview(); p == nil || !p.Valid || p.X != 13 || p.Y != 13 {
		t.Fatalf("Expected a valid preview at (13,13), got %+v", p)
	}

	f.ctrl.PointerDown(f.session.State, sx, sy)
	ev, err := f.ctrl.PointerUp(f.session.State, sx, sy)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != EventPlaced {
		t.Fatalf("Expected placed, got %+v", ev)
	}
	if n := len(f.session.State.Machines); n != 3 {
		t.Errorf("Expected three machines, got %d", n)
	}
	if f.scene.Preview() != nil {
		t.Error("Expected preview cleared")
	}
}

func TestCancelClearsPreview(t *testing.T) {
	f := newFixture(t)
	f.ctrl.BeginPlacement(gamestate.KindGenerator, "solar_panel")
	sx, sy := f.at(0, 15)
	f.ctrl.PointerMove(f.session.State, sx, sy)
	if f.scene.Preview() == nil {
		t.Fatal("Expected a preview")
	}
	f.ctrl.Cancel()
	if f.scene.Preview() != nil || f.ctrl.State() != StateIdle {
		t.Error("Expected cancel to return to idle without preview")
	}
}
