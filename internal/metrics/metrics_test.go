package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

func TestObserveStep(t *testing.T) {
	r := New()
	state := &gamestate.WorldState{
		Credits: 1234,
		Energy:  gamestate.Energy{Produced: 25, Consumed: 20, Requested: 60},
	}
	report := &simulation.StepReport{
		Blocked:   []string{"a1", "w1"},
		Produced:  []simulation.ProductionEvent{{MachineID: "f1", Outputs: map[string]int64{"iron_plate": 1}}},
		Extracted: map[string]int64{"iron_plate": 2},
	}
	r.ObserveStep(state, report)
	r.ObserveStep(state, report)

	if got := testutil.ToFloat64(r.ticks); got != 2 {
		t.Errorf("Expected 2 ticks, got %v", got)
	}
	if got := testutil.ToFloat64(r.energy.WithLabelValues("requested")); got != 60 {
		t.Errorf("Expected requested 60, got %v", got)
	}
	if got := testutil.ToFloat64(r.blocked); got != 2 {
		t.Errorf("Expected 2 blocked, got %v", got)
	}
	if got := testutil.ToFloat64(r.produced.WithLabelValues("iron_plate")); got != 6 {
		t.Errorf("Expected 6 plates, got %v", got)
	}
	if got := testutil.ToFloat64(r.credits); got != 1234 {
		t.Errorf("Expected credits 1234, got %v", got)
	}
}

func TestObserveResultCountsRejections(t *testing.T) {
	r := New()
	r.ObserveResult(simulation.Result{Accepted: true})
	r.ObserveResult(simulation.Result{Reason: "collision"})
	r.ObserveResult(simulation.Result{Reason: "collision"})
	if got := testutil.ToFloat64(r.rejections.WithLabelValues("collision")); got != 2 {
		t.Errorf("Expected 2 collisions, got %v", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	r := New()
	r.ObserveSceneSync(3 * time.Millisecond)
	r.TextureMiss()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{"factory_scene_sync_seconds_count 1", "factory_texture_misses_total 1"} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected %q in metrics output", name)
		}
	}
}
