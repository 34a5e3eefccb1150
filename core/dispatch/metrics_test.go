package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/internal/testnet"
)

func TestActionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	h := newHarness(t, testnet.SingleTrack())
	g := h.actor(testnet.StationG)
	sec := h.section(testnet.TrainX100, 0)

	h.refuse(sec, g, ActionRequest, apperrors.KindInvalidTransition)
	h.do(sec, g, ActionManned)
	h.do(sec, g, ActionRequest)

	if v := testutil.ToFloat64(actionsTotal.WithLabelValues("manned", "ok")); v != 1 {
		t.Fatalf("expected 1 manned got %v", v)
	}
	if v := testutil.ToFloat64(actionsTotal.WithLabelValues("request", string(apperrors.KindInvalidTransition))); v != 1 {
		t.Fatalf("expected 1 refused request got %v", v)
	}
	if n := testutil.CollectAndCount(actionDuration); n != 2 {
		t.Fatalf("expected 2 duration series got %d", n)
	}
	h.do(sec, h.actor(testnet.StationA), ActionAccept)
	h.do(sec, g, ActionDepart)
	if v := testutil.ToFloat64(occupiedTracks); v != 1 {
		t.Fatalf("expected 1 occupied track got %v", v)
	}
	h.c.persister.Wait()
	if v := testutil.ToFloat64(snapshotsTotal.WithLabelValues("ok")); v < 1 {
		t.Fatalf("expected saved snapshots got %v", v)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("gather: %v", err)
	}
}
