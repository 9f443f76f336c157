package crg

import (
	"testing"

	"atx040-go/internal/sim"
	"atx040-go/signal"
)

func TestCombine(t *testing.T) {
	for _, soft := range []bool{false, true} {
		for _, rstN := range []bool{false, true} {
			for _, trig := range []bool{false, true} {
				want := soft || !rstN || trig
				if got := Combine(soft, rstN, trig); got != want {
					t.Fatalf("Combine(%v,%v,%v)=%v", soft, rstN, trig, got)
				}
				if trig && !Combine(soft, rstN, trig) {
					t.Fatal("trigger must always reset")
				}
			}
		}
	}
	if Combine(false, true, false) {
		t.Fatal("no source asserted must release reset")
	}
}

func TestResetSyncDeassertsOnSecondEdge(t *testing.T) {
	cd := signal.NewDomain("sys", false)
	level := true
	r := NewResetSync(cd, func() bool { return level })
	if !cd.InReset() {
		t.Fatal("synchroniser must start in reset")
	}
	rise := sim.Edge{Clock: "sys", Rising: true}
	fall := sim.Edge{Clock: "sys", Rising: false}

	r.Edge(rise)
	if !cd.InReset() {
		t.Fatal("held input must keep reset")
	}

	level = false
	r.Edge(fall) // falling edges are ignored
	r.Edge(rise)
	if !cd.InReset() {
		t.Fatal("reset released after one edge")
	}
	r.Edge(rise)
	if cd.InReset() {
		t.Fatal("reset still asserted after two edges")
	}

	r.Assert()
	if !cd.InReset() {
		t.Fatal("Assert must be immediate")
	}
	r.Edge(rise)
	r.Edge(rise)
	if cd.InReset() {
		t.Fatal("reset must release two edges after Assert")
	}
}
