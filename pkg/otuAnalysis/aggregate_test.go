package otuAnalysis

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestCollapse(t *testing.T) {
	a := loadTest(t)
	a.RemoveSample("Blank")

	groups := a.Collapse()
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}

	g := groups[0]
	if g.Key != "T0Control" {
		t.Errorf("Expected key T0Control, got %s", g.Key)
	}
	// Collapse carries the factors through, never reconstructs them.
	if g.Timepoint != "T0" || g.Treatment != "Control" {
		t.Errorf("Expected T0/Control on group, got %s/%s", g.Timepoint, g.Treatment)
	}
	if len(g.Samples) != 2 {
		t.Errorf("Expected 2 member samples, got %d", len(g.Samples))
	}

	// [10,0,5] + [0,0,15] = [10,0,20]
	want := map[string]float64{"Otu1": 10, "Otu2": 0, "Otu3": 20}
	for otu, v := range want {
		if g.Counts[otu] != v {
			t.Errorf("Expected %s = %f, got %f", otu, v, g.Counts[otu])
		}
	}
}

func TestRelativeAbundance(t *testing.T) {
	a := loadTest(t)
	a.RemoveSample("Blank")

	rel, err := RelativeAbundance(a.Collapse())
	if err != nil {
		t.Fatalf("RelativeAbundance failed: %v", err)
	}

	g := rel[0]
	if !approx(g.Counts["Otu1"], 33.33, 0.01) ||
		g.Counts["Otu2"] != 0 ||
		!approx(g.Counts["Otu3"], 66.67, 0.01) {
		t.Errorf("Expected [33.33, 0, 66.67], got [%f, %f, %f]",
			g.Counts["Otu1"], g.Counts["Otu2"], g.Counts["Otu3"])
	}

	for _, g := range rel {
		var total float64
		for _, v := range g.Counts {
			total += v
		}
		if !approx(total, 100, 1e-9) {
			t.Errorf("Group %s sums to %f, want 100", g.Key, total)
		}
	}
}

func TestRelativeAbundanceZeroTotal(t *testing.T) {
	groups := []*Group{{
		Key:       "T0Control",
		Timepoint: "T0",
		Treatment: "Control",
		Counts:    map[string]float64{"Otu1": 0, "Otu2": 0},
	}}
	_, err := RelativeAbundance(groups)

	var divErr *DivideByZeroError
	if !errors.As(err, &divErr) {
		t.Fatalf("Expected DivideByZeroError, got %v", err)
	}
	if divErr.Row != "T0Control" {
		t.Errorf("Expected error to name T0Control, got %s", divErr.Row)
	}
}

func TestCollapseRank(t *testing.T) {
	a := loadTest(t)
	a.RemoveSample("Blank")

	ranked := a.CollapseRank(a.Collapse(), "Kingdom")
	g := ranked[0]
	if len(g.Counts) != 1 {
		t.Fatalf("Expected a single Kingdom label, got %d", len(g.Counts))
	}
	if g.Counts["Bacteria"] != 30 {
		t.Errorf("Expected Bacteria = 30, got %f", g.Counts["Bacteria"])
	}
}

func TestTopTaxa(t *testing.T) {
	groups := []*Group{
		{Key: "A", Counts: map[string]float64{"w": 50, "x": 30, "y": 15, "z": 5}},
		{Key: "B", Counts: map[string]float64{"w": 10, "x": 60, "y": 20, "z": 10}},
	}
	labels, out := TopTaxa(groups, 2)

	want := []string{"x", "w", OtherLabel}
	if len(labels) != len(want) {
		t.Fatalf("Expected labels %v, got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %s; want %s", i, labels[i], want[i])
		}
	}

	// Other picks up exactly what the top-N left behind.
	for i, g := range out {
		var grand, topSum float64
		for _, v := range groups[i].Counts {
			grand += v
		}
		for _, k := range want[:2] {
			topSum += g.Counts[k]
		}
		if g.Counts[OtherLabel] != grand-topSum {
			t.Errorf("Group %s Other = %f; want %f", g.Key, g.Counts[OtherLabel], grand-topSum)
		}
	}
}

func TestTopTaxaTieBreak(t *testing.T) {
	groups := []*Group{
		{Key: "A", Counts: map[string]float64{"b": 10, "a": 10, "c": 10}},
	}
	labels, _ := TopTaxa(groups, 2)
	// Equal totals fall back to lexical label order.
	if labels[0] != "a" || labels[1] != "b" || labels[2] != OtherLabel {
		t.Errorf("Expected [a b Other], got %v", labels)
	}
}

func TestTopTaxaAllKept(t *testing.T) {
	groups := []*Group{
		{Key: "A", Counts: map[string]float64{"a": 1, "b": 2}},
	}
	labels, out := TopTaxa(groups, 5)
	if len(labels) != 2 {
		t.Fatalf("Expected no Other bucket when everything fits, got %v", labels)
	}
	if _, ok := out[0].Counts[OtherLabel]; ok {
		t.Error("Expected no Other entry when everything fits")
	}
}

func TestRankMatrix(t *testing.T) {
	a := loadTest(t)
	_, rows := a.Matrix()
	labels, ranked := a.RankMatrix(rows, "Kingdom")

	if len(labels) != 1 || labels[0] != "Bacteria" {
		t.Fatalf("Expected [Bacteria], got %v", labels)
	}
	// S1 = [10,0,5] summed at kingdom level.
	if ranked[0][0] != 15 {
		t.Errorf("Expected S1 Bacteria = 15, got %f", ranked[0][0])
	}
}

func TestGroupKey(t *testing.T) {
	s := &Sample{ID: "S1", Timepoint: "T2", Treatment: "BMC_rotifers"}
	if got := GroupKey(s); got != "T2BMC_rotifers" {
		t.Errorf("GroupKey = %s; want T2BMC_rotifers", got)
	}
}
