package otuAnalysis

import (
	"errors"
	"math"
	"testing"
)

func TestShannon(t *testing.T) {
	// p = [1/3, 2/3]
	want := -(1.0/3.0)*math.Log(1.0/3.0) - (2.0/3.0)*math.Log(2.0/3.0)
	if got := Shannon([]float64{10, 0, 20}); !approx(got, want, 1e-12) {
		t.Errorf("Shannon = %f; want %f", got, want)
	}
	if got := Shannon([]float64{5, 5, 5, 5}); !approx(got, math.Log(4), 1e-12) {
		t.Errorf("Shannon uniform = %f; want %f", got, math.Log(4))
	}
	if got := Shannon([]float64{0, 0}); got != 0 {
		t.Errorf("Shannon of zeros = %f; want 0", got)
	}
}

func TestInvSimpson(t *testing.T) {
	// Uniform over n categories gives n.
	if got := InvSimpson([]float64{2, 2, 2, 2}); !approx(got, 4, 1e-12) {
		t.Errorf("InvSimpson uniform = %f; want 4", got)
	}
	if got := InvSimpson([]float64{7, 0, 0}); !approx(got, 1, 1e-12) {
		t.Errorf("InvSimpson single = %f; want 1", got)
	}
}

func TestObserved(t *testing.T) {
	if got := Observed([]float64{10, 0, 5, 0}); got != 2 {
		t.Errorf("Observed = %d; want 2", got)
	}
}

func TestChao1(t *testing.T) {
	// sobs = 4, f1 = 2, f2 = 1: 4 + 2*1/(2*2) = 4.5
	if got := Chao1([]float64{1, 1, 2, 5}); !approx(got, 4.5, 1e-12) {
		t.Errorf("Chao1 = %f; want 4.5", got)
	}
	// No singletons: estimate equals observed.
	if got := Chao1([]float64{3, 4, 5}); !approx(got, 3, 1e-12) {
		t.Errorf("Chao1 without singletons = %f; want 3", got)
	}
}

func TestAlphaDiversity(t *testing.T) {
	a := loadTest(t)
	a.RemoveSample("Blank")

	alpha, err := a.AlphaDiversity()
	if err != nil {
		t.Fatalf("AlphaDiversity failed: %v", err)
	}
	if len(alpha) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(alpha))
	}
	if alpha[0].Sample != "S1" || alpha[0].Observed != 2 {
		t.Errorf("Expected S1 with 2 observed, got %s with %d", alpha[0].Sample, alpha[0].Observed)
	}
	if alpha[1].Observed != 1 || !approx(alpha[1].Shannon, 0, 1e-12) {
		t.Errorf("Expected S2 single-OTU sample with zero Shannon, got %d/%f", alpha[1].Observed, alpha[1].Shannon)
	}
}

func TestAlphaDiversityEmpty(t *testing.T) {
	a := NewAnalysis(t.TempDir())
	_, err := a.AlphaDiversity()

	var emptyErr *EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("Expected EmptyResultError, got %v", err)
	}
}

func TestBrayCurtis(t *testing.T) {
	rows := [][]float64{
		{10, 0, 5},
		{0, 0, 15},
	}
	d, err := BrayCurtis(rows)
	if err != nil {
		t.Fatalf("BrayCurtis failed: %v", err)
	}
	// (10 + 0 + 10) / (10 + 0 + 20) = 2/3
	if got := d.At(0, 1); !approx(got, 2.0/3.0, 1e-12) {
		t.Errorf("BrayCurtis = %f; want %f", got, 2.0/3.0)
	}
	if d.At(0, 0) != 0 || d.At(1, 1) != 0 {
		t.Error("Expected zero diagonal")
	}
}

func TestBrayCurtisIdentical(t *testing.T) {
	d, err := BrayCurtis([][]float64{{1, 2, 3}, {1, 2, 3}})
	if err != nil {
		t.Fatalf("BrayCurtis failed: %v", err)
	}
	if d.At(0, 1) != 0 {
		t.Errorf("Identical rows must have distance 0, got %f", d.At(0, 1))
	}
}

func TestBrayCurtisSingleRow(t *testing.T) {
	_, err := BrayCurtis([][]float64{{1, 2}})
	var emptyErr *EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("Expected EmptyResultError, got %v", err)
	}
}

func TestRelativeRows(t *testing.T) {
	rel, err := RelativeRows([]string{"S1"}, [][]float64{{10, 0, 30}})
	if err != nil {
		t.Fatalf("RelativeRows failed: %v", err)
	}
	if !approx(rel[0][0], 25, 1e-12) || !approx(rel[0][2], 75, 1e-12) {
		t.Errorf("Expected [25, 0, 75], got %v", rel[0])
	}

	_, err = RelativeRows([]string{"S9"}, [][]float64{{0, 0}})
	var divErr *DivideByZeroError
	if !errors.As(err, &divErr) {
		t.Fatalf("Expected DivideByZeroError, got %v", err)
	}
	if divErr.Row != "S9" {
		t.Errorf("Expected error to name S9, got %s", divErr.Row)
	}
}
