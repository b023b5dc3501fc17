package place

import (
	"math"
	"testing"
)

func TestPlan_PairwiseDistanceInvariant(t *testing.T) {
	p := NewPlanner(1)
	pts := p.Plan(Request{Count: 50, MinDistance: 5, MaxDistance: 40})
	if len(pts) > 50 {
		t.Fatalf("planned %d points, budget was 50", len(pts))
	}
	if len(pts) == 0 {
		t.Fatal("planned no points in a feasible region")
	}
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			d := math.Hypot(pts[i].X-pts[j].X, pts[i].Z-pts[j].Z)
			if d < 5 {
				t.Fatalf("points %d and %d are %v apart, want >= 5", i, j, d)
			}
		}
	}
}

func TestPlan_InfeasibleDensityReturnsFewer(t *testing.T) {
	p := NewPlanner(2)
	// Ten trees 20 apart cannot fit in a disk of radius 15.
	pts := p.Plan(Request{Count: 10, MinDistance: 20, MaxDistance: 15})
	if len(pts) >= 10 {
		t.Fatalf("expected fewer than 10 points in an infeasible region, got %d", len(pts))
	}
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if math.Hypot(pts[i].X-pts[j].X, pts[i].Z-pts[j].Z) < 20 {
				t.Fatal("infeasible plan still violated spacing")
			}
		}
	}
}

func TestPlan_PointsInsideRegion(t *testing.T) {
	p := NewPlanner(3)
	pts := p.Plan(Request{Count: 200, MinDistance: 0, MaxDistance: 30})
	for _, pt := range pts {
		if math.Hypot(pt.X, pt.Z) > 30 {
			t.Fatalf("disk point (%v, %v) outside radius 30", pt.X, pt.Z)
		}
	}

	pts = p.Plan(Request{Count: 200, MinDistance: 0, MaxDistance: 30, Shape: RegionSquare})
	for _, pt := range pts {
		if math.Abs(pt.X) > 30 || math.Abs(pt.Z) > 30 {
			t.Fatalf("square point (%v, %v) outside half-side 30", pt.X, pt.Z)
		}
	}
}

func TestPlan_MinRadiusKeepsCenterClear(t *testing.T) {
	p := NewPlanner(4)
	pts := p.Plan(Request{Count: 100, MinDistance: 0, MaxDistance: 40, MinRadius: 10})
	if len(pts) == 0 {
		t.Fatal("no points planned")
	}
	for _, pt := range pts {
		if math.Hypot(pt.X, pt.Z) < 10 {
			t.Fatalf("point (%v, %v) inside the cleared center", pt.X, pt.Z)
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	req := Request{Count: 30, MinDistance: 3, MaxDistance: 50}
	a := NewPlanner(77).Plan(req)
	b := NewPlanner(77).Plan(req)
	if len(a) != len(b) {
		t.Fatalf("same seed planned %d vs %d points", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at point %d", i)
		}
	}
}

func TestPlan_UniformAreaStaysInShell(t *testing.T) {
	p := NewPlanner(5)
	pts := p.Plan(Request{Count: 300, MinDistance: 0, MaxDistance: 20, MinRadius: 5, Distribution: DistUniformArea})
	for _, pt := range pts {
		r := math.Hypot(pt.X, pt.Z)
		if r < 5 || r > 20 {
			t.Fatalf("uniform-area point at radius %v outside [5, 20]", r)
		}
	}
}

func TestPlan_DegenerateRequests(t *testing.T) {
	p := NewPlanner(6)
	if pts := p.Plan(Request{Count: 0, MaxDistance: 10}); pts != nil {
		t.Fatalf("zero count returned %d points", len(pts))
	}
	if pts := p.Plan(Request{Count: 5, MaxDistance: 0}); pts != nil {
		t.Fatalf("zero extent returned %d points", len(pts))
	}
}
