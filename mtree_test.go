package mtree

import (
	"math"
	"math/rand"
	"testing"
)

// point2D is the test package's stand-in data object: a plain 2D point
// under Euclidean distance, the same role testBoat plays in
// storage/rStarTree_test.go.
type point2D struct {
	x, y float64
}

func euclidean(a, b point2D) float64 {
	dx := a.x - b.x
	dy := a.y - b.y
	return math.Sqrt(dx*dx + dy*dy)
}

func randPoint() point2D {
	return point2D{
		x: float64(rand.Intn(2000) - 1000),
		y: float64(rand.Intn(2000) - 1000),
	}
}

// randPoints returns n distinct points; distinctness matters because
// Add's contract (spec §4.1) leaves duplicate insertion undefined.
func randPoints(n int) []point2D {
	seen := make(map[point2D]bool, n)
	pts := make([]point2D, 0, n)
	for len(pts) < n {
		p := randPoint()
		if seen[p] {
			continue
		}
		seen[p] = true
		pts = append(pts, p)
	}
	return pts
}

func newTestTree(t *testing.T, minCapacity int) *Tree[point2D] {
	t.Helper()
	tree, err := New[point2D](Options[point2D]{
		MinCapacity:  minCapacity,
		DistanceFunc: euclidean,
		Validate:     true,
	})
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	return tree
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New[point2D](Options[point2D]{MinCapacity: 1, DistanceFunc: euclidean}); err == nil {
		t.Error("New should reject MinCapacity < 2")
	}
	if _, err := New[point2D](Options[point2D]{MinCapacity: 3, MaxCapacity: 4, DistanceFunc: euclidean}); err == nil {
		t.Error("New should reject MaxCapacity < 2*MinCapacity-1")
	}
	if _, err := New[point2D](Options[point2D]{MinCapacity: 2}); err == nil {
		t.Error("New should reject a nil DistanceFunc")
	}
}

func TestAddLenAndValidate(t *testing.T) {
	tree := newTestTree(t, 2)
	pts := randPoints(500)
	for i, p := range pts {
		tree.Add(p)
		if tree.Len() != i+1 {
			t.Fatalf("after %d adds, Len() = %d", i+1, tree.Len())
		}
	}
	if err := Validate(tree); err != nil {
		t.Fatalf("tree invalid after inserts: %s", err)
	}
}

// TestAddThenRemoveAllEmptiesTree is P1/P2 of spec §8: every inserted
// object can be removed again, the tree stays valid after each removal,
// and removing every object leaves an empty tree.
func TestAddThenRemoveAllEmptiesTree(t *testing.T) {
	tree := newTestTree(t, 3)
	pts := randPoints(300)
	for _, p := range pts {
		tree.Add(p)
	}

	rand.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })
	for i, p := range pts {
		if err := tree.Remove(p); err != nil {
			t.Fatalf("Remove(%v) (%d/%d) failed: %s", p, i+1, len(pts), err)
		}
		if err := Validate(tree); err != nil {
			t.Fatalf("tree invalid after removing %v: %s", p, err)
		}
	}
	if tree.Len() != 0 {
		t.Errorf("Len() = %d after removing every point, want 0", tree.Len())
	}
}

func TestRemoveNotFound(t *testing.T) {
	tree := newTestTree(t, 2)
	tree.Add(point2D{0, 0})
	if err := tree.Remove(point2D{1, 1}); err == nil {
		t.Error("Remove of an unindexed point should fail")
	} else if !isErrNotFound(err) {
		t.Errorf("Remove of an unindexed point should wrap ErrNotFound, got %s", err)
	}
}

func isErrNotFound(err error) bool {
	for err != nil {
		if err == ErrNotFound {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// TestSearchFindsExactMatches is P3 of spec §8: searching for an
// indexed point at range 0 finds exactly that point.
func TestSearchFindsExactMatches(t *testing.T) {
	tree := newTestTree(t, 2)
	pts := randPoints(200)
	for _, p := range pts {
		tree.Add(p)
	}
	for _, p := range pts {
		cur := tree.Search(p, 0, NoLimit)
		data, dist, ok := cur.Next()
		if !ok {
			t.Fatalf("Search(%v, 0) found nothing", p)
		}
		if data != p || dist != 0 {
			t.Fatalf("Search(%v, 0) returned (%v, %g), want (%v, 0)", p, data, dist, p)
		}
	}
}

// TestSearchMatchesBruteForce is P4/P5 of spec §8: ranged search returns
// exactly the set a linear scan would, in non-decreasing distance order.
func TestSearchMatchesBruteForce(t *testing.T) {
	tree := newTestTree(t, 3)
	pts := randPoints(400)
	for _, p := range pts {
		tree.Add(p)
	}

	query := randPoint()
	const rng = 300.0

	var want []point2D
	for _, p := range pts {
		if euclidean(query, p) <= rng {
			want = append(want, p)
		}
	}

	got := drain(tree.Search(query, rng, NoLimit))
	if len(got) != len(want) {
		t.Fatalf("Search found %d points within %g, brute force found %d", len(got), rng, len(want))
	}
	gotSet := make(map[point2D]bool, len(got))
	for _, p := range got {
		gotSet[p] = true
	}
	for _, p := range want {
		if !gotSet[p] {
			t.Errorf("Search missed %v (distance %g), which is within range", p, euclidean(query, p))
		}
	}
	assertNonDecreasing(t, tree, query, got)
}

func TestSearchRespectsLimit(t *testing.T) {
	tree := newTestTree(t, 2)
	pts := randPoints(250)
	for _, p := range pts {
		tree.Add(p)
	}
	query := randPoint()
	const limit = 10
	got := drain(tree.Search(query, Unbounded, limit))
	if len(got) != limit {
		t.Fatalf("Search with Limit=%d returned %d results", limit, len(got))
	}
	assertNonDecreasing(t, tree, query, got)

	// the limited results must be a prefix of the unbounded ones.
	all := drain(tree.Search(query, Unbounded, NoLimit))
	for i, p := range got {
		if p != all[i] {
			t.Fatalf("limited result %d = %v, unbounded result %d = %v", i, p, i, all[i])
		}
	}
}

func drain(cur *Cursor[point2D]) []point2D {
	var out []point2D
	for {
		data, _, ok := cur.Next()
		if !ok {
			return out
		}
		out = append(out, data)
	}
}

func assertNonDecreasing(t *testing.T, tree *Tree[point2D], query point2D, pts []point2D) {
	t.Helper()
	last := -1.0
	for _, p := range pts {
		d := euclidean(query, p)
		if d < last {
			t.Errorf("Search order not non-decreasing: %v at distance %g came after distance %g", p, d, last)
		}
		last = d
	}
}

// TestCapacityBoundsHold is S-series coverage for spec §3's structural
// invariants across a mixed add/remove workload, the metric-space
// analogue of storage/rStarTree_test.go's bulk-insert stress tests.
func TestCapacityBoundsHold(t *testing.T) {
	tree := newTestTree(t, 4)
	pts := randPoints(2000)
	for i, p := range pts {
		tree.Add(p)
		if i%7 == 0 && i > 0 {
			victim := pts[rand.Intn(i)]
			_ = tree.Remove(victim) // may already be gone; ignore
		}
	}
	if err := Validate(tree); err != nil {
		t.Fatalf("tree invalid after mixed workload: %s", err)
	}
}

// TestSplitPolicyProducesDistinctPivots guards DefaultSplitFunc against
// ever promoting the same object as both pivots, which would make the
// two partitions meaningless.
func TestSplitPolicyProducesDistinctPivots(t *testing.T) {
	pts := randPoints(8)
	for trial := 0; trial < 20; trial++ {
		p1, s1, p2, s2 := DefaultSplitFunc[point2D](pts, euclidean)
		if p1 == p2 {
			t.Fatalf("DefaultSplitFunc chose the same pivot twice: %v", p1)
		}
		if len(s1)+len(s2) != len(pts) {
			t.Fatalf("DefaultSplitFunc partitions sum to %d, want %d", len(s1)+len(s2), len(pts))
		}
	}
}
