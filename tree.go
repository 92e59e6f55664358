package mtree

import (
	"fmt"
	"math"

	"github.com/tormol/mtree/mtreelog"
)

// Options configures a Tree. It's a plain struct validated eagerly by
// New, the way github.com/tormol/AIS/storage.NewRTree and
// github.com/tormol/AIS/logger.NewLogger take their parameters directly
// rather than through a functional-options builder — nothing in this
// corpus reaches for that pattern for a handful of fields like these.
type Options[T comparable] struct {
	// MinCapacity is the minimum number of children a non-root node
	// must hold. Must be at least 2.
	MinCapacity int
	// MaxCapacity is the maximum number of children a node may hold
	// before it's split. Defaults to 2*MinCapacity-1 if zero.
	MaxCapacity int
	// DistanceFunc computes the distance between two data objects. Must
	// be non-negative, symmetric, obey the triangle inequality, and
	// return 0 for equal arguments. Required.
	DistanceFunc DistanceFunc[T]
	// SplitFunc partitions an overfull node's data during a split.
	// Defaults to DefaultSplitFunc if nil.
	SplitFunc SplitFunc[T]
	// Logger, if non-nil, receives Debug-level messages when the root
	// splits, collapses onto its sole child, or empties, and the
	// Fatal-level message of a failed Validate run. Splits and merges
	// below the root are not logged. A nil Logger is always safe.
	Logger *mtreelog.Logger
	// Validate, if true, runs the structural validator after every Add
	// and Remove and logs (at mtreelog.Fatal, aborting the process) any
	// invariant violation found. With a nil Logger the validator still
	// runs, but a violation is neither reported nor fatal. It's the Go analogue of the reference
	// implementation's `_CHECKED` toggle; leave it off in production,
	// the way that toggle defaults to on only for development.
	Validate bool
}

// Tree is an M-Tree index over data objects of type T. The zero value
// is not usable; construct with New.
type Tree[T comparable] struct {
	minCapacity  int
	maxCapacity  int
	distanceFunc DistanceFunc[T]
	splitFunc    SplitFunc[T]
	logger       *mtreelog.Logger
	validate     bool

	root  *Node[T]
	count int
}

// New creates a Tree from opts, failing with ErrInvalidConfiguration if
// the capacity parameters don't satisfy MinCapacity >= 2 and
// MaxCapacity >= 2*MinCapacity-1, or if DistanceFunc is nil.
func New[T comparable](opts Options[T]) (*Tree[T], error) {
	if opts.MinCapacity < 2 {
		return nil, fmt.Errorf("%w: MinCapacity must be at least 2, got %d", ErrInvalidConfiguration, opts.MinCapacity)
	}
	maxCapacity := opts.MaxCapacity
	if maxCapacity == 0 {
		maxCapacity = 2*opts.MinCapacity - 1
	}
	if maxCapacity < 2*opts.MinCapacity-1 {
		return nil, fmt.Errorf("%w: MaxCapacity must be at least 2*MinCapacity-1 (%d), got %d",
			ErrInvalidConfiguration, 2*opts.MinCapacity-1, maxCapacity)
	}
	if opts.DistanceFunc == nil {
		return nil, fmt.Errorf("%w: DistanceFunc is required", ErrInvalidConfiguration)
	}
	splitFunc := opts.SplitFunc
	if splitFunc == nil {
		splitFunc = DefaultSplitFunc[T]
	}

	return &Tree[T]{
		minCapacity:  opts.MinCapacity,
		maxCapacity:  maxCapacity,
		distanceFunc: opts.DistanceFunc,
		splitFunc:    splitFunc,
		logger:       opts.Logger,
		validate:     opts.Validate,
	}, nil
}

// Len returns the number of data objects currently indexed.
func (t *Tree[T]) Len() int { return t.count }

// Add indexes data. Inserting a data object that's already indexed is
// undefined by contract (spec §4.1) and not checked.
func (t *Tree[T]) Add(data T) {
	if t.root == nil {
		root := &Node[T]{kind: rootLeafKind, data: data}
		root.addData(data, 0, t)
		t.root = root
	} else {
		d0 := t.distanceFunc(data, t.root.data)
		outcome := t.root.addData(data, d0, t)
		if outcome.split {
			t.logger.Debugf("mtree: root split, promoting new root-internal over pivot %v", t.root.data)
			newRoot := &Node[T]{kind: rootInternalKind, data: t.root.data}
			for _, nn := range [2]*Node[T]{outcome.a, outcome.b} {
				dist := t.distanceFunc(newRoot.data, nn.data)
				nn.distanceToParent = dist
				newRoot.children = append(newRoot.children, nn)
				newRoot.radius = math.Max(newRoot.radius, dist+nn.radius)
			}
			t.root = newRoot
		}
	}
	t.count++
	t.afterMutation("Add")
}

// Remove removes data from the index, failing with ErrNotFound if it
// isn't indexed.
func (t *Tree[T]) Remove(data T) error {
	if t.root == nil {
		return ErrNotFound
	}
	d0 := t.distanceFunc(data, t.root.data)
	outcome, err := t.root.removeData(data, d0, t)
	if err != nil {
		return err
	}
	if outcome.rootReplaced {
		if outcome.newRoot == nil {
			t.logger.Debugf("mtree: root-leaf emptied, tree is now empty")
		} else {
			t.logger.Debugf("mtree: root collapsed, promoting sole child over pivot %v", outcome.newRoot.data)
		}
		t.root = outcome.newRoot
	}
	t.count--
	t.afterMutation("Remove")
	return nil
}

func (t *Tree[T]) afterMutation(op string) {
	if !t.validate {
		return
	}
	if err := Validate(t); err != nil {
		t.logger.Fatalf("mtree: invariant violated after %s: %s", op, err)
	}
}
