// Package mtree implements an M-Tree: a dynamic, height-balanced index
// over any metric space. Given a caller-supplied distance function that
// is non-negative, symmetric and obeys the triangle inequality, the tree
// supports Add, Remove and range/k-NN Search, pruning subtrees that
// cannot hold a match instead of comparing the query against every
// indexed object (an unbounded, unlimited Search still visits them all).
//
// The tree does not know how to compute distances or how to split an
// overfull node; both are supplied by the caller (see DistanceFunc and
// SplitFunc). Persistence, concurrent access and approximate search are
// out of scope: callers wanting those must build them on top.
package mtree
