// Package deliclu provides the join-tracking R*-tree used by density-based
// hierarchical clustering (DeLiClu).
//
// A Tree wraps an *rstar.Tree and adds two pieces of state consumed by an
// external join algorithm:
//
//   - an expansion map from entry id to the ids it has been expanded with,
//   - handled/unhandled summary flags on every entry.
//
// Leaf entries start unhandled. Directory entries summarize their child
// when they are created; later changes to handled state do not propagate
// on their own. Call AdjustSummaries (or SetHandled, which does so) to
// refresh the ancestors of a changed entry.
//
// The expansion map is one-directional: MarkExpanded(a, b) records b as a
// partner of a only.
//
//	tree, _ := deliclu.New(ctx, pf, rstar.WithDimension(2))
//	_ = tree.BulkLoad(ctx, objs)
//	tree.MarkExpanded(a, b)
//	seen := tree.ExpandedWith(a).Contains(b.ID) // true
package deliclu
