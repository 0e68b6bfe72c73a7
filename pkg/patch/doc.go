// Package patch is the reconciliation and patch-application engine.
//
// Diff compares two virtual snapshots and returns a patch Tree: the edits for
// the compared node itself plus sub-trees for children whose position was
// retained. Apply runs a Tree against a live host tree, tracking nodes
// displaced by moves so that later edits in the same batch can reclaim them,
// and reports lifecycle hooks exactly once per affected node.
//
// Basic usage:
//
//	tree, err := patch.Diff(prev, next)
//	if err != nil {
//	    return err
//	}
//	err = tree.Apply(doc, doc.Root(), patch.WithHooks(patch.Hooks{
//	    DidUpdate: func(n host.Node, c *patch.Changes) { ... },
//	}))
//
// # Keyed children
//
// A child list is keyed when its first child carries a key; then every child
// must carry a distinct key. Keyed lists are reconciled by identity: matching
// old children are moved to their new index, unmatched positions receive a
// freshly materialized node, and the excess tail is removed. Unkeyed lists
// are diffed positionally.
//
// # Hooks
//
// WillConnect and DidConnect fire for every node placed into the tree,
// WillDisconnect for every node taken out of it (cascading to descendants for
// removals), and DidUpdate once per host node whose attributes, text or child
// list changed, bottom-up. An owner attached to a host node that implements
// one of the hook interfaces receives that hook instead of the Hooks bag.
package patch
