// Package errors provides structured, coded errors for vpatch.
//
// Every failure the engine surfaces carries a stable code (e.g. "E200") that
// maps to a registered template with a short message, a longer explanation
// and a documentation link. Errors raised while walking a snapshot also carry
// the child-index path of the offending node.
//
// # Error Categories
//
//   - reconcile: diff-time failures (malformed key lists, unsupported transitions)
//   - apply: host-tree failures while applying a patch tree
//   - protocol: wire codec errors
//   - config: configuration loading and validation
//   - snapshot: snapshot store errors
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("E200").
//	    AtPath([]int{0, 3}).
//	    WithDetail(`duplicate key "a" at index 3`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E200: Malformed key list
//	//
//	//   at /0/3
//	//
//	//   duplicate key "a" at index 3
//	//
//	//   Learn more: https://vango.dev/docs/vpatch/errors/E200
//
// Errors compare by code, so callers can match a sentinel with errors.Is:
//
//	if errors.Is(err, patch.ErrMalformedKeyList) { ... }
package errors
