package patch

import (
	"fmt"

	"github.com/vango-dev/vpatch/internal/errors"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrMalformedKeyList reports a child list that mixes keyed and unkeyed
	// children or repeats a key.
	ErrMalformedKeyList = errors.New("E200")

	// ErrUnsupportedTransition reports a snapshot pair with no defined patch.
	ErrUnsupportedTransition = errors.New("E201")

	// ErrHost reports a failure returned by the host tree or materializer.
	ErrHost = errors.New("E202")

	// ErrMissingTarget reports a patch that needs a target node applied
	// without one.
	ErrMissingTarget = errors.New("E203")
)

var errDetached = errors.Newf(errors.CategoryApply, "target node is detached")

// KeyListError describes the offending child of a malformed key list.
// It is wrapped by errors carrying ErrMalformedKeyList.
type KeyListError struct {
	// Index is the position of the offending child in the new list.
	Index int

	// Key is the offending child's key ("" when the key is missing).
	Key string

	// Reason is "missing key", "unexpected key" or "duplicate key".
	Reason string
}

func (e *KeyListError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("child %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("child %d: %s %q", e.Index, e.Reason, e.Key)
}

func malformedKeyList(path []int, index int, key, reason string) error {
	kerr := &KeyListError{Index: index, Key: key, Reason: reason}
	return errors.New("E200").
		WithDetail(kerr.Error()).
		AtPath(path).
		Wrap(kerr).
		WithSuggestion("Give every child of a keyed list a unique key, or drop keys from all of them.")
}

func unsupported(path []int, format string, args ...any) error {
	return errors.New("E201").WithDetailf(format, args...).AtPath(path)
}

func hostError(path []int, op Op, err error) error {
	return errors.New("E202").WithDetailf("%s: %v", op, err).AtPath(path).Wrap(err)
}

func missingTarget(path []int, op Op) error {
	return errors.New("E203").WithDetailf("%s has no target node", op).AtPath(path)
}
