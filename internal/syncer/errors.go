package syncer

import (
	"errors"

	"github.com/avelasov/techstore/internal/store"
)

var (
	// ErrNotAuthenticated is returned by every mutation attempted without
	// an identity; no remote call is made.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRemoteRejected marks a structured refusal by the data service.
	ErrRemoteRejected = errors.New("request rejected")
	// ErrRemoteUnreachable marks a transport-level failure.
	ErrRemoteUnreachable = errors.New("data service unreachable")
	// ErrPartialFailure is reported by ClearCart when only some removals
	// went through. Successful removals are not rolled back.
	ErrPartialFailure = errors.New("some cart items could not be removed")
)

// classify folds store errors into the taxonomy above. Errors already in
// the taxonomy pass through unchanged.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrRemoteRejected),
		errors.Is(err, ErrRemoteUnreachable),
		errors.Is(err, ErrPartialFailure):
		return err
	case errors.Is(err, store.ErrRejected):
		return errors.Join(ErrRemoteRejected, err)
	default:
		return errors.Join(ErrRemoteUnreachable, err)
	}
}

// Result is the uniform shape mutation outcomes take at the HTTP edge.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ResultOf(err error) Result {
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true}
}
