package models

import (
	"errors"
	"fmt"
)

// ValidationError reports a failed local precondition. It is raised before
// any remote write is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports a referenced entity that no longer exists at
// mutation time. The operation aborts with no partial state change.
type NotFoundError struct {
	Kind string // "post", "user", "comment"
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

// RemoteError wraps a failed store call. The core performs no automatic
// retry; the caller re-triggers the operation.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *RemoteError) Unwrap() error { return e.Err }

// PartialBatchError reports that some chunks of a multi-batch feed query
// failed while others succeeded. The partial result is kept.
type PartialBatchError struct {
	Failed int
	Total  int
	Err    error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%d of %d feed batches failed: %v", e.Failed, e.Total, e.Err)
}

func (e *PartialBatchError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsPartialBatch(err error) bool {
	var pb *PartialBatchError
	return errors.As(err, &pb)
}
