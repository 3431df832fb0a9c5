package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TransportError is a network or HTTP failure talking to the record backend.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: backend status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: backend status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport error"
	}
}

func (e TransportError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	ID       int64
	Err      error
}

func (e NotFoundError) Error() string {
	res := e.Resource
	if res == "" {
		res = "record"
	}
	if e.ID != 0 {
		return fmt.Sprintf("%s %d not found", res, e.ID)
	}
	return fmt.Sprintf("%s not found", res)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// ItemFailure is one failed id inside a batch.
type ItemFailure struct {
	ID  int64
	Err error
}

// BatchError reports the ids of a batch that failed; the rest succeeded.
type BatchError struct {
	Op       string
	Total    int
	Failures []ItemFailure
}

func (e BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, "id "+strconv.FormatInt(f.ID, 10)+": "+f.Err.Error())
	}
	return fmt.Sprintf("%s: %d of %d failed (%s)", e.Op, len(e.Failures), e.Total, strings.Join(parts, "; "))
}

// FailedIDs lists the ids in the order they were attempted.
func (e BatchError) FailedIDs() []int64 {
	out := make([]int64, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.ID)
	}
	return out
}

func (e BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsTransport(err error) bool {
	var target TransportError
	return errors.As(err, &target)
}

func IsBatch(err error) bool {
	var target BatchError
	return errors.As(err, &target)
}
