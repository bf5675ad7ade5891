// Package apperrors defines structured application error types and exit
// codes, separating configuration problems from faults raised by the
// asynchronous operations the coordinator runs.
//
// All wrapping types implement Unwrap so errors.Is and errors.As see through them.
package apperrors
