// internal/domain/movement/errors.go
package movement

import (
	"errors"
	"fmt"
)

// Reason tags a rejected submission. The values are part of the HTTP
// contract and appear verbatim in responses and audit entries.
type Reason string

const (
	ReasonMalformedRequest   Reason = "MalformedRequest"
	ReasonUnknownItem        Reason = "UnknownItem"
	ReasonUnknownActor       Reason = "UnknownActor"
	ReasonUnknownMovement    Reason = "UnknownMovement"
	ReasonItemInactive       Reason = "ItemInactive"
	ReasonInsufficientStock  Reason = "InsufficientStock"
	ReasonAlreadyIssued      Reason = "AlreadyIssued"
	ReasonNotAvailableStatus Reason = "NotAvailableStatus"
	ReasonAlreadyCancelled   Reason = "AlreadyCancelled"
	ReasonDuplicateMovement  Reason = "DuplicateMovement"
	ReasonRaceConflict       Reason = "RaceConflict"
)

// Rejection is the caller-visible outcome of a refused submission. It is an
// error so it travels through the usual return path, but carries structured
// detail for the HTTP layer and the audit sink.
type Rejection struct {
	Reason Reason                 `json:"reason"`
	Detail map[string]interface{} `json:"detail,omitempty"`
}

// Error implements the error interface
func (r *Rejection) Error() string {
	return fmt.Sprintf("movement rejected: %s", r.Reason)
}

// Reject builds a Rejection with optional structured detail
func Reject(reason Reason, detail map[string]interface{}) *Rejection {
	return &Rejection{Reason: reason, Detail: detail}
}

// AsRejection unwraps err into a *Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Storage-level sentinels. The store maps driver errors onto these so the
// engine never inspects SQLSTATEs itself.
var (
	// ErrStorageUnavailable wraps any I/O failure talking to the store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrRaceConflict signals a serialization failure; the engine retries
	// a bounded number of times before surfacing it.
	ErrRaceConflict = errors.New("race conflict")

	// ErrNegativeStock is the registry-level guard against a stock delta
	// that would leave on_hand below zero.
	ErrNegativeStock = errors.New("stock would go negative")

	// ErrNotFound is returned by store lookups that match nothing.
	ErrNotFound = errors.New("record not found")
)
