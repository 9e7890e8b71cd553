// Package chainerr gives every other package a single typed error to
// return instead of the teacher's ad hoc log.Panic/errors.New mix, so
// callers (CLI, P2P handlers) can branch on what went wrong instead of
// string-matching messages.
package chainerr

import (
	"errors"
	"fmt"
)

// Kind classifies the failure, following spec.md §7's error taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	KindKV                // embedded KV store failure (Badger open/get/set/iterate)
	KindCorrupt           // stored bytes failed to decode (gob, merkle, pow image)
	KindClock             // mining a block failed, or the random source failed (coinbase memo, key generation)
	KindInvalidTx         // transaction failed validation or signature checks
	KindInsufficientFunds // spendable balance could not cover the requested amount
	KindNotFound          // a block, transaction, or wallet address was not found
	KindMissingPrev       // a referenced previous output/transaction is unknown
	KindNetwork           // a peer connection or P2P message failed
	KindLock              // an on-disk KV store lock file blocked opening
	KindBadUTF8           // an address string failed to decode (bad base58, length, or checksum)
)

func (k Kind) String() string {
	switch k {
	case KindKV:
		return "kv"
	case KindCorrupt:
		return "corrupt"
	case KindClock:
		return "clock"
	case KindInvalidTx:
		return "invalid_tx"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindNotFound:
		return "not_found"
	case KindMissingPrev:
		return "missing_prev"
	case KindNetwork:
		return "network"
	case KindLock:
		return "lock"
	case KindBadUTF8:
		return "bad_utf8"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with the operation that failed and a
// Kind callers can switch on.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error. err may be nil when the failure has no
// underlying cause (e.g. a validation predicate simply failed).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
