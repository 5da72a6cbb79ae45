// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"errors"
	"fmt"
)

var (
	// ErrInitialization is returned when an instance cannot be created
	ErrInitialization = errors.New("fhevm initialization failed")

	// ErrNotReady is returned by operations attempted before an instance is
	// ready
	ErrNotReady = errors.New("fhevm instance not ready")

	// ErrConversion is returned when a value cannot be coerced to the
	// requested type
	ErrConversion = errors.New("value conversion failed")

	// ErrRange is returned when a value does not fit the requested width
	ErrRange = errors.New("value out of range")

	// ErrUnsupportedType is returned when the engine has no primitive for
	// the requested type
	ErrUnsupportedType = errors.New("unsupported encryption type")

	// ErrNoSigner is returned when no signing capability is bound to the
	// requester
	ErrNoSigner = errors.New("no signer available")

	// ErrNoKeypair is returned when the engine holds no keypair
	ErrNoKeypair = errors.New("no keypair available")

	// ErrUnknownNetwork is returned for networks missing from the default
	// table when fallback is disabled
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrSuperseded is returned by an initialization replaced by a newer one
	ErrSuperseded = errors.New("initialization superseded")
)

// GatewayError is returned when a gateway round trip fails. StatusCode is
// zero when no HTTP response was received.
type GatewayError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway request failed: %v", e.Err)
	}
	return fmt.Sprintf("gateway request failed with status %s: %v", e.Status, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// BatchError attributes a batch failure to the element at Index
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch element %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
