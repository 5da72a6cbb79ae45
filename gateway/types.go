// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"
	"math/big"
)

const (
	ReencryptPath = "/reencrypt"
	KeysPath      = "/keys"
	InputsPath    = "/inputs"
	HealthPath    = "/health"
	MetricsPath   = "/metrics"

	// RequestIDHeader carries the client's correlation id
	RequestIDHeader = "X-Request-ID"
)

// ReencryptRequest is the body of POST /reencrypt. The handle is a base-10
// string; publicKey and signature are 0x-prefixed hex.
type ReencryptRequest struct {
	Handle          string `json:"handle"`
	PublicKey       string `json:"publicKey"`
	Signature       string `json:"signature"`
	ContractAddress string `json:"contractAddress"`
}

// ReencryptResponse is the parsed reply of POST /reencrypt
type ReencryptResponse struct {
	// Value is the decrypted value as an unsigned integer
	Value *big.Int

	// Signature is the KMS signature over (handle, value), if the gateway
	// returned one
	Signature []byte

	// Raw is the decoded response body
	Raw map[string]any
}

// KeysResponse is the body of GET /keys
type KeysResponse struct {
	PublicKey    string `json:"publicKey"`
	KMSPublicKey string `json:"kmsPublicKey,omitempty"`
	ChainID      string `json:"chainId"`
}

// InputsRequest registers the handles of an input proof for the allowed
// accounts
type InputsRequest struct {
	InputProof string   `json:"inputProof"`
	Allowed    []string `json:"allowed"`
}

type InputsResponse struct {
	Handles []string `json:"handles"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is returned when the gateway answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned %s", e.Status)
	}
	return fmt.Sprintf("gateway returned %s: %s", e.Status, e.Message)
}
