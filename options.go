// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"net/http"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/fhevm/engine"
	"github.com/luxfi/fhevm/engine/lattice"
	"github.com/luxfi/fhevm/gateway"
	"github.com/luxfi/fhevm/signer"
)

type options struct {
	runtime        engine.Runtime
	log            log.Logger
	httpClient     *http.Client
	gatewayTimeout time.Duration
	signer         signer.Signer
}

// Option configures the collaborators of an instance
type Option func(*options)

// WithRuntime selects the engine runtime. Runtimes are bootstrapped once
// per process, keyed by identity, so implementations must be comparable.
func WithRuntime(rt engine.Runtime) Option {
	return func(o *options) {
		o.runtime = rt
	}
}

func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithHTTPClient sets the client used for gateway requests
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithGatewayTimeout bounds every gateway round trip. Zero disables it.
func WithGatewayTimeout(d time.Duration) Option {
	return func(o *options) {
		o.gatewayTimeout = d
	}
}

// WithSigner sets the default signer of decrypt requests
func WithSigner(s signer.Signer) Option {
	return func(o *options) {
		o.signer = s
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		runtime:        lattice.Default(),
		log:            log.NewNoOpLogger(),
		httpClient:     http.DefaultClient,
		gatewayTimeout: gateway.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
