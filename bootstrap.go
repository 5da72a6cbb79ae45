// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"sync"

	"github.com/luxfi/log"

	"github.com/luxfi/fhevm/engine"
)

type bootstrapState struct {
	// token is held by the caller running or checking the bootstrap
	token chan struct{}
	done  bool
}

// bootstraps maps each runtime to its process-wide bootstrap state
var bootstraps sync.Map

// ensureEngineReady bootstraps rt at most once per process. A success is
// remembered; a failure is not, so the next caller retries. Concurrent
// callers wait for the attempt in flight until their context ends.
func ensureEngineReady(ctx context.Context, rt engine.Runtime, logger log.Logger) error {
	v, _ := bootstraps.LoadOrStore(rt, &bootstrapState{token: make(chan struct{}, 1)})
	state := v.(*bootstrapState)

	select {
	case state.token <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-state.token }()

	if state.done {
		return nil
	}
	if err := rt.Bootstrap(ctx); err != nil {
		logger.Warn("engine bootstrap failed", log.Err(err))
		return err
	}
	state.done = true
	logger.Info("engine bootstrapped")
	return nil
}
