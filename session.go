// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"sync"

	"github.com/luxfi/log"

	"github.com/luxfi/fhevm/signer"
)

type Status uint8

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of a session
type State struct {
	Status  Status
	Ready   bool
	Loading bool
	Err     error
}

// Session owns the lifecycle of one instance and gates every operation on
// its readiness. Initialization attempts are numbered; only the latest
// attempt may commit its outcome.
type Session struct {
	cfg     Config
	opts    []Option
	log     log.Logger
	permits *PermitCache

	lock       sync.Mutex
	generation uint64
	status     Status
	instance   *Instance
	err        error
	cancel     context.CancelFunc
	// changed is closed and replaced on every status transition
	changed chan struct{}
}

func NewSession(cfg Config, opts ...Option) *Session {
	return &Session{
		cfg:     cfg,
		opts:    opts,
		log:     newOptions(opts).log,
		permits: NewPermitCache(DefaultPermitTTL),
		changed: make(chan struct{}),
	}
}

// Init creates the instance unless the session is already ready or loading.
// A session in the error state reports its error until Reinitialize.
func (s *Session) Init(ctx context.Context) error {
	s.lock.Lock()
	switch s.status {
	case StatusReady, StatusLoading:
		s.lock.Unlock()
		return nil
	case StatusError:
		err := s.err
		s.lock.Unlock()
		return err
	}
	ctx, gen := s.startLocked(ctx)
	s.lock.Unlock()

	return s.run(ctx, gen)
}

// Reinitialize discards the current instance and starts a new attempt. An
// attempt still in flight is canceled and its outcome is dropped.
func (s *Session) Reinitialize(ctx context.Context) error {
	s.lock.Lock()
	ctx, gen := s.startLocked(ctx)
	s.lock.Unlock()

	return s.run(ctx, gen)
}

func (s *Session) startLocked(ctx context.Context) (context.Context, uint64) {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.generation++
	s.status = StatusLoading
	s.instance = nil
	s.err = nil
	s.notifyLocked()
	return ctx, s.generation
}

func (s *Session) run(ctx context.Context, gen uint64) error {
	inst, err := CreateInstance(ctx, s.cfg, s.opts...)

	s.lock.Lock()
	defer s.lock.Unlock()

	if gen != s.generation {
		s.log.Debug("discarding superseded initialization")
		return ErrSuperseded
	}
	s.cancel()
	s.cancel = nil
	if err != nil {
		s.status = StatusError
		s.err = err
		s.log.Error("fhevm initialization failed", log.Err(err))
	} else {
		s.status = StatusReady
		s.instance = inst
	}
	s.notifyLocked()
	return err
}

func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()

	return State{
		Status:  s.status,
		Ready:   s.status == StatusReady,
		Loading: s.status == StatusLoading,
		Err:     s.err,
	}
}

// Instance returns the ready instance or ErrNotReady
func (s *Session) Instance() (*Instance, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.status != StatusReady {
		return nil, ErrNotReady
	}
	return s.instance, nil
}

// WaitReady blocks until the latest attempt completes. It fails with
// ErrNotReady if no attempt was ever started.
func (s *Session) WaitReady(ctx context.Context) (*Instance, error) {
	for {
		s.lock.Lock()
		status, inst, err, changed := s.status, s.instance, s.err, s.changed
		s.lock.Unlock()

		switch status {
		case StatusReady:
			return inst, nil
		case StatusError:
			return nil, err
		case StatusUninitialized:
			return nil, ErrNotReady
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Session) Encrypt(ctx context.Context, value any, t EncryptionType) (*EncryptedValue, error) {
	inst, err := s.Instance()
	if err != nil {
		return nil, err
	}
	return EncryptValue(ctx, inst, value, t)
}

func (s *Session) EncryptBatch(ctx context.Context, inputs []EncryptInput) ([]*EncryptedValue, error) {
	inst, err := s.Instance()
	if err != nil {
		return nil, err
	}
	return EncryptBatch(ctx, inst, inputs)
}

func (s *Session) Decrypt(ctx context.Context, handle any, opts DecryptOptions) (*DecryptResult, error) {
	inst, err := s.Instance()
	if err != nil {
		return nil, err
	}
	return DecryptValue(ctx, inst, handle, opts)
}

func (s *Session) DecryptBatch(ctx context.Context, handles []any, opts DecryptOptions) ([]*DecryptResult, error) {
	inst, err := s.Instance()
	if err != nil {
		return nil, err
	}
	return DecryptBatch(ctx, inst, handles, opts)
}

// CreatePermit returns a reencryption permit, reusing a cached one for the
// same contract and user
func (s *Session) CreatePermit(ctx context.Context, contract, user string, sgnr signer.Signer) (*AuthorizationSignature, error) {
	inst, err := s.Instance()
	if err != nil {
		return nil, err
	}
	return s.permits.Get(ctx, inst, contract, user, sgnr)
}
