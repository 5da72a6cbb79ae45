// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"
)

// ACL records which accounts may reencrypt each handle
type ACL struct {
	lock    sync.RWMutex
	allowed map[common.Hash]set.Set[common.Address]
}

func NewACL() *ACL {
	return &ACL{
		allowed: make(map[common.Hash]set.Set[common.Address]),
	}
}

// Allow grants accounts access to handle
func (a *ACL) Allow(handle common.Hash, accounts ...common.Address) {
	a.lock.Lock()
	defer a.lock.Unlock()

	s, ok := a.allowed[handle]
	if !ok {
		s = set.NewSet[common.Address](len(accounts))
		a.allowed[handle] = s
	}
	s.Add(accounts...)
}

func (a *ACL) IsAllowed(handle common.Hash, account common.Address) bool {
	a.lock.RLock()
	defer a.lock.RUnlock()

	return a.allowed[handle].Contains(account)
}
