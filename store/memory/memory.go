/*
Package memory provides an in-memory key-value snapshot store.

PURPOSE:
  Implements ledger.KV with a plain map. Used in tests and for running
  the server without a database file. Contents vanish on process exit.

CONCURRENCY:
  A sync.RWMutex guards the map; safe for concurrent use.
*/
package memory

import (
	"context"
	"sync"

	"github.com/warp/hoa-ledger/ledger"
)

// KV is the in-memory implementation of ledger.KV.
type KV struct {
	mu   sync.RWMutex
	data map[string]string
}

// Compile-time interface check.
var _ ledger.KV = (*KV)(nil)

func New() *KV {
	return &KV{data: make(map[string]string)}
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = value
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, key)
	return nil
}
