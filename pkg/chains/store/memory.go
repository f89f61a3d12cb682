// Package store provides ChainRepository implementations backed by an
// in-process map or a SQLite database.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/lumen-oss/chainflow/pkg/chains"
	"github.com/lumen-oss/chainflow/pkg/errors"
)

// MemoryRepository keeps chains in a mutex-guarded map. Writes to the same
// chain id serialize on the lock (last writer wins); reads hand out deep
// copies so callers never share mutable state with the store.
type MemoryRepository struct {
	mu     sync.RWMutex
	chains map[string]*chains.Chain
}

// NewMemoryRepository creates an empty in-memory chain store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		chains: make(map[string]*chains.Chain),
	}
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*chains.Chain, error) {
	if err := errors.CheckContext(ctx, "repository get"); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	chain, ok := r.chains[id]
	if !ok {
		return nil, errors.WithFields(chains.ErrChainNotFound, errors.Fields{"chain_id": id})
	}
	return chain.Clone(), nil
}

func (r *MemoryRepository) Put(ctx context.Context, chain *chains.Chain) error {
	if err := errors.CheckContext(ctx, "repository put"); err != nil {
		return err
	}
	if chain == nil || chain.ID == "" {
		return errors.New(errors.InvalidInput, "chain with a non-empty id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[chain.ID] = chain.Clone()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := errors.CheckContext(ctx, "repository delete"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chains[id]; !ok {
		return errors.WithFields(chains.ErrChainNotFound, errors.Fields{"chain_id": id})
	}
	delete(r.chains, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*chains.Chain, error) {
	if err := errors.CheckContext(ctx, "repository list"); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*chains.Chain, 0, len(r.chains))
	for _, chain := range r.chains {
		out = append(out, chain.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
