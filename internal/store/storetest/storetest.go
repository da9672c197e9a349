// Package storetest provides store backends for tests.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/victornm/quizkeep/internal/store"
)

// ErrInjected is returned by a Faulty backend for the operations switched to fail.
var ErrInjected = errors.New("storetest: injected failure")

// Faulty is an in-memory backend whose reads and writes can be switched to fail.
type Faulty struct {
	*store.Memory

	mu         sync.Mutex
	failLoad   bool
	failSave   bool
	failDelete bool
}

func NewFaulty() *Faulty {
	return &Faulty{Memory: store.NewMemory()}
}

func (f *Faulty) FailLoad(v bool)   { f.set(&f.failLoad, v) }
func (f *Faulty) FailSave(v bool)   { f.set(&f.failSave, v) }
func (f *Faulty) FailDelete(v bool) { f.set(&f.failDelete, v) }

func (f *Faulty) set(p *bool, v bool) {
	f.mu.Lock()
	*p = v
	f.mu.Unlock()
}

func (f *Faulty) is(p *bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *p
}

func (f *Faulty) Load(ctx context.Context, key string) ([]byte, error) {
	if f.is(&f.failLoad) {
		return nil, ErrInjected
	}
	return f.Memory.Load(ctx, key)
}

func (f *Faulty) Save(ctx context.Context, key string, value []byte) error {
	if f.is(&f.failSave) {
		return ErrInjected
	}
	return f.Memory.Save(ctx, key, value)
}

func (f *Faulty) Delete(ctx context.Context, key string) error {
	if f.is(&f.failDelete) {
		return ErrInjected
	}
	return f.Memory.Delete(ctx, key)
}
