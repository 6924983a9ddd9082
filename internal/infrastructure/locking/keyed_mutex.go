// Package locking implementa el candado por producto que serializa las escrituras del libro.
package locking

import (
	"context"
	"sync"
)

// KeyedMutex candado en proceso por clave. Válido con una sola instancia del API;
// con varias réplicas usar RedisLocker.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{} // buffer 1: ocupado = lleno
	refs int
}

// NewKeyedMutex crea el candado.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: map[string]*slot{}}
}

// Lock espera el candado de key hasta que ctx expire. unlock es idempotente.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			m.release(key, s)
		})
	}, nil
}

// release descarta la entrada cuando nadie más la usa.
func (m *KeyedMutex) release(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

// Len número de claves con candado tomado o en espera.
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
