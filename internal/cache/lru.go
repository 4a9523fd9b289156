package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTTL bounds entry lifetime when NewLRU gets no positive ttl.
const DefaultTTL = 10 * time.Minute

// LRU is an in-process Store bounded by entry count and age.
type LRU struct {
	lru *expirable.LRU[string, []byte]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = 512
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRU{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (l *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.lru.Get(key)
	return v, ok, nil
}

func (l *LRU) Set(_ context.Context, key string, val []byte) error {
	l.lru.Add(key, val)
	return nil
}

func (l *LRU) Len() int { return l.lru.Len() }

func (l *LRU) Close() error {
	l.lru.Purge()
	return nil
}
