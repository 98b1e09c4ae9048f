// Package live fans out store change notifications to subscribers so that
// derived views can be recomputed when the underlying data moves.
package live

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Change names the players whose cached data was just written. An empty
// list means every player may have changed.
type Change struct {
	PlayerIDs []int64
}

type subscriber struct {
	players map[int64]bool // nil watches everything
	ch      chan struct{}
}

type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe returns a channel that receives a signal after every change that
// touches one of playerIDs. Signals coalesce: a slow reader sees one pending
// signal, never a backlog. The channel closes when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, playerIDs []int64) <-chan struct{} {
	sub := &subscriber{ch: make(chan struct{}, 1)}
	if len(playerIDs) > 0 {
		sub.players = make(map[int64]bool, len(playerIDs))
		for _, id := range playerIDs {
			sub.players[id] = true
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug().Int("watched_players", len(playerIDs)).Int("subscribers", count).Msg("change subscriber added")

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		close(sub.ch)
		h.mu.Unlock()
	}()

	return sub.ch
}

func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if !sub.matches(c) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (s *subscriber) matches(c Change) bool {
	if s.players == nil || len(c.PlayerIDs) == 0 {
		return true
	}
	for _, id := range c.PlayerIDs {
		if s.players[id] {
			return true
		}
	}
	return false
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
