package app

import (
	"context"
	"sync"
)

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan Event, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(s.subs, id)
				}
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// publish fans events out; subscribers that cannot keep up are dropped.
func (s *Service) publish(id string, subs map[*subscriber]struct{}, events []Event) {
	if len(events) == 0 || len(subs) == 0 {
		return
	}
	var toDrop []*subscriber
	for sub := range subs {
		for _, ev := range events {
			ok := func() (sent bool) {
				// a concurrent unsubscribe may have closed the channel
				defer func() {
					if recover() != nil {
						sent = false
					}
				}()
				select {
				case sub.ch <- ev:
					return true
				default:
					return false
				}
			}()
			if !ok {
				sub.close()
				toDrop = append(toDrop, sub)
				break
			}
		}
	}
	if len(toDrop) > 0 {
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
		s.log.Warnw("dropped slow subscribers", "game", id, "count", len(toDrop))
	}
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
