package router

import (
	"context"
	"sync"
)

// roomLocks serializes turns per room. Entries are reference counted and
// removed once no caller holds or waits on them.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[string]*roomLock
}

type roomLock struct {
	sem  chan struct{}
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[string]*roomLock)}
}

// Lock blocks until the room is free or ctx is done. The returned func
// releases the room.
func (l *roomLocks) Lock(ctx context.Context, room string) (func(), error) {
	l.mu.Lock()
	rl, ok := l.rooms[room]
	if !ok {
		rl = &roomLock{sem: make(chan struct{}, 1)}
		l.rooms[room] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(room, rl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-rl.sem
			l.release(room, rl)
		})
	}, nil
}

func (l *roomLocks) release(room string, rl *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.rooms, room)
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
