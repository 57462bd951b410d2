package service

import "sync"

// gameLocks serializes gameplay per game id. The engine is not safe for
// concurrent use, so every read-modify-write of a game session runs
// under its game's lock.
type gameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGameLocks() *gameLocks {
	return &gameLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// lock acquires the lock of one game and returns the matching unlock.
func (that *gameLocks) lock(gameID string) func() {
	that.mu.Lock()
	lock, ok := that.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[gameID] = lock
	}
	that.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// forget drops the lock of a game that no longer exists.
func (that *gameLocks) forget(gameID string) {
	that.mu.Lock()
	delete(that.locks, gameID)
	that.mu.Unlock()
}
