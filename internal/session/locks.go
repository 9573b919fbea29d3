package session

import "sync"

// Locks hands out one mutex per chat so that updates of the same chat are
// processed one after another. Entries are dropped once nobody holds or
// waits for them.
type Locks struct {
	mu    sync.Mutex
	chats map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{chats: make(map[int64]*chatLock)}
}

// Lock blocks until the chat is free and returns the unlock function.
func (l *Locks) Lock(chatID int64) func() {
	l.mu.Lock()
	c, ok := l.chats[chatID]
	if !ok {
		c = &chatLock{}
		l.chats[chatID] = c
	}
	c.refs++
	l.mu.Unlock()

	c.mu.Lock()
	return func() {
		c.mu.Unlock()
		l.mu.Lock()
		c.refs--
		if c.refs == 0 {
			delete(l.chats, chatID)
		}
		l.mu.Unlock()
	}
}

func (l *Locks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chats)
}
