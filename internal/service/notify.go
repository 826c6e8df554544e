package service

import "sync"

// ChangeNotifier fans out "entries changed" signals to subscribers so views
// holding derived totals know to reload.
type ChangeNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// OnChanged registers fn and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (n *ChangeNotifier) OnChanged(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = map[int]func(){}
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// NotifyChanged calls every subscriber outside the lock, so a subscriber may
// unsubscribe itself.
func (n *ChangeNotifier) NotifyChanged() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
