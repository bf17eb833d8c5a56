package board

// watcher is one pending Watch registration. Its channel is buffered so
// a delivery never blocks on a caller that has not started reading yet,
// and it is written exactly once.
type watcher struct {
	playerID string
	ch       chan string
}

// delivery is a snapshot prepared for one watcher while the monitor's
// lock was held. Deliveries are sent after the lock is released so a
// receiver can immediately call back into the monitor.
type delivery struct {
	ch       chan string
	snapshot string
}

// changeNotifier wakes everything waiting on the next committed board
// mutation: Watch registrations and parked contested-card claimants.
// It is owned by the Monitor and must only be touched with the
// Monitor's lock held.
type changeNotifier struct {
	pending []*watcher
	// gen is closed and replaced on every committed change. Contested
	// card claimants park on the generation that was current when they
	// last observed the card.
	gen chan struct{}
}

func newChangeNotifier() *changeNotifier {
	return &changeNotifier{
		gen: make(chan struct{}),
	}
}

// register adds a pending watcher for the next change round.
func (n *changeNotifier) register(playerID string) *watcher {
	w := &watcher{
		playerID: playerID,
		ch:       make(chan string, 1),
	}
	n.pending = append(n.pending, w)
	return w
}

// generation returns the channel that the next committed change will
// close.
func (n *changeNotifier) generation() <-chan struct{} {
	return n.gen
}

// swap takes the entire pending watcher set and starts a new round.
// Watchers registered after swap returns wait for the next change
// rather than being resolved by the current one.
func (n *changeNotifier) swap() []*watcher {
	taken := n.pending
	n.pending = nil
	close(n.gen)
	n.gen = make(chan struct{})
	return taken
}
