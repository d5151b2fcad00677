package blockchain

import "sync"

// nonceCounter hands out account nonces for the single minter key. The lock
// guards the counter only; the pending nonce is fetched outside it.
type nonceCounter struct {
	mu     sync.Mutex
	next   uint64
	seeded bool
}

// take returns the next nonce, or false when the counter needs seeding.
func (n *nonceCounter) take() (uint64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.seeded {
		return 0, false
	}
	v := n.next
	n.next++
	return v, true
}

// seedAndTake seeds the counter from the network's pending nonce unless a
// concurrent caller already did, then takes the next nonce.
func (n *nonceCounter) seedAndTake(pending uint64) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.seeded {
		n.next = pending
		n.seeded = true
	}
	v := n.next
	n.next++
	return v
}

// reset forces the next caller to reseed from the network.
func (n *nonceCounter) reset() {
	n.mu.Lock()
	n.seeded = false
	n.mu.Unlock()
}
