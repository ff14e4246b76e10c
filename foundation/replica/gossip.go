package replica

// gossip runs one tick of the gossip schedule on the run goroutine. It
// shares the peer directory with every peer connection and retries any
// known peer that has no live connection. Retries have no backoff and no
// attempt cap, a dead peer is dialed every tick until the process ends.
func (r *Replica) gossip() {
	r.evHandler("replica: gossip: started: peers[%d] conns[%d]", r.directory.Count(), r.registry.count())
	defer r.evHandler("replica: gossip: completed")

	r.broadcastPeers()

	for _, url := range r.directory.URLs() {
		if r.registry.hasPeer(url) {
			continue
		}

		r.connect(url)
	}
}
