package snapshot

import "sync"

type subCh = chan string // carries new ETags

// hub fan-outs snapshot change notifications to subscribers.
type hub struct {
	mu   sync.Mutex
	subs map[subCh]struct{}
}

func (h *hub) subscribe() (subCh, func()) {
	ch := make(subCh, 1)
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[subCh]struct{})
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	unsub := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}
	return ch, unsub
}

// publish notifies all listeners without blocking on slow ones.
func (h *hub) publish(etag string) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- etag:
		default: // slow client, skip
		}
	}
	h.mu.Unlock()
}
