/*
notify.go - Coalescing change notifier

PURPOSE:
  Mutations arrive in bursts (a bulk import, a transfer's two legs, a
  generation run). Subscribers want "something changed, re-render", not
  one ping per event. The notifier debounces: a burst quieter than the
  debounce window produces exactly one notification after the window
  closes.

OWNERSHIP:
  A single consumer goroutine owns the timer. Producers only do a
  non-blocking send on a 1-buffered channel, so Ping never blocks the
  mutation path and timer state never needs a lock.
*/
package ledger

import (
	"sync"
	"time"
)

// Notifier coalesces change pings into debounced notifications.
type Notifier struct {
	debounce time.Duration

	kick chan struct{}
	stop chan struct{}
	done chan struct{}

	mu   sync.Mutex
	subs []chan struct{}
}

// NewNotifier starts the consumer goroutine. Close releases it.
func NewNotifier(debounce time.Duration) *Notifier {
	n := &Notifier{
		debounce: debounce,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go n.run()
	return n
}

// Subscribe returns a 1-buffered channel receiving coalesced
// notifications. A slow subscriber misses intermediate pings, never
// blocks the notifier.
func (n *Notifier) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()
	return ch
}

// Ping records that something changed. Non-blocking; bursts coalesce.
func (n *Notifier) Ping() {
	select {
	case n.kick <- struct{}{}:
	default:
	}
}

// Close stops the consumer goroutine. A pending debounce window is
// flushed so the last burst is not lost.
func (n *Notifier) Close() {
	close(n.stop)
	<-n.done
}

func (n *Notifier) run() {
	defer close(n.done)

	timer := time.NewTimer(n.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-n.kick:
			// Restart the window: the burst is still going.
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(n.debounce)
			pending = true

		case <-timer.C:
			pending = false
			n.deliver()

		case <-n.stop:
			if pending {
				if !timer.Stop() {
					<-timer.C
				}
				n.deliver()
			}
			return
		}
	}
}

func (n *Notifier) deliver() {
	n.mu.Lock()
	subs := make([]chan struct{}, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
