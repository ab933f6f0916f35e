// Package bus implements the fan-out broadcast queue of ClientCommand
// events (§4.4). It is grounded on the broadcast-to-many-clients shape
// of the teacher's StreamService (internal/service/stream_service.go):
// a registry of per-consumer channels guarded by a mutex. Unlike the
// teacher's bounded per-client channel (which drops under load), §4.4
// requires a slow consumer to only ever slow itself, never other
// consumers or the producer — so each consumer here is backed by an
// unbounded in-memory queue fed by its own forwarding goroutine.
package bus

import (
	"container/list"
	"net"
	"sync"

	"github.com/nsvirk/moneyquotes/internal/quotes"
)

// commandKind tags a ClientCommand's variant.
type commandKind int

const (
	kindSend commandKind = iota
	kindStop
)

// ClientCommand is the tagged union flowing through the bus: either
// Send(quote) from the generator or Stop(addr) from the monitor.
type ClientCommand struct {
	kind  commandKind
	Quote quotes.StockQuote
	Addr  *net.UDPAddr
}

// Send constructs a ClientCommand carrying an updated quote.
func Send(q quotes.StockQuote) ClientCommand {
	return ClientCommand{kind: kindSend, Quote: q}
}

// Stop constructs a ClientCommand instructing the worker for addr to
// terminate.
func Stop(addr *net.UDPAddr) ClientCommand {
	return ClientCommand{kind: kindStop, Addr: addr}
}

// IsSend reports whether this command is a Send variant.
func (c ClientCommand) IsSend() bool { return c.kind == kindSend }

// IsStop reports whether this command is a Stop variant.
func (c ClientCommand) IsStop() bool { return c.kind == kindStop }

// Bus is a multi-producer, multi-consumer broadcast queue. Every live
// subscriber worker holds one independent Consumer; every event
// submitted to the bus is delivered to every consumer that was
// registered at submission time, exactly once, in submission order.
type Bus struct {
	mu        sync.RWMutex
	consumers map[int64]*Consumer
	nextID    int64
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{consumers: make(map[int64]*Consumer)}
}

// Consumer is one subscriber worker's read-only view of the bus,
// backed by an unbounded queue so a slow reader never applies
// backpressure to the publisher or to any other consumer.
type Consumer struct {
	id  int64
	bus *Bus

	mu     sync.Mutex
	cond   *sync.Cond
	queue  *list.List
	out    chan ClientCommand
	closed bool
}

// Subscribe registers a new consumer and returns its view. The caller
// must call Close when done to release the slot and stop its
// forwarding goroutine.
func (b *Bus) Subscribe() *Consumer {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	c := &Consumer{
		id:    id,
		bus:   b,
		queue: list.New(),
		out:   make(chan ClientCommand),
	}
	c.cond = sync.NewCond(&c.mu)
	b.consumers[id] = c
	go c.forward()
	return c
}

// push appends cmd to the consumer's unbounded queue; never blocks.
func (c *Consumer) push(cmd ClientCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.queue.PushBack(cmd)
	c.cond.Signal()
}

// forward drains the queue into the bounded handoff channel one item
// at a time, so Recv() callers can use a normal channel receive/select
// while the queue behind it stays unbounded.
func (c *Consumer) forward() {
	for {
		c.mu.Lock()
		for c.queue.Len() == 0 && !c.closed {
			c.cond.Wait()
		}
		if c.queue.Len() == 0 && c.closed {
			c.mu.Unlock()
			close(c.out)
			return
		}
		front := c.queue.Front()
		c.queue.Remove(front)
		c.mu.Unlock()

		c.out <- front.Value.(ClientCommand)
	}
}

// Recv returns the channel a worker should select/range over.
func (c *Consumer) Recv() <-chan ClientCommand {
	return c.out
}

// Close removes the consumer from the bus and stops its forwarding
// goroutine. Dropping a consumer never affects any other consumer.
func (c *Consumer) Close() {
	c.bus.mu.Lock()
	delete(c.bus.consumers, c.id)
	c.bus.mu.Unlock()

	c.mu.Lock()
	c.closed = true
	c.queue.Init()
	c.cond.Signal()
	c.mu.Unlock()

	// Take any item forward is still handing off, so it can reach the
	// empty queue and exit even when the reader has already stopped.
	go func() {
		for range c.out {
		}
	}()
}

// Publish delivers cmd to every consumer currently registered, in the
// order Publish was called relative to every other Publish call. It
// never blocks on a slow consumer.
func (b *Bus) Publish(cmd ClientCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.consumers {
		c.push(cmd)
	}
}

// Len reports the number of live consumers, used by tests.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.consumers)
}
