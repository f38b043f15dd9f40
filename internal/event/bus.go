// Package event implements the change-notification bus that the store and
// registry publish on and presentation surfaces subscribe to.
//
// Delivery is synchronous and in registration order: Publish returns only
// after every subscriber has run. Mutations publish after their persistence
// call completes, so a subscriber always observes on-disk state that is at
// least as new as the event it is handling.
package event

import "sync"

// Event types published by the core.
const (
	NotesChanged       = "notes.changed"
	FilteredChanged    = "filtered.changed"
	CollectionsChanged = "collections.changed"
	CollectionSwitched = "collection.switched"
	SaveSuccess        = "save.success"
	SaveError          = "save.error"
	LoadError          = "load.error"
	ListChanged        = "list.changed"
)

// Event is a single notification. Data is nil, a message string, or a
// ListChange depending on Type.
type Event struct {
	Type string
	Data any
}

// ListOp identifies the kind of incremental list mutation.
type ListOp string

const (
	ListInsert ListOp = "insert"
	ListRemove ListOp = "remove"
	ListUpdate ListOp = "update"
	ListReset  ListOp = "reset"
)

// ListChange describes an incremental mutation of the filtered view, enough
// for a list binding to update without a full rebuild. Fields names the
// changed fields for ListUpdate; Index is -1 for ListReset.
type ListChange struct {
	Op     ListOp
	Index  int
	Fields []string
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.Mutex
	nextID int
	order  []int
	subs   map[int]func(Event)
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (b *Bus) Subscribe(fn func(Event)) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return -1
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	b.order = append(b.order, id)
	return id
}

// Unsubscribe removes a subscriber. Unknown tokens are ignored.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[id]; !ok {
		return
	}
	delete(b.subs, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Publish delivers ev to every subscriber in registration order. Handlers
// run outside the bus lock so they may publish or subscribe themselves.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		if fn, ok := b.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// PublishList is shorthand for publishing a ListChanged event.
func (b *Bus) PublishList(op ListOp, index int, fields ...string) {
	b.Publish(Event{Type: ListChanged, Data: ListChange{Op: op, Index: index, Fields: fields}})
}

// Close drops all subscribers; further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = map[int]func(Event){}
	b.order = nil
}
