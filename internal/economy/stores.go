package economy

import "log/slog"

// Stores is the append-only arena of every store in the world, addressed by
// StoreID. Ids are never reused.
type Stores struct {
	list []*Store
}

// NewStores creates an empty arena.
func NewStores() *Stores {
	return &Stores{}
}

// Create appends a new store and returns its id.
func (s *Stores) Create(capacity Weight) StoreID {
	s.list = append(s.list, NewStore(capacity))
	return StoreID(len(s.list) - 1)
}

// Len returns the number of stores.
func (s *Stores) Len() int {
	return len(s.list)
}

// Valid reports whether id addresses a store.
func (s *Stores) Valid(id StoreID) bool {
	return id >= 0 && int(id) < len(s.list)
}

// Get returns the store for id, or nil if id is invalid.
func (s *Stores) Get(id StoreID) *Store {
	if !s.Valid(id) {
		return nil
	}
	return s.list[id]
}

// All returns the stores indexed by id. Callers must not append to it.
func (s *Stores) All() []*Store {
	return s.list
}

// Enqueue queues msg on store id. Messages to an invalid id are dropped and
// reported as false.
func (s *Stores) Enqueue(id StoreID, msg Message) bool {
	st := s.Get(id)
	if st == nil {
		if id != Nowhere {
			slog.Debug("dropping message to unknown store", "store", id, "msg", msg.String())
		}
		return false
	}
	st.Enqueue(msg)
	return true
}

// Drain applies store id's queue, writing replies to out.
func (s *Stores) Drain(id StoreID, out *Outbox) int {
	st := s.Get(id)
	if st == nil {
		return 0
	}
	return st.Drain(out)
}

// Deliver routes every envelope into its target queue, outbox by outbox in
// slice order, then send order within each outbox. The outboxes are reset.
// Returns the number of envelopes delivered and dropped.
func (s *Stores) Deliver(outboxes []Outbox) (delivered, dropped int) {
	for i := range outboxes {
		for _, env := range outboxes[i].envelopes {
			if s.Enqueue(env.To, env.Msg) {
				delivered++
			} else {
				dropped++
			}
		}
		outboxes[i].Reset()
	}
	return delivered, dropped
}
