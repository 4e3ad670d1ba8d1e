package economy

import "math"

// Store is a capacity-bounded holder of items with an inbound message queue.
// Item counts change only through the local operations below, which Drain
// calls while applying queued messages. The total weight never exceeds the
// capacity after any of them.
type Store struct {
	items    [NumItems]uint32
	capacity Weight
	queue    []Message
}

// NewStore creates an empty store holding at most capacity.
func NewStore(capacity Weight) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{capacity: capacity}
}

// Count returns the held quantity of item (zero for unknown items).
func (s *Store) Count(item Item) uint32 {
	if int(item) >= NumItems {
		return 0
	}
	return s.items[item]
}

// Counts returns a copy of every held quantity indexed by Item.
func (s *Store) Counts() [NumItems]uint32 {
	return s.items
}

// Capacity returns the maximum total weight.
func (s *Store) Capacity() Weight {
	return s.capacity
}

// Weight returns the sum of quantity × unit weight over held items.
func (s *Store) Weight() Weight {
	var w Weight
	for i, qty := range s.items {
		w += Weight(qty) * Item(i).Weight()
	}
	return w
}

// Room returns how many more units of item fit.
func (s *Store) Room(item Item) uint32 {
	if int(item) >= NumItems {
		return 0
	}
	unit := item.Weight()
	free := s.capacity - s.Weight()
	if free <= 0 {
		return 0
	}
	if unit == 0 {
		return math.MaxUint32 - s.items[item]
	}
	room := free / unit
	if room > Weight(math.MaxUint32-s.items[item]) {
		return math.MaxUint32 - s.items[item]
	}
	return uint32(room)
}

// GiveUpTo adds as much of qty as fits and returns the amount added.
func (s *Store) GiveUpTo(item Item, qty uint32) uint32 {
	given := min(qty, s.Room(item))
	if given > 0 {
		s.items[item] += given
	}
	return given
}

// GiveExact adds all of qty or nothing.
func (s *Store) GiveExact(item Item, qty uint32) bool {
	if qty > s.Room(item) {
		return false
	}
	if qty > 0 {
		s.items[item] += qty
	}
	return true
}

// TakeUpTo removes up to qty and returns the amount removed.
func (s *Store) TakeUpTo(item Item, qty uint32) uint32 {
	taken := min(qty, s.Count(item))
	if taken > 0 {
		s.items[item] -= taken
	}
	return taken
}

// TakeExact removes all of qty or nothing.
func (s *Store) TakeExact(item Item, qty uint32) bool {
	if qty > s.Count(item) {
		return false
	}
	if qty > 0 {
		s.items[item] -= qty
	}
	return true
}

// Enqueue appends msg to the store's inbound queue. Not safe for concurrent
// use; parallel phases send through an Outbox instead.
func (s *Store) Enqueue(msg Message) {
	s.queue = append(s.queue, msg)
}

// Pending returns the number of queued, unapplied messages.
func (s *Store) Pending() int {
	return len(s.queue)
}

// Drain applies every queued message once, in arrival order, and returns how
// many were applied. Replies go to out, so they land in their targets' queues
// only after the caller delivers out, never during this drain.
func (s *Store) Drain(out *Outbox) int {
	msgs := s.queue
	s.queue = nil
	for _, msg := range msgs {
		s.apply(msg, out)
	}
	return len(msgs)
}

func (s *Store) apply(msg Message, out *Outbox) {
	switch msg.Kind {
	case KindGive:
		given := s.GiveUpTo(msg.Item, msg.Qty)
		if rest := msg.Qty - given; rest > 0 {
			out.Send(msg.ReplyTo, GiveOrDrop(msg.Item, rest))
		}

	case KindGiveOrDrop:
		s.GiveUpTo(msg.Item, msg.Qty)

	case KindTrade:
		if !s.TakeExact(msg.Want, msg.WantQty) {
			out.Send(msg.ReplyTo, GiveOrDrop(msg.Item, msg.Qty))
			return
		}
		if !s.GiveExact(msg.Item, msg.Qty) {
			// Roll back: the withdrawn goods always fit again.
			s.GiveUpTo(msg.Want, msg.WantQty)
			out.Send(msg.ReplyTo, GiveOrDrop(msg.Item, msg.Qty))
			return
		}
		out.Send(msg.ReplyTo, GiveOrDrop(msg.Want, msg.WantQty))

	case KindTake:
		taken := s.TakeUpTo(msg.Item, msg.Qty)
		out.Send(msg.ReplyTo, GiveOrDrop(msg.Item, taken))

	case KindRemove:
		s.TakeUpTo(msg.Item, msg.Qty)
	}
}
