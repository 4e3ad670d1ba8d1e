package economy

import "fmt"

// StoreID addresses a store in the Stores arena.
type StoreID int

// Nowhere is a reply address that is never delivered. Messages sent to it are
// dropped, which is how one-sided transfers discard their reply leg.
const Nowhere StoreID = -1

// MessageKind tags the variant of a Message.
type MessageKind uint8

const (
	// KindGive adds what fits and returns the remainder to ReplyTo.
	KindGive MessageKind = iota
	// KindGiveOrDrop adds what fits and drops the rest.
	KindGiveOrDrop
	// KindTrade swaps Item/Qty in for Want/WantQty out, all or nothing.
	KindTrade
	// KindTake removes up to Qty and always reports the amount to ReplyTo.
	KindTake
	// KindRemove removes up to Qty with no reply.
	KindRemove
)

// Message is a transfer request queued on a store. Only the fields used by
// Kind are meaningful; build messages with the constructors below.
type Message struct {
	Kind    MessageKind `json:"kind"`
	Item    Item        `json:"item"`
	Qty     uint32      `json:"qty"`
	Want    Item        `json:"want,omitempty"`
	WantQty uint32      `json:"want_qty,omitempty"`
	ReplyTo StoreID     `json:"reply_to"`
}

// Give offers qty of item; the store returns what does not fit to replyTo.
func Give(item Item, qty uint32, replyTo StoreID) Message {
	return Message{Kind: KindGive, Item: item, Qty: qty, ReplyTo: replyTo}
}

// GiveOrDrop adds up to qty of item; the excess is lost.
func GiveOrDrop(item Item, qty uint32) Message {
	return Message{Kind: KindGiveOrDrop, Item: item, Qty: qty, ReplyTo: Nowhere}
}

// Trade offers giveQty of give in exchange for wantQty of want. On success the
// wanted items go to replyTo; on failure the offer is returned there.
func Trade(give Item, giveQty uint32, want Item, wantQty uint32, replyTo StoreID) Message {
	return Message{Kind: KindTrade, Item: give, Qty: giveQty, Want: want, WantQty: wantQty, ReplyTo: replyTo}
}

// Take withdraws up to qty of item and sends whatever was withdrawn to replyTo.
func Take(item Item, qty uint32, replyTo StoreID) Message {
	return Message{Kind: KindTake, Item: item, Qty: qty, ReplyTo: replyTo}
}

// Remove destroys up to qty of item.
func Remove(item Item, qty uint32) Message {
	return Message{Kind: KindRemove, Item: item, Qty: qty, ReplyTo: Nowhere}
}

func (m Message) String() string {
	switch m.Kind {
	case KindGive:
		return fmt.Sprintf("Give(%s, %d, %d)", m.Item, m.Qty, m.ReplyTo)
	case KindGiveOrDrop:
		return fmt.Sprintf("GiveOrDrop(%s, %d)", m.Item, m.Qty)
	case KindTrade:
		return fmt.Sprintf("Trade((%s, %d), (%s, %d), %d)", m.Item, m.Qty, m.Want, m.WantQty, m.ReplyTo)
	case KindTake:
		return fmt.Sprintf("Take(%s, %d, %d)", m.Item, m.Qty, m.ReplyTo)
	case KindRemove:
		return fmt.Sprintf("Remove(%s, %d)", m.Item, m.Qty)
	default:
		return fmt.Sprintf("Message(kind=%d)", m.Kind)
	}
}

// Envelope is a message addressed to a store.
type Envelope struct {
	To  StoreID `json:"to"`
	Msg Message `json:"msg"`
}

// Outbox collects messages sent by one task during a parallel phase. Each task
// owns its outbox exclusively; the scheduler delivers all outboxes after the
// phase barrier.
type Outbox struct {
	envelopes []Envelope
}

// Send queues msg for store to.
func (o *Outbox) Send(to StoreID, msg Message) {
	o.envelopes = append(o.envelopes, Envelope{To: to, Msg: msg})
}

// Len returns the number of pending envelopes.
func (o *Outbox) Len() int {
	return len(o.envelopes)
}

// Envelopes returns the pending envelopes in send order.
func (o *Outbox) Envelopes() []Envelope {
	return o.envelopes
}

// Reset empties the outbox, keeping its backing array.
func (o *Outbox) Reset() {
	o.envelopes = o.envelopes[:0]
}
