// Package board keeps the message-board model: rows fetched over REST plus
// live new_message pushes, projected into a reply-threaded view.
package board

import (
	"sync"
	"time"
)

// Message is one board post. Replies is populated only by Threaded.
type Message struct {
	ID        int
	Title     string
	Content   string
	Username  string
	Timestamp time.Time
	ReplyTo   *int
	Likes     int
	Replies   []Message
}

// Board holds the flat message list, newest first.
type Board struct {
	mu   sync.Mutex
	msgs []Message
}

// New creates an empty board.
func New() *Board {
	return &Board{}
}

// Replace swaps in a freshly fetched message list.
func (b *Board) Replace(msgs []Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append([]Message(nil), msgs...)
}

// Fold prepends one pushed message.
func (b *Board) Fold(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append([]Message{msg}, b.msgs...)
}

// Len reports the number of posts, replies included.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

// Threaded projects the flat list into top-level posts with their replies
// attached, preserving newest-first order at the top level.
func (b *Board) Threaded() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	replies := make(map[int][]Message)
	for _, m := range b.msgs {
		if m.ReplyTo != nil {
			replies[*m.ReplyTo] = append(replies[*m.ReplyTo], m)
		}
	}

	var top []Message
	for _, m := range b.msgs {
		if m.ReplyTo != nil {
			continue
		}
		m.Replies = append([]Message(nil), replies[m.ID]...)
		top = append(top, m)
	}
	return top
}
