package widget

import (
	"sync"

	"support-chat-backend/internal/dto"
)

// Transcript remembers which messages were already shown. A message can arrive both in a
// post response and as a room event, and is shown once whichever comes first.
type Transcript struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewTranscript() *Transcript {
	return &Transcript{seen: make(map[string]struct{})}
}

// Add reports whether msg has not been seen before.
func (t *Transcript) Add(msg dto.MessageResponse) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.MessageID == "" {
		return true
	}
	if _, ok := t.seen[msg.MessageID]; ok {
		return false
	}
	t.seen[msg.MessageID] = struct{}{}
	return true
}
