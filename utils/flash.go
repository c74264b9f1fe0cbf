package utils

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	flashPrefix = "flash:"
	flashTTL    = 10 * time.Minute
)

// FlashMessage is a one-shot notice shown on the next rendered page.
type FlashMessage struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// NewFlashID returns a fresh id for a browser's flash queue.
func NewFlashID() string {
	return uuid.NewString()
}

// PushFlash appends msg to the queue of id.
func PushFlash(id string, msg FlashMessage) error {
	var queue []FlashMessage
	if raw, ok := kvGet(flashPrefix + id); ok {
		_ = json.Unmarshal([]byte(raw), &queue)
	}
	queue = append(queue, msg)
	b, err := json.Marshal(queue)
	if err != nil {
		return err
	}
	return kvSet(flashPrefix+id, string(b), flashTTL)
}

// PopFlashes returns and clears the queue of id.
func PopFlashes(id string) []FlashMessage {
	if id == "" {
		return nil
	}
	raw, ok := kvTake(flashPrefix + id)
	if !ok {
		return nil
	}
	var queue []FlashMessage
	if err := json.Unmarshal([]byte(raw), &queue); err != nil {
		Sugar.Warnw("discarding unreadable flash queue", "id", id, "error", err)
		return nil
	}
	return queue
}
