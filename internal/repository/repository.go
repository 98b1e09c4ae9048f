package repository

import (
	"encoding/json"
	"errors"

	"dota-draft-helper/internal/live"
)

var ErrNotFound = errors.New("not found")

// Publisher receives a notification after every committed write.
type Publisher interface {
	Publish(c live.Change)
}

func idsJSON(ids []int64) string {
	if len(ids) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

func batches[T any](items []T, size int, fn func([]T) error) error {
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		if err := fn(items[i:end]); err != nil {
			return err
		}
	}
	return nil
}
