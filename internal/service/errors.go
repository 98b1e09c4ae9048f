package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrSyncInProgress = errors.New("a sync is already running")

type PlayerNotFoundError struct {
	PlayerID int64
}

func (e *PlayerNotFoundError) Error() string {
	return fmt.Sprintf("player %d not found", e.PlayerID)
}

// ValidationError lists every rejected field with its reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = reason
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
