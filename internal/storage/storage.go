package storage

import (
	"context"
	"strings"
)

// Archive persists raw webhook payloads outside the database for audits and
// replay investigations. The database keeps the authoritative copy; archive
// writes are best-effort and never fail a delivery.
type Archive interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Key builds the archive object key for one delivery. Gateway and event ids
// come from the wire, so anything that could act as a path separator is
// squashed.
func Key(gateway, eventID string) string {
	return sanitize(gateway) + "/" + sanitize(eventID) + ".json"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
