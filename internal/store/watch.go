package store

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Notification reports a write to a watched key made by a different
// execution context. Value is the new raw blob, nil when the key was
// removed.
type Notification struct {
	Key   string
	Value []byte
}

type changeEnvelope struct {
	Origin string          `json:"origin"`
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// Watch subscribes to change notifications for the given keys. Writes
// made through this Store handle are filtered out. The returned channel
// closes when ctx is cancelled.
func (s *Store) Watch(ctx context.Context, keys ...string) <-chan Notification {
	watched := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		watched[k] = struct{}{}
	}

	sub := s.client.Subscribe(ctx, changeChannel)
	out := make(chan Notification, 16)

	go func() {
		defer close(out)
		defer func() {
			if err := sub.Close(); err != nil {
				s.logger.Warn("close subscription", slog.Any("error", err))
			}
		}()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var env changeEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					s.logger.Warn("malformed change envelope", slog.Any("error", err))
					continue
				}
				if env.Origin == s.origin {
					continue
				}
				if _, ok := watched[env.Key]; !ok {
					continue
				}
				select {
				case out <- Notification{Key: env.Key, Value: env.Value}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
