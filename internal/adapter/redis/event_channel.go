package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventsChannel carries live events for out-of-process observers such as
// bridgectl's watch command.
const EventsChannel = "themebridge:events"

const publishTimeout = 2 * time.Second

// EventChannel mirrors live events onto a Redis pub/sub channel.
type EventChannel struct {
	rdb *goredis.Client
}

func NewEventChannel(rdb *goredis.Client) *EventChannel {
	return &EventChannel{rdb: rdb}
}

type eventMessage struct {
	Name  string `json:"name"`
	Event any    `json:"event"`
}

// Publish encodes payload, which must already be a wire value.
func (c *EventChannel) Publish(name string, payload any) error {
	data, err := json.Marshal(eventMessage{Name: name, Event: payload})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := c.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", name, err)
	}
	return nil
}
