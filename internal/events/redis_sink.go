package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Envelope is the wire format published to room channels. WS bridges
// forward it to clients verbatim.
type Envelope struct {
	Event     string    `json:"event"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emitted_at"`
}

// RedisSink fans events out over Redis pub/sub. Each room maps to one
// channel; PUBLISH's receiver count doubles as the delivery acknowledgement.
type RedisSink struct {
	rdb *redis.Client
	log *logrus.Logger
}

func NewRedisSink(rdb *redis.Client, log *logrus.Logger) *RedisSink {
	return &RedisSink{rdb: rdb, log: log}
}

// Channel returns the pub/sub channel backing a room.
func Channel(room string) string { return "room:" + room }

func (s *RedisSink) Publish(ctx context.Context, room, event string, payload any) (Receipt, error) {
	rcpt := Receipt{Room: room, Event: event, At: time.Now().UTC()}
	if room == "" || event == "" {
		s.log.Warn("events: missing room or event name, dropping")
		return rcpt, nil
	}

	b, err := json.Marshal(Envelope{Event: event, Payload: payload, EmittedAt: rcpt.At})
	if err != nil {
		return rcpt, err
	}

	n, err := s.rdb.Publish(ctx, Channel(room), b).Result()
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"room":  room,
			"event": event,
		}).Warn("events: publish failed")
		return rcpt, err
	}

	rcpt.Receivers = n
	entry := s.log.WithFields(logrus.Fields{
		"room":      room,
		"event":     event,
		"receivers": n,
	})
	if n == 0 {
		entry.Warn("events: no subscribers in room")
	} else {
		entry.Debug("events: delivered")
	}
	return rcpt, nil
}
