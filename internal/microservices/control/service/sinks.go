package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"robot-pick-system/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table, contentType string, persistent bool) error
}

// AMQPSink publishes every snapshot to a fanout exchange so other services
// can follow the robot without holding a WebSocket open.
type AMQPSink struct {
	pub      publisher
	exchange string
	source   string
}

func NewAMQPSink(pub publisher, exchange, source string) *AMQPSink {
	return &AMQPSink{pub: pub, exchange: exchange, source: source}
}

func (s *AMQPSink) ID() string { return "amqp:" + s.exchange }

func (s *AMQPSink) Send(ctx context.Context, snap domain.Snapshot) error {
	body, err := json.Marshal(domain.StatusMessage{Source: s.source, Snapshot: snap, Published: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal status message: %w", err)
	}
	headers := amqp.Table{
		"x-source":       s.source,
		"x-robot-status": string(snap.RobotStatus),
		"x-version":      int64(snap.Version),
	}
	return s.pub.Publish(ctx, s.exchange, "", body, headers, "application/json", false)
}

type redisWriter interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink mirrors the latest snapshot under a key and announces it on a
// pub/sub channel.
type RedisSink struct {
	rdb     redisWriter
	key     string
	channel string
	ttl     time.Duration
}

func NewRedisSink(rdb redisWriter, key, channel string, ttl time.Duration) *RedisSink {
	return &RedisSink{rdb: rdb, key: key, channel: channel, ttl: ttl}
}

func (s *RedisSink) ID() string { return "redis:" + s.key }

func (s *RedisSink) Send(ctx context.Context, snap domain.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, body, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", s.key, err)
	}
	if s.channel == "" {
		return nil
	}
	if err := s.rdb.Publish(ctx, s.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", s.channel, err)
	}
	return nil
}
