// Package redisstreams 将变更事件写入 Redis Streams（每种消息类型一个 stream）。
package redisstreams

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"gocrud/logging"
	"gocrud/messaging"
)

// client captures the subset of go-redis commands we rely on (for easier testing).
type client interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XRevRangeN(ctx context.Context, stream, start, stop string, count int64) *redis.XMessageSliceCmd
	Close() error
}

// Config describes how the Redis Streams publisher should connect/behave.
type Config struct {
	Client       redis.UniversalClient
	Addr         string
	Username     string
	Password     string
	DB           int
	StreamPrefix string
	// MaxLen 每个 stream 的近似长度上限，0 表示不裁剪
	MaxLen int64
	Logger logging.Logger
}

// Publisher is a messaging.IPublisher backed by XADD.
type Publisher struct {
	cfg       Config
	client    client
	ownClient bool
	logger    logging.Logger
}

// NewPublisher constructs a Redis Streams publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.StreamPrefix == "" {
		cfg.StreamPrefix = "gocrud:"
	}

	var cl client
	var own bool
	if cfg.Client != nil {
		cl = cfg.Client
	} else {
		if cfg.Addr == "" {
			return nil, errors.New("redis client not configured")
		}
		cl = redis.NewClient(&redis.Options{Addr: cfg.Addr, Username: cfg.Username, Password: cfg.Password, DB: cfg.DB})
		own = true
	}

	if cfg.Logger == nil {
		cfg.Logger = logging.GetLogger().WithFields(logging.Component("transport.redisstreams"))
	}
	return &Publisher{cfg: cfg, client: cl, ownClient: own, logger: cfg.Logger}, nil
}

// Publish writes a single message into the stream named after its type.
func (p *Publisher) Publish(ctx context.Context, message messaging.IMessage) error {
	values, err := encodeMessage(message)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: p.streamName(message.GetType()), Values: values}
	if p.cfg.MaxLen > 0 {
		args.MaxLen = p.cfg.MaxLen
		args.Approx = true
	}
	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		p.logger.Warn(ctx, "xadd failed", logging.String("stream", args.Stream), logging.Error(err))
		return err
	}
	p.logger.Debug(ctx, "event appended",
		logging.String("stream", args.Stream),
		logging.String("entry_id", id),
		logging.String("message_id", message.GetID()))
	return nil
}

// Recent 读取某类型最近的 count 条消息（新的在前）
func (p *Publisher) Recent(ctx context.Context, messageType string, count int64) ([]messaging.IMessage, error) {
	entries, err := p.client.XRevRangeN(ctx, p.streamName(messageType), "+", "-", count).Result()
	if err != nil {
		return nil, err
	}
	out := make([]messaging.IMessage, 0, len(entries))
	for _, entry := range entries {
		msg, err := decodeMessage(entry)
		if err != nil {
			p.logger.Warn(ctx, "decode redis stream entry failed", logging.String("entry_id", entry.ID), logging.Error(err))
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Close closes the redis client when the publisher created it.
func (p *Publisher) Close() error {
	if p.ownClient {
		return p.client.Close()
	}
	return nil
}

func (p *Publisher) streamName(messageType string) string {
	return p.cfg.StreamPrefix + messageType
}

func encodeMessage(msg messaging.IMessage) (map[string]any, error) {
	payload, err := json.Marshal(msg.GetPayload())
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(msg.GetMetadata())
	if err != nil {
		return nil, err
	}
	ts := msg.GetTimestamp()
	if ts.IsZero() {
		ts = time.Now()
	}
	return map[string]any{
		"id":        msg.GetID(),
		"type":      msg.GetType(),
		"timestamp": ts.UnixNano(),
		"payload":   string(payload),
		"metadata":  string(metadata),
	}, nil
}

func decodeMessage(entry redis.XMessage) (messaging.IMessage, error) {
	id, _ := entry.Values["id"].(string)
	msgType, _ := entry.Values["type"].(string)

	payloadRaw, _ := entry.Values["payload"].(string)
	metadataRaw, _ := entry.Values["metadata"].(string)

	var payload any
	if payloadRaw != "" {
		if err := json.Unmarshal([]byte(payloadRaw), &payload); err != nil {
			return nil, err
		}
	}
	metadata := make(map[string]any)
	if metadataRaw != "" {
		if err := json.Unmarshal([]byte(metadataRaw), &metadata); err != nil {
			return nil, err
		}
	}

	ts := time.Now()
	switch v := entry.Values["timestamp"].(type) {
	case int64:
		ts = time.Unix(0, v)
	case string:
		if ns, err := strconv.ParseInt(v, 10, 64); err == nil {
			ts = time.Unix(0, ns)
		}
	}

	if id == "" {
		id = entry.ID
	}

	return &messaging.Message{
		ID:        id,
		Type:      msgType,
		Timestamp: ts,
		Payload:   payload,
		Metadata:  metadata,
	}, nil
}
