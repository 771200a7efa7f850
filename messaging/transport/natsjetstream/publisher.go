// Package natsjetstream 将变更事件发布到 NATS JetStream（主题 <prefix><type>）。
package natsjetstream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"gocrud/logging"
	"gocrud/messaging"
)

// Config configures the JetStream publisher.
type Config struct {
	URL           string
	Stream        string
	SubjectPrefix string
	Logger        logging.Logger
	Conn          *nats.Conn

	// 可选：流参数
	MaxBytes          int64 // 0 表示不设置
	Replicas          int   // 0 表示默认
	MaxMsgsPerSubject int64 // 每主题最大消息数，默认 -1
	MaxAge            time.Duration
}

// Publisher implements messaging.IPublisher on top of NATS JetStream.
// 连接与流在首次发布时建立。
type Publisher struct {
	cfg      Config
	logger   logging.Logger
	conn     *nats.Conn
	js       nats.JetStreamContext
	ownsConn bool
	closed   bool

	mu sync.Mutex
}

// NewPublisher builds a JetStream publisher.
func NewPublisher(cfg Config) *Publisher {
	if cfg.Stream == "" {
		cfg.Stream = "GOCRUD"
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "gocrud."
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetLogger().WithFields(logging.Component("transport.nats"))
	}
	return &Publisher{cfg: cfg, logger: cfg.Logger}
}

// Publish 以消息 ID 作为 Nats-Msg-Id，JetStream 在去重窗口内丢弃重复发布。
func (p *Publisher) Publish(ctx context.Context, message messaging.IMessage) error {
	js, err := p.jetStream()
	if err != nil {
		return err
	}
	data, err := marshalMessage(message)
	if err != nil {
		return err
	}
	subject := p.subjectName(message.GetType())
	ack, err := js.Publish(subject, data, nats.Context(ctx), nats.MsgId(message.GetID()))
	if err != nil {
		p.logger.Warn(ctx, "jetstream publish failed", logging.String("subject", subject), logging.Error(err))
		return err
	}
	p.logger.Debug(ctx, "event published",
		logging.String("subject", subject),
		logging.Int64("sequence", int64(ack.Sequence)),
		logging.Bool("duplicate", ack.Duplicate))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.ownsConn && p.conn != nil {
		p.conn.Close()
	}
	p.conn = nil
	p.js = nil
	return nil
}

func (p *Publisher) jetStream() (nats.JetStreamContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errors.New("nats publisher is closed")
	}
	if p.js != nil {
		return p.js, nil
	}
	if err := p.ensureConnection(); err != nil {
		return nil, err
	}
	if err := p.ensureStream(); err != nil {
		return nil, err
	}
	return p.js, nil
}

func (p *Publisher) ensureConnection() error {
	if p.cfg.Conn != nil {
		p.conn = p.cfg.Conn
	} else {
		if p.cfg.URL == "" {
			p.cfg.URL = nats.DefaultURL
		}
		conn, err := nats.Connect(p.cfg.URL)
		if err != nil {
			return err
		}
		p.conn = conn
		p.ownsConn = true
	}
	js, err := p.conn.JetStream()
	if err != nil {
		return err
	}
	p.js = js
	return nil
}

func (p *Publisher) ensureStream() error {
	_, err := p.js.StreamInfo(p.cfg.Stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) && !strings.Contains(err.Error(), "stream not found") {
		return err
	}
	_, err = p.js.AddStream(p.streamConfig())
	return err
}

// streamConfig 变更事件只追加不消费，使用 limits 保留策略
func (p *Publisher) streamConfig() *nats.StreamConfig {
	sc := &nats.StreamConfig{
		Name:              p.cfg.Stream,
		Subjects:          []string{p.cfg.SubjectPrefix + ">"},
		Retention:         nats.LimitsPolicy,
		MaxMsgsPerSubject: -1,
	}
	if p.cfg.MaxMsgsPerSubject != 0 {
		sc.MaxMsgsPerSubject = p.cfg.MaxMsgsPerSubject
	}
	if p.cfg.MaxBytes > 0 {
		sc.MaxBytes = p.cfg.MaxBytes
	}
	if p.cfg.Replicas > 0 {
		sc.Replicas = p.cfg.Replicas
	}
	if p.cfg.MaxAge > 0 {
		sc.MaxAge = p.cfg.MaxAge
	}
	return sc
}

func (p *Publisher) subjectName(messageType string) string {
	return p.cfg.SubjectPrefix + messageType
}

type wireMessage struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Metadata  map[string]any  `json:"metadata"`
}

func marshalMessage(msg messaging.IMessage) ([]byte, error) {
	payload, err := json.Marshal(msg.GetPayload())
	if err != nil {
		return nil, err
	}
	metadata := msg.GetMetadata()
	if metadata == nil {
		metadata = make(map[string]any)
	}
	ts := msg.GetTimestamp()
	if ts.IsZero() {
		ts = time.Now()
	}
	return json.Marshal(wireMessage{ID: msg.GetID(), Type: msg.GetType(), Timestamp: ts.UnixNano(), Payload: payload, Metadata: metadata})
}

func unmarshalMessage(data []byte) (messaging.IMessage, error) {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	var payload any
	if len(wire.Payload) > 0 {
		if err := json.Unmarshal(wire.Payload, &payload); err != nil {
			return nil, err
		}
	}
	if wire.Metadata == nil {
		wire.Metadata = make(map[string]any)
	}
	return &messaging.Message{
		ID:        wire.ID,
		Type:      wire.Type,
		Timestamp: time.Unix(0, wire.Timestamp),
		Payload:   payload,
		Metadata:  wire.Metadata,
	}, nil
}
