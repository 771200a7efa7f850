// Package memory 提供进程内的消息发布实现
// 适用于单机部署、开发环境和测试场景
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gocrud/messaging"
)

// defaultHistory 默认保留的最近消息条数
const defaultHistory = 1000

// Publisher 进程内发布者：同步调用订阅者，并保留最近的消息便于排查与测试。
type Publisher struct {
	handlers map[string][]messaging.HandlerFunc
	history  []messaging.IMessage
	limit    int
	closed   bool
	mutex    sync.RWMutex
}

// NewPublisher 创建内存发布者，historyLimit <= 0 时使用默认 1000。
func NewPublisher(historyLimit int) *Publisher {
	if historyLimit <= 0 {
		historyLimit = defaultHistory
	}
	return &Publisher{
		handlers: make(map[string][]messaging.HandlerFunc),
		limit:    historyLimit,
	}
}

// Subscribe 订阅指定类型，messaging.WildcardType 订阅全部。
func (p *Publisher) Subscribe(messageType string, handler messaging.HandlerFunc) {
	if handler == nil {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.handlers[messageType] = append(p.handlers[messageType], handler)
}

// Publish 记录消息并依次调用订阅者，订阅者错误合并后返回。
func (p *Publisher) Publish(ctx context.Context, message messaging.IMessage) error {
	if message == nil {
		return errors.New("memory publisher: nil message")
	}
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return errors.New("memory publisher is closed")
	}
	p.history = append(p.history, message)
	if over := len(p.history) - p.limit; over > 0 {
		p.history = append(p.history[:0:0], p.history[over:]...)
	}
	exact := p.handlers[message.GetType()]
	wildcard := p.handlers[messaging.WildcardType]
	handlers := make([]messaging.HandlerFunc, 0, len(exact)+len(wildcard))
	handlers = append(handlers, exact...)
	handlers = append(handlers, wildcard...)
	p.mutex.Unlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, message); err != nil {
			errs = append(errs, fmt.Errorf("handler for %s: %w", message.GetType(), err))
		}
	}
	return errors.Join(errs...)
}

// Messages 返回最近发布的消息快照
func (p *Publisher) Messages() []messaging.IMessage {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return append([]messaging.IMessage(nil), p.history...)
}

// Types 按发布顺序返回最近消息的类型
func (p *Publisher) Types() []string {
	msgs := p.Messages()
	types := make([]string, len(msgs))
	for i, m := range msgs {
		types[i] = m.GetType()
	}
	return types
}

func (p *Publisher) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.closed = true
	return nil
}
