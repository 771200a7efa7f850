package messaging

import "context"

// IPublisher 消息发布者。实现需并发安全。
type IPublisher interface {
	Publish(ctx context.Context, message IMessage) error
	Close() error
}

// HandlerFunc 进程内订阅回调
type HandlerFunc func(ctx context.Context, message IMessage) error

// WildcardType 订阅全部消息类型
const WildcardType = "*"

// NoopPublisher 丢弃所有消息
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, IMessage) error { return nil }
func (NoopPublisher) Close() error                            { return nil }
