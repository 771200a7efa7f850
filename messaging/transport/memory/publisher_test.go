package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocrud/messaging"
)

func TestPublishDispatchesToSubscribers(t *testing.T) {
	p := NewPublisher(0)
	ctx := context.Background()

	var exact, all []string
	p.Subscribe("post.created", func(_ context.Context, m messaging.IMessage) error {
		exact = append(exact, m.GetID())
		return nil
	})
	p.Subscribe(messaging.WildcardType, func(_ context.Context, m messaging.IMessage) error {
		all = append(all, m.GetType())
		return nil
	})

	require.NoError(t, p.Publish(ctx, messaging.NewMessage("m-1", "post.created", nil)))
	require.NoError(t, p.Publish(ctx, messaging.NewMessage("m-2", "post.deleted", nil)))

	assert.Equal(t, []string{"m-1"}, exact)
	assert.Equal(t, []string{"post.created", "post.deleted"}, all)
	assert.Equal(t, []string{"post.created", "post.deleted"}, p.Types())
}

func TestPublishJoinsHandlerErrors(t *testing.T) {
	p := NewPublisher(0)
	boom := errors.New("boom")
	p.Subscribe("x", func(context.Context, messaging.IMessage) error { return boom })

	err := p.Publish(context.Background(), messaging.NewEvent("x", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	// 订阅者失败不影响记录
	assert.Len(t, p.Messages(), 1)
}

func TestHistoryLimit(t *testing.T) {
	p := NewPublisher(2)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Publish(ctx, messaging.NewMessage(id, "t", nil)))
	}
	msgs := p.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].GetID())
	assert.Equal(t, "c", msgs[1].GetID())
}

func TestClosedPublisherRejects(t *testing.T) {
	p := NewPublisher(0)
	require.NoError(t, p.Close())
	assert.Error(t, p.Publish(context.Background(), messaging.NewEvent("x", nil)))
	assert.Error(t, NewPublisher(0).Publish(context.Background(), nil))
}

func TestConcurrentPublish(t *testing.T) {
	p := NewPublisher(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Publish(context.Background(), messaging.NewEvent("t", nil))
		}()
	}
	wg.Wait()
	assert.Len(t, p.Messages(), 50)
}
