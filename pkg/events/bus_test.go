package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishAndDecode(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "domain-events")
	require.NoError(t, err)

	bus := NewBus(pubSub, "domain-events")
	require.NoError(t, bus.Publish(ctx, New(TypeChatPublicMessage, map[string]interface{}{
		"chatbot_id": "c-1",
		"visitor_id": "v-9",
	})))

	select {
	case msg := <-messages:
		evt, err := Decode(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, TypeChatPublicMessage, evt.Type)
		assert.Equal(t, "v-9", evt.Data["visitor_id"])
		assert.Equal(t, TypeChatPublicMessage, msg.Metadata.Get("event_type"))
		assert.False(t, evt.OccurredAt.IsZero())
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}
