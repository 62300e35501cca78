package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventEncode(t *testing.T) {
	body, err := Event{Name: OrderPaid, OrderID: 12, Status: "paid", Data: map[string]any{"reference": "CARD-1"}}.Encode()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "order.paid", got["name"])
	assert.EqualValues(t, 12, got["order_id"])
	assert.NotEmpty(t, got["occurred_at"])
	assert.NotContains(t, got, "user_id")
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoop()
	assert.NoError(t, p.Publish(context.Background(), Event{Name: OrderCreated}))
	assert.NoError(t, p.Close())
}
