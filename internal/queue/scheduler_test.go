package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDelayQueueArgs(t *testing.T) {
	args := delayQueueArgs("cancelation-orders")
	require.Equal(t, "", args["x-dead-letter-exchange"])
	require.Equal(t, "cancelation-orders", args["x-dead-letter-routing-key"])
}

func TestExpirationMillis(t *testing.T) {
	require.Equal(t, "300000", expirationMillis(5*time.Minute))
	require.Equal(t, "0", expirationMillis(0))
}

func TestCancelOrderJobRoundTrip(t *testing.T) {
	job := CancelOrderJob{
		ProfileID:    uuid.New(),
		OrderID:      uuid.New(),
		OrderItemIDs: []uuid.UUID{uuid.New(), uuid.New()},
	}

	body, err := json.Marshal(job)
	require.NoError(t, err)
	require.Contains(t, string(body), `"orderId"`)
	require.Contains(t, string(body), `"profileId"`)
	require.Contains(t, string(body), `"orderItemIds"`)

	var decoded CancelOrderJob
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Equal(t, job, decoded)
}
