//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"policycheck/pkg/testutil/containers"
)

func TestKafkaPublisher_Integration(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "policycheck.audit.test"

	admin, err := kgo.NewClient(kgo.SeedBrokers(broker.SeedBroker))
	require.NoError(t, err)
	defer admin.Close()
	_, err = kadm.NewClient(admin).CreateTopics(ctx, 1, 1, nil, topic)
	require.NoError(t, err)

	pub, err := NewKafkaPublisher([]string{broker.SeedBroker}, topic)
	require.NoError(t, err)
	defer pub.Close()

	event := FromCheck(checkInfo(), classified(403, `{"error":"not_eligible"}`))
	require.NoError(t, pub.Emit(ctx, event))
	require.NoError(t, pub.Flush(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.SeedBroker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) == 0 {
		fetches := consumer.PollFetches(ctx)
		require.Empty(t, fetches.Errors())
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}

	require.Len(t, records, 1)
	assert.Equal(t, []byte(event.SubjectHash), records[0].Key)

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, DecisionRejected, got.Decision)
	assert.Equal(t, "req-1", got.RequestID)
}
