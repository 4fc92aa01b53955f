package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"readmission-risk-go/pkg/tasks"
)

func TestBrokerList(t *testing.T) {
	require.Equal(t, []string{"a:9092"}, brokerList("a:9092"))
	require.Equal(t, []string{"a:9092", "b:9092"}, brokerList(" a:9092, b:9092 ,"))
	require.Empty(t, brokerList(""))
}

func TestProduceBatchTask_RequiresInit(t *testing.T) {
	producer = nil
	err := ProduceBatchTask(context.Background(), tasks.BatchScoringTask{JobID: "j"})
	require.Error(t, err)
}

func TestAttemptsKey(t *testing.T) {
	require.Equal(t, "kafka:attempts:job-1", attemptsKey("job-1"))
}
