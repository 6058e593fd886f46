package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/decision"
)

func TestNewAnalysisCompletedAndWireShape(t *testing.T) {
	r := decision.Result{
		Symbol:      "600519",
		MarketType:  decision.AShare,
		BuySignal:   decision.StrongBuy,
		SignalScore: 100,
		TrendStatus: decision.Bull,
	}
	when := time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC)

	e := NewAnalysisCompleted("corr-1", r, when)
	assert.Equal(t, "corr-1", e.CorrelationID)
	assert.Equal(t, "600519", e.Symbol)
	assert.Equal(t, "600519", e.Key())
	assert.Equal(t, analysisCompletedTopic, e.Topic())

	data, err := e.Value()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"symbol":"600519"`)
}

func TestNoopBusNeverErrors(t *testing.T) {
	var b Bus = NoopBus{}
	assert.NoError(t, b.Publish(AnalysisCompleted{Symbol: "000001"}))
}
