// 文件: pkg/eventbus/event.go
// 分析完成事件 - 决策引擎每产出一个 SignalResult，就封装成一条事件
// 发往下游审计/仪表盘消费者。
//
// 移植自 kafka/producer.go 的 Message 接口约定：Topic()/Key()/Value()。

package eventbus

import (
	"encoding/json"
	"time"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/decision"
)

const analysisCompletedTopic = "stock.analysis.completed"

// AnalysisCompleted is the event payload published once per SignalResult.
type AnalysisCompleted struct {
	CorrelationID string    `json:"correlation_id"`
	Symbol        string    `json:"symbol"`
	MarketType    string    `json:"market_type"`
	BuySignal     string    `json:"buy_signal"`
	SignalScore   int       `json:"signal_score"`
	TrendStatus   string    `json:"trend_status"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// NewAnalysisCompleted builds the event payload from one decision Result.
func NewAnalysisCompleted(correlationID string, r decision.Result, evaluatedAt time.Time) AnalysisCompleted {
	return AnalysisCompleted{
		CorrelationID: correlationID,
		Symbol:        r.Symbol,
		MarketType:    r.MarketType.String(),
		BuySignal:     r.BuySignal.String(),
		SignalScore:   r.SignalScore,
		TrendStatus:   r.TrendStatus.String(),
		EvaluatedAt:   evaluatedAt,
	}
}

// Topic implements the kafka Message interface (see kafka.go).
func (e AnalysisCompleted) Topic() string { return analysisCompletedTopic }

// Key implements the kafka Message interface: partition by symbol so that
// events for the same stock stay ordered relative to each other.
func (e AnalysisCompleted) Key() string { return e.Symbol }

// Value implements the kafka Message interface.
func (e AnalysisCompleted) Value() ([]byte, error) { return json.Marshal(e) }
