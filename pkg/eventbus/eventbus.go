// 文件: pkg/eventbus/eventbus.go
// Bus 接口 - 统一 Kafka/NATS 两种发布者实现，供调用方屏蔽具体选型。

package eventbus

// Bus publishes AnalysisCompleted events to whichever broker backs it.
type Bus interface {
	Publish(e AnalysisCompleted) error
}

// NoopBus discards every event; used when no broker is configured
// (spec treats eventbus as a domain-stack addition, not a hard
// dependency of the decision pipeline).
type NoopBus struct{}

// Publish implements Bus by doing nothing.
func (NoopBus) Publish(AnalysisCompleted) error { return nil }

var (
	_ Bus = (*KafkaPublisher)(nil)
	_ Bus = (*NatsPublisher)(nil)
	_ Bus = NoopBus{}
)
