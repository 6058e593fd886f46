// 文件: pkg/eventbus/nats.go
// NATS 发布者 - 本地/开发环境下替代 Kafka 的轻量事件通道
//
// 移植自 nats/publisher.go 的 Publisher，去掉通用 PublishRaw，改为
// 只发布 AnalysisCompleted 这一种事件类型。

package eventbus

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// NatsPublisher publishes AnalysisCompleted events over a NATS subject.
type NatsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNatsPublisher connects to url and binds to the fixed analysis-events
// subject.
func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect nats: %w", err)
	}
	return &NatsPublisher{conn: conn, subject: analysisCompletedTopic}, nil
}

// Publish sends one AnalysisCompleted event.
func (p *NatsPublisher) Publish(e AnalysisCompleted) error {
	data, err := e.Value()
	if err != nil {
		return fmt.Errorf("eventbus: marshal event: %w", err)
	}
	return p.conn.Publish(p.subject, data)
}

// Close closes the underlying connection with nats.Conn.Close; it does
// not call Drain.
func (p *NatsPublisher) Close() {
	p.conn.Close()
}
