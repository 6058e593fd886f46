// 文件: pkg/eventbus/kafka.go
// Kafka 发布者 - AnalysisCompleted 事件的异步生产者
//
// 移植自 kafka/producer.go 的 Producer：沿用其 AsyncProducer + 错误
// channel 消费 goroutine + 原子计数器的结构，去掉通用 SendRaw/多压缩
// 选项等这里用不到的旋钮，只保留发布一种事件类型所需的部分。

package eventbus

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
)

// KafkaConfig configures the analysis-event Kafka publisher.
type KafkaConfig struct {
	Brokers        []string
	RequiredAcks   int // 0=none, 1=leader, -1=all
	FlushFrequency time.Duration
	FlushMessages  int
}

// DefaultKafkaConfig returns sane defaults for publishing analysis events.
func DefaultKafkaConfig(brokers []string) KafkaConfig {
	return KafkaConfig{
		Brokers:        brokers,
		RequiredAcks:   1,
		FlushFrequency: 100 * time.Millisecond,
		FlushMessages:  50,
	}
}

// KafkaPublisher publishes AnalysisCompleted events asynchronously.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	logger   *log.Logger

	sent   atomic.Int64
	errors atomic.Int64

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewKafkaPublisher connects an async Sarama producer for analysis events.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	saramaCfg := sarama.NewConfig()

	switch cfg.RequiredAcks {
	case 0:
		saramaCfg.Producer.RequiredAcks = sarama.NoResponse
	case -1:
		saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	default:
		saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	}
	saramaCfg.Producer.Compression = sarama.CompressionSnappy
	saramaCfg.Producer.Flush.Frequency = cfg.FlushFrequency
	saramaCfg.Producer.Flush.Messages = cfg.FlushMessages
	saramaCfg.Producer.Return.Successes = false
	saramaCfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("eventbus: create kafka producer: %w", err)
	}

	p := &KafkaPublisher{producer: producer, logger: log.Default()}
	p.wg.Add(1)
	go p.drainErrors()
	return p, nil
}

// Publish sends one AnalysisCompleted event asynchronously.
func (p *KafkaPublisher) Publish(e AnalysisCompleted) error {
	if p.closed.Load() {
		return fmt.Errorf("eventbus: kafka publisher is closed")
	}
	data, err := e.Value()
	if err != nil {
		return fmt.Errorf("eventbus: marshal event: %w", err)
	}
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: e.Topic(),
		Key:   sarama.StringEncoder(e.Key()),
		Value: sarama.ByteEncoder(data),
	}
	p.sent.Add(1)
	return nil
}

func (p *KafkaPublisher) drainErrors() {
	defer p.wg.Done()
	for err := range p.producer.Errors() {
		p.errors.Add(1)
		p.logger.Printf("[EventBus] kafka publish error: topic=%s err=%v", err.Msg.Topic, err.Err)
	}
}

// KafkaStats reports cumulative publish counters.
type KafkaStats struct {
	Sent   int64
	Errors int64
}

// Stats returns a snapshot of the publisher's counters.
func (p *KafkaPublisher) Stats() KafkaStats {
	return KafkaStats{Sent: p.sent.Load(), Errors: p.errors.Load()}
}

// Close stops accepting new events and waits for the error-draining
// goroutine to exit.
func (p *KafkaPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	err := p.producer.Close()
	p.wg.Wait()
	return err
}
