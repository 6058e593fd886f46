// 文件: pkg/idgen/idgen.go
// 雪花算法相关 ID 生成器 - 用于给每次分析运行/通知投递打上唯一关联 ID
//
// 移植自 order/snowflake.go：教师用它生成订单 ID，这里改造为每只股票
// 每次分析生成一个 correlation ID，出现在分析器入口的日志行与
// AnalysisCompleted 事件里；抓取管理器与通知渠道并不接收这个 ID。

package idgen

import (
	"github.com/bwmarrin/snowflake"
)

// Generator wraps a snowflake node for correlation-ID generation. Unlike
// the teacher's package-level singleton, this is an explicit value the
// caller constructs once at startup and threads through the pipeline.
// snowflake.Node is already safe for concurrent use.
type Generator struct {
	node *snowflake.Node
}

// New builds a Generator bound to nodeID (0-1023); distinct analyzer
// instances should use distinct node IDs to avoid ID collisions.
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Generator{node: node}, nil
}

// NextCorrelationID returns the next ID as its decimal string form,
// suitable for embedding in log lines and event envelopes.
func (g *Generator) NextCorrelationID() string {
	return g.node.Generate().String()
}

// NextID returns the next ID as a raw int64, for callers that need a
// compact numeric form (e.g. a database column).
func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}
