package conversation

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator issues process-unique message ids.
type IDGenerator struct {
	counter uint64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

func (g *IDGenerator) Next(prefix string) string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-%d", prefix, n)
}
