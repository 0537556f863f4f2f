package server

import (
	"sync"

	"github.com/playleap/challenge-arena/internal/protocol"
)

// idemCacheSize 每客户端缓存的 request_id 数量
const idemCacheSize = 128

// idemCache 命令幂等缓存。
// 成功执行过的 request_id 记录其应答，重复到达时直接回放，
// 不再触碰引擎——网络重试不会把同一个命令执行两次。
// 失败的命令不入缓存，客户端可以用同一个 request_id 重试。
type idemCache struct {
	mu      sync.Mutex
	cap     int
	order   []string // FIFO 淘汰
	replies map[string]*protocol.Message
}

func newIdemCache(capacity int) *idemCache {
	return &idemCache{
		cap:     capacity,
		replies: make(map[string]*protocol.Message, capacity),
	}
}

// Lookup 查询 request_id，命中返回缓存的应答（可能为 nil）
func (c *idemCache) Lookup(requestID string) (*protocol.Message, bool) {
	if requestID == "" {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, ok := c.replies[requestID]
	return reply, ok
}

// Store 记录已执行命令的应答，reply 可为 nil（无直接应答的命令）
func (c *idemCache) Store(requestID string, reply *protocol.Message) {
	if requestID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.replies[requestID]; ok {
		c.replies[requestID] = reply
		return
	}
	if len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.replies, oldest)
	}
	c.order = append(c.order, requestID)
	c.replies[requestID] = reply
}
