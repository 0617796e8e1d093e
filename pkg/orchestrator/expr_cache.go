package orchestrator

import (
	"container/list"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// exprCache is an LRU of compiled expr-lang programs keyed by expression
// source, the same container/list + map idiom the teacher uses for its
// condition cache, repurposed here for aggregation-policy expressions.
type exprCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type exprCacheEntry struct {
	key     string
	program *vm.Program
}

// newExprCache builds an LRU cache capped at capacity compiled programs.
func newExprCache(capacity int) *exprCache {
	if capacity <= 0 {
		capacity = 32
	}
	return &exprCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// compile returns the cached program for source, compiling and caching it
// on a miss.
func (c *exprCache) compile(source string, env any) (*vm.Program, error) {
	c.mu.Lock()
	if el, ok := c.entries[source]; ok {
		c.order.MoveToFront(el)
		program := el.Value.(*exprCacheEntry).program
		c.mu.Unlock()
		return program, nil
	}
	c.mu.Unlock()

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	el := c.order.PushFront(&exprCacheEntry{key: source, program: program})
	c.entries[source] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*exprCacheEntry).key)
		}
	}
	return program, nil
}
