package token

import (
	"strconv"
	"strings"
	"sync"

	"github.com/openltablets/dtinfer/pkg/typesys"
)

// Cache memoizes vocabularies by key. It is safe for concurrent use and
// must be cleared at the end of each compilation pass with [Cache.Clear].
type Cache struct {
	m  map[string]*Vocabulary
	mu sync.RWMutex
}

// NewCache creates an empty [Cache].
func NewCache() *Cache {
	return &Cache{m: map[string]*Vocabulary{}}
}

// Get returns the cached vocabulary for key, building and storing it with
// build when absent. Concurrent callers with the same key may each build
// it; the first stored result wins.
func (c *Cache) Get(key string, build func() *Vocabulary) *Vocabulary {
	c.mu.RLock()
	v, ok := c.m[key]
	c.mu.RUnlock()

	if ok {
		return v
	}

	v = build()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.m[key]; ok {
		return existing
	}

	c.m[key] = v

	return v
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.m)
}

// Len returns the number of cached vocabularies.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.m)
}

// ParamKey returns the cache key of a [ParamVocabulary].
func ParamKey(params []typesys.Param, indexes []int, depth int) string {
	var b strings.Builder

	b.WriteString("params:")
	b.WriteString(strconv.Itoa(depth))

	for _, i := range indexes {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(':')
		b.WriteString(params[i].Name)
		b.WriteByte(':')
		b.WriteString(params[i].Type.Name())
	}

	return b.String()
}

// SetterKey returns the cache key of a [SetterVocabulary].
func SetterKey(t *typesys.Type, depth int) string {
	return "setters:" + strconv.Itoa(depth) + "|" + t.Name()
}
