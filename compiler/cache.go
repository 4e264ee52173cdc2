package compiler

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/elliotchance/orderedmap/v3"
	"go.uber.org/zap"

	"silk/canon"
	"silk/style"
)

const (
	DefaultCacheSize = 1000
	DefaultPoolSize  = 8
)

// CacheStats describes cache state.
type CacheStats struct {
	Hits     int
	Misses   int
	Entries  int
	Capacity int
}

func (s CacheStats) String() string {
	return fmt.Sprintf("hits %d, misses %d, entries %d/%d", s.Hits, s.Misses, s.Entries, s.Capacity)
}

// Cache memoizes class names of style objects for runtime lookups. Style
// objects are keyed by their serialization with sorted keys and exact
// numbers, so objects differing only in key order or numeric type share an
// entry. Key is computed before canonicalization: aliases, tokens and unit
// conversion are not applied, and {p:4} and {padding:"1rem"} occupy separate
// entries holding the same class name. Least recently used entries are
// evicted when capacity is reached.
type Cache struct {
	c        *Compiler
	mu       sync.Mutex
	capacity int
	poolSize int
	entries  *orderedmap.OrderedMap[string, string]
	pool     chan *strings.Builder
	hits     int
	misses   int
	log      *zap.Logger
}

// NewCache creates cache on top of compiler. Non positive sizes are replaced
// by defaults.
func NewCache(c *Compiler, capacity, poolSize int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &Cache{
		c:        c,
		capacity: capacity,
		poolSize: poolSize,
		entries:  orderedmap.NewOrderedMap[string, string](),
		pool:     make(chan *strings.Builder, poolSize),
		log:      c.log.Named("cache"),
	}
}

// Compiler returns underlying compiler.
func (k *Cache) Compiler() *Compiler {
	return k.c
}

// ClassName returns space separated atom identifiers for style object,
// compiling it on first use.
func (k *Cache) ClassName(obj style.Object) (string, error) {
	key := k.key(obj)

	k.mu.Lock()
	if name, ok := k.entries.Get(key); ok {
		k.hits++
		// move to back
		k.entries.Delete(key)
		k.entries.Set(key, name)
		k.mu.Unlock()
		return name, nil
	}
	k.misses++
	k.mu.Unlock()

	res, err := k.c.Compile(obj, "runtime")
	if err != nil {
		return "", err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.entries.Set(key, res.ClassName)
	for k.entries.Len() > k.capacity {
		oldest := k.entries.Front()
		k.entries.Delete(oldest.Key)
	}
	return res.ClassName, nil
}

// Stats returns cache counters.
func (k *Cache) Stats() CacheStats {
	k.mu.Lock()
	defer k.mu.Unlock()

	return CacheStats{Hits: k.hits, Misses: k.misses, Entries: k.entries.Len(), Capacity: k.capacity}
}

// Reset drops all entries, counters and pooled buffers. Compiler registry is
// left as is.
func (k *Cache) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.entries = orderedmap.NewOrderedMap[string, string]()
	k.pool = make(chan *strings.Builder, k.poolSize)
	k.hits, k.misses = 0, 0
}

func (k *Cache) key(obj style.Object) string {
	k.mu.Lock()
	pool := k.pool
	k.mu.Unlock()

	var b *strings.Builder
	select {
	case b = <-pool:
	default:
		b = &strings.Builder{}
	}

	writeCanonical(b, map[string]any(obj))
	key := b.String()

	b.Reset()
	select {
	case pool <- b:
	default:
	}
	return key
}

// writeCanonical serializes value with sorted keys. Numbers are written as
// exact decimals, rounding is left to canonicalizer.
func writeCanonical(b *strings.Builder, v any) {
	if d, ok, err := canon.ToDecimal(v); ok && err == nil {
		b.WriteString(d.String())
		return
	}
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(strconv.Quote(t))
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case map[string]any:
		writeObject(b, t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, v := range t {
			m[fmt.Sprint(k)] = v
		}
		writeObject(b, m)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			b.WriteByte('[')
			for i := range rv.Len() {
				if i > 0 {
					b.WriteByte(',')
				}
				writeCanonical(b, rv.Index(i).Interface())
			}
			b.WriteByte(']')
			return
		}
		fmt.Fprintf(b, "%T(%v)", v, v)
	}
}

func writeObject(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		writeCanonical(b, m[k])
	}
	b.WriteByte('}')
}
