package compiler

import (
	"sync"

	"silk/style"
)

var (
	defaultOnce  sync.Once
	defaultCache *Cache
	defaultErr   error
)

// Default returns process wide cache built from DefaultOptions on first use.
// It is a convenience for framework bindings, nothing in this module uses it
// implicitly.
func Default() (*Cache, error) {
	defaultOnce.Do(func() {
		c, err := New(DefaultOptions(), nil)
		if err != nil {
			defaultErr = err
			return
		}
		defaultCache = NewCache(c, DefaultCacheSize, DefaultPoolSize)
	})
	return defaultCache, defaultErr
}

// ClassName compiles style object with default cache.
func ClassName(obj style.Object) (string, error) {
	c, err := Default()
	if err != nil {
		return "", err
	}
	return c.ClassName(obj)
}
