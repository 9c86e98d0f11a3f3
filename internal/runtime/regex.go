package runtime

import (
	"fmt"
	"sync"

	"github.com/coregx/coregex"
)

// PatternError reports a record pattern that does not compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// PatternCache checks record patterns before they are written into a
// generated program. coregex accepts the RE2 syntax of package regexp, so a
// pattern it compiles will also compile in the program.
//
// The CLI validates one pattern per process, but the gopipe package runs
// Generate in-process for each call of Generate or Exec. A service that
// builds programs per request reuses a handful of delimiters, and coregex
// compilation is far costlier than a lookup, so compiled patterns are kept
// up to a fixed size and the oldest ones are dropped first.
// Safe for concurrent use.
type PatternCache struct {
	cache   sync.Map // map[string]*coregex.Regexp
	orderMu sync.Mutex
	order   []string
	maxSize int
}

// NewPatternCache creates a cache holding at most maxSize patterns.
func NewPatternCache(maxSize int) *PatternCache {
	if maxSize <= 0 {
		maxSize = 32
	}
	return &PatternCache{
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get returns the compiled pattern, compiling and caching it if needed.
func (c *PatternCache) Get(pattern string) (*coregex.Regexp, error) {
	if re, ok := c.cache.Load(pattern); ok {
		return re.(*coregex.Regexp), nil
	}

	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}

	if existing, loaded := c.cache.LoadOrStore(pattern, re); loaded {
		return existing.(*coregex.Regexp), nil
	}

	c.orderMu.Lock()
	c.order = append(c.order, pattern)
	for len(c.order) > c.maxSize {
		c.cache.Delete(c.order[0])
		c.order = c.order[1:]
	}
	c.orderMu.Unlock()

	return re, nil
}

// Validate reports whether pattern compiles.
func (c *PatternCache) Validate(pattern string) error {
	_, err := c.Get(pattern)
	return err
}

// Len returns the number of cached patterns.
func (c *PatternCache) Len() int {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	return len(c.order)
}

var defaultPatterns = NewPatternCache(32)

// ValidatePattern checks pattern against the cache shared by every Generate
// call of the process.
func ValidatePattern(pattern string) error {
	return defaultPatterns.Validate(pattern)
}
