package runtime

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// countTable counts keys and remembers first-seen order so that ties keep
// insertion order in mostCommon.
type countTable struct {
	counts map[string]int
	order  []string
}

type countEntry struct {
	Key   string
	Count int
}

func newCounter() *countTable {
	return &countTable{counts: make(map[string]int)}
}

// add counts one occurrence of args. Several values, or a single slice,
// form a tab-joined tuple key.
func (c *countTable) add(args ...any) {
	vals := expandArgs(args)
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatValue(v)
	}
	key := strings.Join(parts, "\t")
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *countTable) count(key string) int {
	return c.counts[key]
}

func (c *countTable) size() int {
	return len(c.order)
}

func (c *countTable) mostCommon() []countEntry {
	entries := make([]countEntry, len(c.order))
	for i, k := range c.order {
		entries[i] = countEntry{Key: k, Count: c.counts[k]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

func (c *countTable) print(w io.Writer) {
	for _, e := range c.mostCommon() {
		fmt.Fprintf(w, "%s\t%d\n", e.Key, e.Count)
	}
}
