package paging

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Policy selects which allocated pages are evicted on a page fault.
type Policy int

const (
	FIFO Policy = iota
	LRU
	// Optimal is approximated by LRU; see the package documentation.
	Optimal
)

func (p Policy) String() string {
	switch p {
	case FIFO:
		return "FIFO"
	case LRU:
		return "LRU"
	case Optimal:
		return "OPTIMAL"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// MarshalText renders the policy by name.
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// ParsePolicy accepts the String() names case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIFO":
		return FIFO, nil
	case "LRU":
		return LRU, nil
	case "OPTIMAL", "OPT":
		return Optimal, nil
	}
	return FIFO, fmt.Errorf("%w: %q", ErrBadPolicy, s)
}

// Replacer tracks allocated pages for victim election.
type Replacer interface {
	// Admit starts tracking a page that was just allocated to a process.
	Admit(page int, stamp uint64)
	// Touch records an access to a tracked page.
	Touch(page int, stamp uint64)
	// Forget stops tracking a page.
	Forget(page int)
	// Victims elects up to n pages without removing them.
	Victims(n int) []int
}

// fifoQueue orders pages by admission. Touch does not reorder.
type fifoQueue struct {
	order []int
}

func (q *fifoQueue) Admit(page int, _ uint64) {
	q.Forget(page)
	q.order = append(q.order, page)
}

func (q *fifoQueue) Touch(int, uint64) {}

func (q *fifoQueue) Forget(page int) {
	if i := slices.Index(q.order, page); i >= 0 {
		q.order = slices.Delete(q.order, i, i+1)
	}
}

func (q *fifoQueue) Victims(n int) []int {
	n = min(n, len(q.order))
	return slices.Clone(q.order[:n])
}

// lruList keeps pages in recency order, valued by the logical clock stamp of
// their last allocation or access. The oldest key carries the smallest stamp.
type lruList struct {
	l *simplelru.LRU[int, uint64]
}

func newLRUList(capacity int) (*lruList, error) {
	l, err := simplelru.NewLRU[int, uint64](capacity, nil)
	if err != nil {
		return nil, err
	}
	return &lruList{l: l}, nil
}

func (r *lruList) Admit(page int, stamp uint64) { r.l.Add(page, stamp) }

func (r *lruList) Touch(page int, stamp uint64) {
	if r.l.Contains(page) {
		r.l.Add(page, stamp)
	}
}

func (r *lruList) Forget(page int) { r.l.Remove(page) }

func (r *lruList) Victims(n int) []int {
	keys := r.l.Keys() // oldest to newest
	n = min(n, len(keys))
	return keys[:n]
}

// Stamp returns the logical clock value of a tracked page.
func (r *lruList) Stamp(page int) (uint64, bool) { return r.l.Peek(page) }

func (r *lruList) Len() int { return r.l.Len() }
