package process

import (
	"fmt"
	"slices"
)

const (
	MinPriority = 1
	MaxPriority = 10

	// DefaultName is used when a process is created with an empty name.
	DefaultName = "Process"
)

// Process is a logical process competing for memory.
type Process struct {
	ID       int
	Name     string
	Size     int // memory units
	Priority int

	active   bool
	pages    []int // owned page indices (paging)
	segments []int // owned segment ids (segmentation)
}

// Info is a point-in-time copy of a Process, safe to hand out of the manager.
type Info struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Size     int    `json:"size" yaml:"size"`
	Priority int    `json:"priority" yaml:"priority"`
	Active   bool   `json:"active" yaml:"active"`
	Pages    []int  `json:"pages,omitempty" yaml:"pages,omitempty"`
	Segments []int  `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// New returns an active process with no memory. It validates size and priority.
func New(id int, name string, size, priority int) (*Process, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalid, size)
	}
	if priority < MinPriority || priority > MaxPriority {
		return nil, fmt.Errorf("%w: priority %d", ErrInvalid, priority)
	}
	if name == "" {
		name = DefaultName
	}
	return &Process{
		ID:       id,
		Name:     name,
		Size:     size,
		Priority: priority,
		active:   true,
	}, nil
}

func (p *Process) Active() bool          { return p.active }
func (p *Process) SetActive(active bool) { p.active = active }

// PagesNeeded returns ceil(Size / pageSize).
func (p *Process) PagesNeeded(pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (p.Size + pageSize - 1) / pageSize
}

// Pages returns a copy of the owned page indices in grant order.
func (p *Process) Pages() []int { return slices.Clone(p.pages) }

func (p *Process) AddPage(page int) { p.pages = append(p.pages, page) }

// RemovePage drops one occurrence of page. It reports whether it was owned.
func (p *Process) RemovePage(page int) bool {
	i := slices.Index(p.pages, page)
	if i < 0 {
		return false
	}
	p.pages = slices.Delete(p.pages, i, i+1)
	return true
}

func (p *Process) ClearPages() { p.pages = nil }

// Segments returns a copy of the owned segment ids in grant order.
func (p *Process) Segments() []int { return slices.Clone(p.segments) }

func (p *Process) AddSegment(id int) { p.segments = append(p.segments, id) }

func (p *Process) ClearSegments() { p.segments = nil }

// HasMemory reports whether the process currently owns any page or segment.
func (p *Process) HasMemory() bool {
	return len(p.pages) > 0 || len(p.segments) > 0
}

// Snapshot copies the process into an Info.
func (p *Process) Snapshot() Info {
	return Info{
		ID:       p.ID,
		Name:     p.Name,
		Size:     p.Size,
		Priority: p.Priority,
		Active:   p.active,
		Pages:    p.Pages(),
		Segments: p.Segments(),
	}
}

func (p *Process) String() string {
	return fmt.Sprintf("Process[ID=%d, Name=%s, Size=%d, Active=%t]", p.ID, p.Name, p.Size, p.active)
}
