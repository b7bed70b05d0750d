package process

// Registry holds live processes in creation order and hands out ids.
type Registry struct {
	procs  []*Process
	byID   map[int]*Process
	nextID int
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[int]*Process),
		nextID: 1,
	}
}

// Create registers a new active process under the next id. The id counter
// only advances on success.
func (r *Registry) Create(name string, size, priority int) (*Process, error) {
	p, err := New(r.nextID, name, size, priority)
	if err != nil {
		return nil, err
	}
	r.nextID++
	r.procs = append(r.procs, p)
	r.byID[p.ID] = p
	return p, nil
}

// Lookup returns the live process with id, or nil.
func (r *Registry) Lookup(id int) *Process {
	return r.byID[id]
}

// Remove drops the process with id. It reports whether it was present.
func (r *Registry) Remove(id int) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, p := range r.procs {
		if p.ID == id {
			r.procs = append(r.procs[:i], r.procs[i+1:]...)
			break
		}
	}
	return true
}

// All returns the live processes in creation order. The slice is a copy; the
// pointers are not.
func (r *Registry) All() []*Process {
	out := make([]*Process, len(r.procs))
	copy(out, r.procs)
	return out
}

// Active returns the active processes in creation order.
func (r *Registry) Active() []*Process {
	var out []*Process
	for _, p := range r.procs {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.procs) }

func (r *Registry) ActiveLen() int {
	n := 0
	for _, p := range r.procs {
		if p.Active() {
			n++
		}
	}
	return n
}

// Reset forgets every process and restarts ids at 1.
func (r *Registry) Reset() {
	r.procs = nil
	r.byID = make(map[int]*Process)
	r.nextID = 1
}
