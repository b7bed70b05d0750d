package memory

// Stats aggregates memory usage under the active strategy.
type Stats struct {
	Strategy        string  `json:"strategy"`
	TotalMemory     int     `json:"total_memory"`
	UsedMemory      int     `json:"used_memory"`
	FreeMemory      int     `json:"free_memory"`
	Utilization     float64 `json:"utilization"`   // percent of TotalMemory in use
	Fragmentation   float64 `json:"fragmentation"` // strategy-specific, percent
	TotalProcesses  int     `json:"total_processes"`
	ActiveProcesses int     `json:"active_processes"`
}

// Stats computes aggregate statistics from the active allocator.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u := m.active.Usage()
	used := u.Total - u.Free
	utilization := 0.0
	if u.Total > 0 {
		utilization = float64(used) / float64(u.Total) * 100
	}
	return Stats{
		Strategy:        m.active.Kind().String(),
		TotalMemory:     u.Total,
		UsedMemory:      used,
		FreeMemory:      u.Free,
		Utilization:     utilization,
		Fragmentation:   u.Fragmentation,
		TotalProcesses:  m.procs.Len(),
		ActiveProcesses: m.procs.ActiveLen(),
	}
}
