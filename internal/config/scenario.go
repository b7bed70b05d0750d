package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joshuapare/memsim/memory/segment"
)

// Step operations understood by scenarios.
const (
	OpCreate     = "create"
	OpAllocate   = "allocate"
	OpDeallocate = "deallocate"
	OpTerminate  = "terminate"
	OpStrategy   = "strategy"
	OpPolicy     = "policy"
	OpAccess     = "access"
	OpCompact    = "compact"
	OpReset      = "reset"

	OpBatch         = "batch"
	OpTranslate     = "translate"
	OpDeallocateAll = "deallocate_all"
)

// Step is one scenario action. Only the fields relevant to Op are read:
// create uses Name, Size, Priority and Allocate; allocate, deallocate and
// terminate use PID; strategy and policy use Value; access uses Page.
// batch uses Count and Unique. translate uses PID, Address and Kind: an
// empty Kind translates through the page table, otherwise Address is an
// offset into that segment.
type Step struct {
	Op       string `yaml:"op"`
	Name     string `yaml:"name"`
	Size     int    `yaml:"size"`
	Priority int    `yaml:"priority"`
	Allocate bool   `yaml:"allocate"`
	PID      int    `yaml:"pid"`
	Value    string `yaml:"value"`
	Page     int    `yaml:"page"`
	Count    int    `yaml:"count"`
	Unique   bool   `yaml:"unique"`
	Address  int    `yaml:"address"`
	Kind     string `yaml:"kind"`
}

func (s Step) String() string {
	switch s.Op {
	case OpCreate:
		return fmt.Sprintf("create %q size=%d priority=%d", s.Name, s.Size, s.Priority)
	case OpAllocate, OpDeallocate, OpTerminate:
		return fmt.Sprintf("%s pid=%d", s.Op, s.PID)
	case OpStrategy, OpPolicy:
		return fmt.Sprintf("%s %s", s.Op, s.Value)
	case OpAccess:
		return fmt.Sprintf("access page=%d", s.Page)
	case OpBatch:
		return fmt.Sprintf("batch count=%d", s.Count)
	case OpTranslate:
		if s.Kind != "" {
			return fmt.Sprintf("translate pid=%d %s+%d", s.PID, strings.ToUpper(s.Kind), s.Address)
		}
		return fmt.Sprintf("translate pid=%d address=%d", s.PID, s.Address)
	default:
		return s.Op
	}
}

// Scenario is a memory configuration plus an ordered list of steps. Seed
// drives batch steps; zero lets the runner pick one.
type Scenario struct {
	Memory Config `yaml:"memory"`
	Seed   uint64 `yaml:"seed"`
	Steps  []Step `yaml:"steps"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario. Memory settings not present in the file
// keep their defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{Memory: *Default()}
	if err := decodeYAML(data, sc); err != nil {
		return nil, err
	}
	if _, err := sc.Memory.Options(); err != nil {
		return nil, err
	}
	for i := range sc.Steps {
		st := &sc.Steps[i]
		st.Op = strings.ToLower(strings.TrimSpace(st.Op))
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("%w: step %d: %w", ErrInvalid, i+1, err)
		}
	}
	return sc, nil
}

func (s Step) validate() error {
	switch s.Op {
	case OpCreate:
		if s.Size <= 0 {
			return fmt.Errorf("create needs a positive size, got %d", s.Size)
		}
	case OpAllocate, OpDeallocate, OpTerminate:
		if s.PID <= 0 {
			return fmt.Errorf("%s needs a pid", s.Op)
		}
	case OpStrategy, OpPolicy:
		if s.Value == "" {
			return fmt.Errorf("%s needs a value", s.Op)
		}
	case OpBatch:
		if s.Count < 0 {
			return fmt.Errorf("batch count must not be negative, got %d", s.Count)
		}
	case OpTranslate:
		if s.PID <= 0 {
			return fmt.Errorf("%s needs a pid", s.Op)
		}
		if s.Address < 0 {
			return fmt.Errorf("translate address must not be negative, got %d", s.Address)
		}
		if s.Kind != "" {
			if _, err := segment.ParseKind(s.Kind); err != nil {
				return err
			}
		}
	case OpAccess, OpCompact, OpReset, OpDeallocateAll:
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}
