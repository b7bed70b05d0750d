// Package workload drives a memory.Manager with generated or scripted
// process sequences: random batches, the stress test, and YAML scenarios.
package workload

import (
	"math/rand/v2"

	"github.com/thanhpk/randstr"

	"github.com/joshuapare/memsim/memory/process"
)

// Names is the pool generated processes are named from.
var Names = []string{
	"Browser", "TextEditor", "MediaPlayer", "Calculator", "FileManager",
	"Compiler", "Database", "WebServer", "ImageEditor", "GameEngine",
	"Antivirus", "Messenger", "DownloadManager", "VideoEncoder", "BackupTool",
}

// Template describes a process to create.
type Template struct {
	Name     string
	Size     int
	Priority int
}

// Generator produces random process descriptions. Sizes fall in
// [MinSize, MaxSize) and priorities in [1, 10].
type Generator struct {
	MinSize int
	MaxSize int

	// Unique appends a short random hex tag to every name so repeated names
	// can be told apart in listings. Tags do not depend on the seed.
	Unique bool

	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed. Equal seeds give equal
// sequences unless Unique is set.
func NewGenerator(minSize, maxSize int, seed uint64) *Generator {
	return &Generator{
		MinSize: minSize,
		MaxSize: maxSize,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Next returns the next random process description.
func (g *Generator) Next() Template {
	name := Names[g.rng.IntN(len(Names))]
	if g.Unique {
		name += "-" + randstr.Hex(2)
	}
	size := g.MinSize
	if span := g.MaxSize - g.MinSize; span > 0 {
		size += g.rng.IntN(span)
	}
	return Template{
		Name:     name,
		Size:     max(size, 1),
		Priority: process.MinPriority + g.rng.IntN(process.MaxPriority-process.MinPriority+1),
	}
}
