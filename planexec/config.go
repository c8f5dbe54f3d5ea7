package planexec

import "github.com/c2h5oh/datasize"

// EngineConfig collects the tuning knobs exposed to callers embedding
// the engine. Zero values are not valid configuration; use
// DefaultEngineConfig and override individual fields.
type EngineConfig struct {
	// WorkBlockMin is the floor on a work-stealing probe block size.
	WorkBlockMin int
	// BlocksPerThread targets this many steals per worker over a probe.
	BlocksPerThread int
	// BuildParallelMinRows is the row count at or above which the hash
	// table builder switches from a single-threaded build to the
	// partition-parallel build.
	BuildParallelMinRows int
	// ProbeParallelMinRows is the row count at or above which the probe
	// fans out across worker goroutines instead of running on a single
	// worker.
	ProbeParallelMinRows int
	// GlobalBlockSize is carried in the configuration but is not read by
	// the engine: the hash table builder's slab global arena always
	// hands out blocks of a fixed 4096 tuples, whatever this is set to.
	GlobalBlockSize datasize.ByteSize
	// TargetBucketLoad is the average tuple count per directory slot
	// the hash table directory is sized for.
	TargetBucketLoad int
	// NumWorkers bounds goroutine fan-out for both build and probe; 0
	// means derive it from runtime.GOMAXPROCS.
	NumWorkers int
}

// DefaultEngineConfig returns the engine's default tuning, matching the
// knobs a caller may override via configuration plumbing outside the
// core.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WorkBlockMin:         256,
		BlocksPerThread:      16,
		BuildParallelMinRows: 2048,
		ProbeParallelMinRows: 262144,
		GlobalBlockSize:      4 * datasize.MB,
		TargetBucketLoad:     8,
		NumWorkers:           0,
	}
}
