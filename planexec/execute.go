package planexec

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/coldb/joinengine/colbuf"
	"github.com/coldb/joinengine/colpage"
	"github.com/coldb/joinengine/jointable"
	"github.com/coldb/joinengine/joinerr"
	"github.com/coldb/joinengine/probe"
)

// joinState is the per-join-node lifecycle the execution log reports
// against; it exists purely for diagnostics, not control flow.
type joinState int

const (
	statePending joinState = iota
	stateChildrenDone
	stateHashBuilt
	stateProbed
	stateMaterialized
	stateEmitted
	stateBuildFailed
	stateProbeFailed
)

func (s joinState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateChildrenDone:
		return "children_done"
	case stateHashBuilt:
		return "hash_built"
	case stateProbed:
		return "probed"
	case stateMaterialized:
		return "materialized"
	case stateEmitted:
		return "emitted"
	case stateBuildFailed:
		return "build_failed"
	case stateProbeFailed:
		return "probe_failed"
	default:
		return "unknown"
	}
}

// Engine executes plans against a fixed catalog of input tables.
type Engine struct {
	catalog *colpage.Catalog
	cfg     EngineConfig
	log     *zap.Logger
}

// New returns an Engine reading from catalog. A nil logger installs
// zap.NewNop().
func New(catalog *colpage.Catalog, cfg EngineConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{catalog: catalog, cfg: cfg, log: log}
}

func (e *Engine) workerCount() int {
	if e.cfg.NumWorkers > 0 {
		return e.cfg.NumWorkers
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// Execute runs plan to completion and finalizes the root node's output
// into an externally visible columnar table.
func (e *Engine) Execute(ctx context.Context, plan *Plan) (colpage.Table, error) {
	if plan.Root < 0 || plan.Root >= len(plan.Nodes) {
		return colpage.Table{}, errors.Wrapf(joinerr.ErrUnsupportedPlanShape, "execute: root index %d out of range", plan.Root)
	}
	rows, err := e.executeNode(ctx, plan, plan.Root)
	if err != nil {
		return colpage.Table{}, err
	}
	return e.Finalize(rows)
}

func (e *Engine) executeNode(ctx context.Context, plan *Plan, idx int) (*RowSet, error) {
	if idx < 0 || idx >= len(plan.Nodes) {
		return nil, errors.Wrapf(joinerr.ErrUnsupportedPlanShape, "execute: node index %d out of range", idx)
	}
	switch n := plan.Nodes[idx].(type) {
	case *ScanNode:
		return e.executeScan(n)
	case *JoinNode:
		return e.executeJoin(ctx, plan, n)
	default:
		return nil, errors.Wrapf(joinerr.ErrUnsupportedPlanShape, "execute: node %d has unrecognized type %T", idx, n)
	}
}

func (e *Engine) executeScan(n *ScanNode) (*RowSet, error) {
	if n.BaseTableID < 0 || n.BaseTableID >= len(e.catalog.Tables) {
		return nil, errors.Wrapf(joinerr.ErrBadReference, "scan: base table %d out of range", n.BaseTableID)
	}
	table := &e.catalog.Tables[n.BaseTableID]
	cols := make([]ColumnView, len(n.OutputAttrs))
	var numRows int
	for i, attr := range n.OutputAttrs {
		if attr.SourceCol < 0 || attr.SourceCol >= len(table.Columns) {
			return nil, errors.Wrapf(joinerr.ErrBadReference, "scan: source column %d out of range", attr.SourceCol)
		}
		col := table.Columns[attr.SourceCol]
		buf := colbuf.Build(uint8(n.BaseTableID), uint8(attr.SourceCol), col)
		cols[i] = &scanColumn{buf: buf}
		numRows = buf.Len()
	}
	return &RowSet{Columns: cols, numRows: numRows}, nil
}

// joinStrategy runs the build+probe for one supported key type and
// returns the matched (build-row, probe-row) pairs. It is the engine's
// dispatch-table entry for (key_type); build_side has already been
// resolved into "build" vs "probe" column views by the caller.
type joinStrategy func(ctx context.Context, e *Engine, build, probeCol ColumnView) (*probe.Result, error)

var joinDispatch = map[colpage.DataType]joinStrategy{
	colpage.I32:     runI32Join,
	colpage.VARCHAR: runPackedRefJoin,
}

func runI32Join(ctx context.Context, e *Engine, build, probeCol ColumnView) (*probe.Result, error) {
	entries := make([]jointable.Entry[int32], 0, build.Len())
	for i := 0; i < build.Len(); i++ {
		v, ok := build.I32(i)
		if !ok {
			continue
		}
		entries = append(entries, jointable.Entry[int32]{Key: v, RowID: uint32(i)})
	}
	numWorkers := e.workerCount()
	if build.Len() < e.cfg.BuildParallelMinRows {
		numWorkers = 1
	}
	dir, err := jointable.Build(ctx, entries, jointable.HashI32, numWorkers, e.cfg.TargetBucketLoad)
	if err != nil {
		return nil, errors.Wrap(err, "join: build hash table")
	}

	probeWorkers := e.workerCount()
	if probeCol.Len() < e.cfg.ProbeParallelMinRows {
		probeWorkers = 1
	}
	res, err := probe.I32(ctx, probeCol.Len(), i32ReaderFactory(probeCol), dir, probeWorkers, e.cfg.WorkBlockMin, e.cfg.BlocksPerThread)
	if err != nil {
		return nil, errors.Wrap(err, "join: probe")
	}
	return res, nil
}

func runPackedRefJoin(ctx context.Context, e *Engine, build, probeCol ColumnView) (*probe.Result, error) {
	entries := make([]jointable.Entry[uint64], 0, build.Len())
	for i := 0; i < build.Len(); i++ {
		ref := build.Ref(i)
		if ref.IsNull() {
			continue
		}
		entries = append(entries, jointable.Entry[uint64]{Key: uint64(ref), RowID: uint32(i)})
	}
	numWorkers := e.workerCount()
	if build.Len() < e.cfg.BuildParallelMinRows {
		numWorkers = 1
	}
	dir, err := jointable.Build(ctx, entries, jointable.HashPackedRef, numWorkers, e.cfg.TargetBucketLoad)
	if err != nil {
		return nil, errors.Wrap(err, "join: build hash table")
	}

	probeWorkers := e.workerCount()
	if probeCol.Len() < e.cfg.ProbeParallelMinRows {
		probeWorkers = 1
	}
	res, err := probe.PackedRef(ctx, probeCol.Len(), refReaderFactory(probeCol), dir, probeWorkers, e.cfg.WorkBlockMin, e.cfg.BlocksPerThread)
	if err != nil {
		return nil, errors.Wrap(err, "join: probe")
	}
	return res, nil
}

func (e *Engine) executeJoin(ctx context.Context, plan *Plan, n *JoinNode) (*RowSet, error) {
	state := statePending
	e.log.Debug("join: starting", zap.String("state", state.String()))

	left, err := e.executeNode(ctx, plan, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.executeNode(ctx, plan, n.Right)
	if err != nil {
		return nil, err
	}
	state = stateChildrenDone
	leftArity := len(left.Columns)

	var buildSet, probeSet *RowSet
	var buildAttr, probeAttr int
	if n.BuildLeft {
		buildSet, probeSet = left, right
		buildAttr, probeAttr = n.LeftAttr, n.RightAttr
	} else {
		buildSet, probeSet = right, left
		buildAttr, probeAttr = n.RightAttr, n.LeftAttr
	}
	if buildAttr < 0 || buildAttr >= len(buildSet.Columns) || probeAttr < 0 || probeAttr >= len(probeSet.Columns) {
		return nil, errors.Wrap(joinerr.ErrUnsupportedPlanShape, "join: key attribute index out of range")
	}

	keyType := buildSet.Columns[buildAttr].Type()
	strategy, ok := joinDispatch[keyType]
	if !ok {
		state = stateBuildFailed
		return nil, errors.Wrapf(joinerr.ErrUnsupportedKeyType, "join: key type %s", keyType)
	}
	if probeSet.Columns[probeAttr].Type() != keyType {
		state = stateProbeFailed
		return nil, errors.Wrapf(joinerr.ErrUnsupportedKeyType, "join: probe key type %s does not match build key type %s", probeSet.Columns[probeAttr].Type(), keyType)
	}

	res, err := strategy(ctx, e, buildSet.Columns[buildAttr], probeSet.Columns[probeAttr])
	if err != nil {
		state = stateProbeFailed
		e.log.Error("join: probe failed", zap.Error(err), zap.String("state", state.String()))
		return nil, err
	}
	state = stateProbed

	matches := res.Flatten()
	out := make([]ColumnView, len(n.OutputAttrs))
	for i, attr := range n.OutputAttrs {
		out[i] = newMaterializedColumn(attr.Type)
	}
	for _, m := range matches {
		var leftRow, rightRow int
		if n.BuildLeft {
			leftRow, rightRow = int(m.BuildRow), int(m.ProbeRow)
		} else {
			leftRow, rightRow = int(m.ProbeRow), int(m.BuildRow)
		}
		for i, attr := range n.OutputAttrs {
			col := out[i].(*materializedColumn)
			if attr.SourceCol < leftArity {
				col.appendFrom(left.Columns[attr.SourceCol], leftRow)
			} else {
				col.appendFrom(right.Columns[attr.SourceCol-leftArity], rightRow)
			}
		}
	}
	state = stateMaterialized
	e.log.Debug("join: done", zap.Int("rows", len(matches)), zap.String("state", state.String()))
	state = stateEmitted
	e.log.Debug("join: emitted", zap.String("state", state.String()))

	return &RowSet{Columns: out, numRows: len(matches)}, nil
}
