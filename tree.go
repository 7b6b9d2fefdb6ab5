package rstar

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/pagefile"
	"github.com/hupe1980/rstar/query"
	"github.com/hupe1980/rstar/spatial"
)

// Compile time check to ensure Tree satisfies the Searcher interface.
var _ query.Searcher = (*Tree)(nil)

const metaFormat = "rstar/1"

// meta is the tree state stored in the page file header.
type meta struct {
	Format       string `json:"format"`
	Dimension    int    `json:"dimension"`
	LeafCapacity int    `json:"leaf_capacity"`
	DirCapacity  int    `json:"dir_capacity"`
	Root         uint32 `json:"root"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
}

// Tree is a page-backed R*-tree.
//
// A Tree follows a single-writer discipline: mutations must be serialized
// by the caller. Queries may run concurrently with each other as long as no
// mutation is in progress.
type Tree struct {
	pf      *pagefile.PageFile
	opts    Options
	hooks   Hooks
	logger  *Logger
	metrics MetricsCollector

	dim     int
	leafCap int
	dirCap  int
	minLeaf int
	minDir  int

	root   node.PageID
	height int // 1 means the root is a leaf
	size   int
}

func buildOptions(optFns []func(o *Options)) (Options, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MinFill <= 0 || opts.MinFill > 0.5 || math.IsNaN(opts.MinFill) {
		return opts, fmt.Errorf("rstar: min fill %v must be in (0, 0.5]", opts.MinFill)
	}
	if opts.BulkStrategy == nil {
		opts.BulkStrategy = DefaultOptions().BulkStrategy
	}
	if opts.Hooks == nil {
		opts.Hooks = DefaultHooks{}
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}
	return opts, nil
}

func resolveCapacity(kind node.Kind, requested, dim, budget int) (int, error) {
	limit := node.MaxEntries(kind, dim, budget)
	if requested == 0 {
		requested = limit
	}
	if requested < 2 || requested > limit {
		return 0, &ErrInvalidCapacity{Kind: kind, Capacity: requested, Max: limit}
	}
	return requested, nil
}

func newTree(pf *pagefile.PageFile, opts Options) *Tree {
	return &Tree{
		pf:      pf,
		opts:    opts,
		hooks:   opts.Hooks,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		dim:     opts.Dimension,
	}
}

func (t *Tree) setCapacities(leaf, dir int) {
	t.leafCap, t.dirCap = leaf, dir
	t.minLeaf = minEntries(leaf, t.opts.MinFill)
	t.minDir = minEntries(dir, t.opts.MinFill)
}

// minEntries is the smallest group a split of capacity+1 entries may create.
func minEntries(capacity int, fill float64) int {
	m := max(1, int(float64(capacity)*fill))
	return min(m, (capacity+1)/2)
}

// New creates an empty tree in pf.
func New(ctx context.Context, pf *pagefile.PageFile, optFns ...func(o *Options)) (*Tree, error) {
	opts, err := buildOptions(optFns)
	if err != nil {
		return nil, err
	}
	if opts.Dimension <= 0 || opts.Dimension > math.MaxUint16 {
		return nil, &ErrInvalidDimension{Dimension: opts.Dimension}
	}
	if len(pf.Meta()) > 0 {
		return nil, ErrTreeExists
	}

	leaf, err := resolveCapacity(node.KindLeaf, opts.LeafCapacity, opts.Dimension, pf.PayloadBudget())
	if err != nil {
		return nil, err
	}
	dir, err := resolveCapacity(node.KindDirectory, opts.DirCapacity, opts.Dimension, pf.PayloadBudget())
	if err != nil {
		return nil, err
	}

	t := newTree(pf, opts)
	t.setCapacities(leaf, dir)

	root, err := pf.Allocate(ctx)
	if err != nil {
		return nil, err
	}
	if err := pf.Write(ctx, node.NewLeaf(root, leaf)); err != nil {
		return nil, err
	}
	t.root, t.height = root, 1
	if err := t.saveMeta(); err != nil {
		return nil, err
	}

	t.logger.DebugContext(ctx, "tree created",
		"dimension", t.dim,
		"leaf_capacity", leaf,
		"dir_capacity", dir,
	)
	return t, nil
}

// Open loads the tree stored in pf. Capacities come from the stored tree;
// a non-zero Dimension option must match it.
func Open(ctx context.Context, pf *pagefile.PageFile, optFns ...func(o *Options)) (*Tree, error) {
	opts, err := buildOptions(optFns)
	if err != nil {
		return nil, err
	}
	raw := pf.Meta()
	if len(raw) == 0 {
		return nil, ErrNoTree
	}
	var m meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("rstar: decode tree metadata: %w", err)
	}
	if m.Format != metaFormat {
		return nil, fmt.Errorf("rstar: unsupported tree format %q", m.Format)
	}
	if opts.Dimension != 0 && opts.Dimension != m.Dimension {
		return nil, &ErrDimensionMismatch{Expected: m.Dimension, Actual: opts.Dimension}
	}
	if m.Height < 1 || m.Size < 0 {
		return nil, fmt.Errorf("rstar: invalid tree metadata: height %d, size %d", m.Height, m.Size)
	}

	opts.Dimension = m.Dimension
	t := newTree(pf, opts)
	t.setCapacities(m.LeafCapacity, m.DirCapacity)
	t.root, t.height, t.size = node.PageID(m.Root), m.Height, m.Size

	if _, err := t.readNode(ctx, t.root, t.height); err != nil {
		return nil, fmt.Errorf("rstar: read root: %w", err)
	}
	return t, nil
}

func (t *Tree) saveMeta() error {
	raw, err := json.Marshal(meta{
		Format:       metaFormat,
		Dimension:    t.dim,
		LeafCapacity: t.leafCap,
		DirCapacity:  t.dirCap,
		Root:         uint32(t.root),
		Height:       t.height,
		Size:         t.size,
	})
	if err != nil {
		return err
	}
	t.pf.SetMeta(raw)
	return nil
}

// readNode reads a node expected at the given level (1 = leaf).
func (t *Tree) readNode(ctx context.Context, id node.PageID, level int) (*node.Node, error) {
	kind, capacity := node.KindDirectory, t.dirCap
	if level == 1 {
		kind, capacity = node.KindLeaf, t.leafCap
	}
	n, err := t.pf.ReadKind(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	n.Capacity = capacity
	return n, nil
}

// Dimension returns the object dimensionality.
func (t *Tree) Dimension() int { return t.dim }

// Height returns the number of levels; a tree whose root is a leaf has height 1.
func (t *Tree) Height() int { return t.height }

// Size returns the number of stored objects.
func (t *Tree) Size() int { return t.size }

// LeafCapacity returns the maximum number of objects per leaf.
func (t *Tree) LeafCapacity() int { return t.leafCap }

// DirCapacity returns the maximum number of children per directory node.
func (t *Tree) DirCapacity() int { return t.dirCap }

// Root returns the root page id.
func (t *Tree) Root() node.PageID { return t.root }

// PageFile returns the backing page file.
func (t *Tree) PageFile() *pagefile.PageFile { return t.pf }

// Logger returns the tree's logger.
func (t *Tree) Logger() *Logger { return t.logger }

// ReadNode returns a copy of the node stored at id.
func (t *Tree) ReadNode(ctx context.Context, id node.PageID) (*node.Node, error) {
	n, err := t.pf.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Capacity = t.dirCap
	if n.IsLeaf() {
		n.Capacity = t.leafCap
	}
	return n, nil
}

// RootEntry returns a directory entry describing the root node, created
// through the tree's hooks.
func (t *Tree) RootEntry(ctx context.Context) (node.Entry, error) {
	root, err := t.readNode(ctx, t.root, t.height)
	if err != nil {
		return node.Entry{}, err
	}
	return t.hooks.DirectoryEntry(root), nil
}

// Extent returns the bounding box of all objects.
func (t *Tree) Extent(ctx context.Context) (spatial.Rect, error) {
	if t.size == 0 {
		return spatial.Rect{}, ErrEmptyTree
	}
	root, err := t.readNode(ctx, t.root, t.height)
	if err != nil {
		return spatial.Rect{}, err
	}
	return root.MBR(), nil
}

// Flush persists the tree metadata and every dirty page.
func (t *Tree) Flush(ctx context.Context) error {
	err := t.saveMeta()
	if err == nil {
		err = t.pf.Flush(ctx)
	}
	t.logger.LogFlush(ctx, t.size, t.height, err)
	return err
}

// Close flushes the tree and closes its page file.
func (t *Tree) Close() error {
	if err := t.saveMeta(); err != nil {
		return err
	}
	err := t.pf.Close()
	if errors.Is(err, pagefile.ErrClosed) {
		return nil
	}
	return err
}

func (t *Tree) checkDim(d int) error {
	if d != t.dim {
		return &ErrDimensionMismatch{Expected: t.dim, Actual: d}
	}
	return nil
}

func checkRect(r spatial.Rect) error {
	_, err := spatial.NewRect(r.Min, r.Max)
	return err
}
