package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/hupe1980/rstar"
	"github.com/hupe1980/rstar/bulk"
)

func runBuild(ctx context.Context, args []string) (err error) {
	var sf storeFlags
	set := flag.NewFlagSet("build", flag.ContinueOnError)
	sf.register(set)
	in := set.String("in", "points.csv", "input CSV file")
	dim := set.Int("dim", 2, "object dimensionality")
	boxes := set.Bool("boxes", false, "records hold boxes (id, min..., max...) instead of points")
	mode := set.String("mode", "bulk", "construction: bulk or insert")
	strategy := set.String("strategy", bulk.NameSortTrisect, "bulk split strategy: sort-trisect, max-extent or none")
	leaf := set.Int("leaf", 0, "leaf capacity (0 = fill a page)")
	dir := set.Int("dir", 0, "directory capacity (0 = fill a page)")
	if err := set.Parse(args); err != nil {
		return err
	}

	strat, err := bulk.ByName(*strategy)
	if err != nil {
		return err
	}
	objs, err := readObjects(*in, *dim, *boxes)
	if err != nil {
		return err
	}

	pf, closePF, err := sf.openPageFile(ctx, false)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closePF()) }()

	level := slog.LevelWarn
	if sf.verbose {
		level = slog.LevelDebug
	}
	metrics := &rstar.BasicMetricsCollector{}
	tree, err := rstar.New(ctx, pf,
		rstar.WithDimension(*dim),
		rstar.WithCapacity(*leaf, *dir),
		rstar.WithBulkStrategy(strat),
		rstar.WithLogger(rstar.NewTextLogger(level)),
		rstar.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	switch *mode {
	case "bulk":
		err = tree.BulkLoad(ctx, objs)
	case "insert":
		err = tree.InsertAll(ctx, objs)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		return err
	}
	if err := tree.Flush(ctx); err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := metrics.GetStats()
	fmt.Printf("%s %s objects in %s (%s)\n",
		color.GreenString("built"),
		humanize.Comma(int64(tree.Size())),
		elapsed.Round(time.Millisecond),
		*mode,
	)
	fmt.Printf("  height %d, leaf capacity %d, dir capacity %d\n", tree.Height(), tree.LeafCapacity(), tree.DirCapacity())
	fmt.Printf("  splits: %s leaf, %s directory\n", humanize.Comma(st.LeafSplits), humanize.Comma(st.DirectorySplits))
	if fi, err := os.Stat(sf.path); err == nil && sf.backend == backendFile {
		fmt.Printf("  file %s: %s\n", sf.path, humanize.Bytes(uint64(fi.Size())))
	}
	return nil
}
