package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/hupe1980/rstar"
)

type levelStats struct {
	nodes   int
	entries int
	cap     int
}

func runInspect(ctx context.Context, args []string) (err error) {
	var sf storeFlags
	set := flag.NewFlagSet("inspect", flag.ContinueOnError)
	sf.register(set)
	validate := set.Bool("validate", false, "check structural invariants")
	if err := set.Parse(args); err != nil {
		return err
	}

	pf, closePF, err := sf.openPageFile(ctx, true)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closePF()) }()

	tree, err := rstar.Open(ctx, pf)
	if err != nil {
		return err
	}

	heading := color.New(color.Bold, color.FgYellow).SprintFunc()
	fmt.Println(heading("Index"))
	fmt.Printf("  store        %s %s\n", sf.backend, sf.path)
	if fi, err := os.Stat(sf.path); err == nil && sf.backend == backendFile {
		fmt.Printf("  file size    %s\n", humanize.Bytes(uint64(fi.Size())))
	}
	fmt.Printf("  page size    %s\n", humanize.Bytes(uint64(pf.PageSize())))
	fmt.Printf("  pages        %s\n", humanize.Comma(int64(pf.NumPages())))
	fmt.Printf("  dimension    %d\n", tree.Dimension())
	fmt.Printf("  objects      %s\n", humanize.Comma(int64(tree.Size())))
	fmt.Printf("  height       %d\n", tree.Height())
	fmt.Printf("  capacities   leaf %d, directory %d\n", tree.LeafCapacity(), tree.DirCapacity())
	if ext, err := tree.Extent(ctx); err == nil {
		fmt.Printf("  extent       %s\n", ext)
	}

	levels := make([]levelStats, tree.Height())
	for v, err := range tree.Walk(ctx) {
		if err != nil {
			return err
		}
		ls := &levels[v.Path.Depth()]
		ls.nodes++
		ls.entries += v.Node.Len()
		ls.cap += v.Node.Capacity
	}

	fmt.Println(heading("Levels"))
	for depth, ls := range levels {
		kind := "directory"
		if depth == len(levels)-1 {
			kind = "leaf"
		}
		fill := 0.0
		if ls.cap > 0 {
			fill = 100 * float64(ls.entries) / float64(ls.cap)
		}
		fmt.Printf("  %d %-9s  %8s nodes  %10s entries  %5.1f%% full\n",
			depth, kind, humanize.Comma(int64(ls.nodes)), humanize.Comma(int64(ls.entries)), fill)
	}

	st := pf.Stats()
	fmt.Println(heading("Page file"))
	fmt.Printf("  reads %s, cache hits %s, misses %s\n",
		humanize.Comma(st.Reads), humanize.Comma(st.Hits), humanize.Comma(st.Misses))

	if *validate {
		if err := tree.Validate(ctx); err != nil {
			fmt.Println(color.RedString("invalid"))
			return err
		}
		fmt.Println(color.GreenString("valid"))
	}
	return nil
}
