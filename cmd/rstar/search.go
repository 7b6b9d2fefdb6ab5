package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/hupe1980/rstar"
	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/linearscan"
	"github.com/hupe1980/rstar/query"
)

// searchFlags are shared by range and knn.
type searchFlags struct {
	store  storeFlags
	q      string
	id     uint
	in     string
	boxes  bool
	metric string
	linear bool
}

func (s *searchFlags) register(set *flag.FlagSet) {
	s.store.register(set)
	set.StringVar(&s.q, "q", "", "query point as comma-separated coordinates")
	set.UintVar(&s.id, "id", 0, "query by object id (requires -in)")
	set.StringVar(&s.in, "in", "", "CSV file with the indexed objects, for -id and -linear")
	set.BoolVar(&s.boxes, "boxes", false, "records in -in hold boxes")
	set.StringVar(&s.metric, "metric", "euclidean", "distance: euclidean, squared-euclidean, manhattan, chebyshev or cosine")
	set.BoolVar(&s.linear, "linear", false, "scan -in instead of using the index")
}

// run resolves the query point and runs fn against the index or a linear
// scan of -in.
func (s *searchFlags) run(ctx context.Context, fn func(ctx context.Context, srch query.Searcher, q []float64, df distance.Func) ([]query.Result, error)) (err error) {
	df, err := distance.ByName(s.metric)
	if err != nil {
		return err
	}

	var rel *query.MemoryRelation
	if s.in != "" {
		var dim int
		if s.q != "" {
			v, err := parseVector(s.q)
			if err != nil {
				return err
			}
			dim = len(v)
		}
		if dim == 0 {
			if dim, err = s.indexDimension(ctx); err != nil {
				return err
			}
		}
		objs, err := readObjects(s.in, dim, s.boxes)
		if err != nil {
			return err
		}
		rel = query.NewMemoryRelation(objs...)
	}

	var q []float64
	switch {
	case s.id != 0:
		if rel == nil {
			return errors.New("-id requires -in")
		}
		if q, err = query.Reference(rel, uint32(s.id)); err != nil {
			return err
		}
	case s.q != "":
		if q, err = parseVector(s.q); err != nil {
			return err
		}
	default:
		return errors.New("one of -q or -id is required")
	}

	var srch query.Searcher
	if s.linear {
		if rel == nil {
			return errors.New("-linear requires -in")
		}
		srch = linearscan.New(rel)
	} else {
		pf, closePF, openErr := s.store.openPageFile(ctx, true)
		if openErr != nil {
			return openErr
		}
		defer func() { err = errors.Join(err, closePF()) }()
		tree, openErr := rstar.Open(ctx, pf)
		if openErr != nil {
			return openErr
		}
		srch = tree
	}

	start := time.Now()
	res, err := fn(ctx, srch, q, df)
	if err != nil {
		return err
	}
	printResults(res, time.Since(start))
	return nil
}

func (s *searchFlags) indexDimension(ctx context.Context) (int, error) {
	pf, closePF, err := s.store.openPageFile(ctx, true)
	if err != nil {
		return 0, err
	}
	defer closePF()
	tree, err := rstar.Open(ctx, pf)
	if err != nil {
		return 0, err
	}
	return tree.Dimension(), nil
}

func printResults(res []query.Result, elapsed time.Duration) {
	for i, r := range res {
		fmt.Printf("%4d  %s  %.6g\n", i+1, color.CyanString("%10d", r.ID), r.Distance)
	}
	fmt.Printf("%s in %s\n", color.GreenString("%d results", len(res)), elapsed.Round(time.Microsecond))
}

func runRange(ctx context.Context, args []string) error {
	var sf searchFlags
	set := flag.NewFlagSet("range", flag.ContinueOnError)
	sf.register(set)
	eps := set.Float64("eps", 1, "distance threshold")
	if err := set.Parse(args); err != nil {
		return err
	}
	return sf.run(ctx, func(ctx context.Context, srch query.Searcher, q []float64, df distance.Func) ([]query.Result, error) {
		return srch.Range(ctx, q, *eps, df)
	})
}

func runKNN(ctx context.Context, args []string) error {
	var sf searchFlags
	set := flag.NewFlagSet("knn", flag.ContinueOnError)
	sf.register(set)
	k := set.Int("k", 10, "number of neighbors")
	if err := set.Parse(args); err != nil {
		return err
	}
	return sf.run(ctx, func(ctx context.Context, srch query.Searcher, q []float64, df distance.Func) ([]query.Result, error) {
		return srch.KNN(ctx, q, *k, df)
	})
}
