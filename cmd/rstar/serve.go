package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/hupe1980/rstar"
	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type searchResponse struct {
	Results []query.Result `json:"results"`
	Took    string         `json:"took"`
}

// queryHandler serves /range and /knn over a read-only tree.
type queryHandler struct {
	tree *rstar.Tree
	knn  bool
}

func (h queryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := parseVector(params.Get("q"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	metric := params.Get("metric")
	if metric == "" {
		metric = "euclidean"
	}
	df, err := distance.ByName(metric)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	var res []query.Result
	if h.knn {
		k, perr := strconv.Atoi(params.Get("k"))
		if perr != nil {
			http.Error(w, "invalid k", http.StatusBadRequest)
			return
		}
		res, err = h.tree.KNN(r.Context(), q, k, df)
	} else {
		eps, perr := strconv.ParseFloat(params.Get("eps"), 64)
		if perr != nil {
			http.Error(w, "invalid eps", http.StatusBadRequest)
			return
		}
		res, err = h.tree.Range(r.Context(), q, eps, df)
	}
	if err != nil {
		code := http.StatusInternalServerError
		var dm *rstar.ErrDimensionMismatch
		if errors.As(err, &dm) || errors.Is(err, rstar.ErrInvalidK) || errors.Is(err, rstar.ErrNonMetric) {
			code = http.StatusBadRequest
		}
		http.Error(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(searchResponse{Results: res, Took: time.Since(start).String()})
}

func runServe(ctx context.Context, args []string) (err error) {
	var sf storeFlags
	set := flag.NewFlagSet("serve", flag.ContinueOnError)
	sf.register(set)
	addr := set.String("addr", ":8080", "listen address")
	if err := set.Parse(args); err != nil {
		return err
	}

	pf, closePF, err := sf.openPageFile(ctx, true)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closePF()) }()

	reg := prometheus.NewRegistry()
	tree, err := rstar.Open(ctx, pf,
		rstar.WithMetrics(newPromMetrics(reg)),
		rstar.WithLogger(rstar.NewLogger(sf.logger().Handler())),
	)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/range", queryHandler{tree: tree})
	mux.Handle("/knn", queryHandler{tree: tree, knn: true})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("serving %s (%d objects) on %s\n", sf.path, tree.Size(), *addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
