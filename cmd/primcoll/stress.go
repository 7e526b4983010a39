// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/common/reuse"
	"github.com/matrixorigin/primcoll/pkg/config"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"github.com/matrixorigin/primcoll/pkg/workload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type stressOptions struct {
	configFile  string
	workers     int
	ops         int
	seed        uint64
	types       []string
	metricsAddr string
}

func stressCommand() *cobra.Command {
	opts := &stressOptions{}
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run the randomized stress workload over every collection",
		Long: "Drive every collection with random operations, compare each result with a " +
			"reference model and report the violations found",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runStress(config.NewContext(cmd.Context(), cfg), cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "toml configuration file")
	flags.IntVar(&opts.workers, "workers", 0, "tasks per collection type, overrides the config")
	flags.IntVar(&opts.ops, "ops", 0, "operations per task, overrides the config")
	flags.Uint64Var(&opts.seed, "seed", 0, "base seed, overrides the config")
	flags.StringSliceVar(&opts.types, "types", nil, "collection types to run, all if empty")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}

func (o *stressOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(o.configFile); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Stress.Workers = o.workers
	}
	if flags.Changed("ops") {
		cfg.Stress.Ops = o.ops
	}
	if flags.Changed("seed") {
		cfg.Collections.Seed = o.seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runStress(ctx context.Context, out io.Writer, opts *stressOptions) error {
	cfg := config.GetConfig(ctx)
	logutil.SetupLogger(&cfg.Log)
	reuse.SetAllocateIterators(cfg.Collections.AllocateIterators)

	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	reports, err := workload.Run(ctx, cfg, opts.types...)
	if err != nil {
		return err
	}
	printReports(out, reports)

	var violations uint64
	for _, r := range reports {
		violations += r.Violations
	}
	if violations > 0 {
		return moerr.NewInvalidStateNoCtx("stress found %d violations", violations)
	}
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(v2.GetPrometheusGatherer(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutil.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logutil.Info("serving metrics", zap.String("addr", addr))
	return srv
}

func printReports(out io.Writer, reports []workload.Report) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tTASKS\tOPS\tVIOLATIONS\tDISTINCT\tLIVE\tDURATION")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Type, r.Tasks, r.Ops, r.Violations, r.Distinct, r.Live, r.Duration.Round(time.Millisecond))
	}
	_ = w.Flush()
}
