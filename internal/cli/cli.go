// Package cli implements the vrp command line: solve an instance file and
// print the cheapest plan found.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vrproute/internal/buildinfo"
	"vrproute/internal/config"
	"vrproute/internal/graph"
	"vrproute/internal/instance"
	"vrproute/internal/model"
	"vrproute/internal/opt"
	"vrproute/internal/report"
	"vrproute/internal/sysinfo"
)

// ErrBadParam reports a missing or non-positive capacity or stop limit.
var ErrBadParam = errors.New("invalid parameter")

// BuildCLI returns the root command. Prompts read from in; results go to
// out and progress lines to errOut.
func BuildCLI(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "vrp",
		Short:         "Capacitated vehicle routing from a single depot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (YAML)")
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.AddCommand(buildSolveCommand(&configFile))
	root.AddCommand(buildVersionCommand())
	return root
}

type solveFlags struct {
	algorithm string
	parallel  bool
	workers   int
	timeout   time.Duration
	progress  bool
	json      bool
}

func buildSolveCommand(configFile *string) *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "solve FILE [CAPACITY MAX_STOPS]",
		Short: "Solve an instance file",
		Long: "Solve reads an instance file and prints the cheapest set of trips found.\n" +
			"Capacity and the per-trip stop limit are prompted for when not given.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("expected FILE or FILE CAPACITY MAX_STOPS, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("algo") {
				f.algorithm = cfg.Solver.Algorithm
			}
			if !cmd.Flags().Changed("parallel") {
				f.parallel = cfg.Solver.Parallel
			}
			if !cmd.Flags().Changed("workers") {
				f.workers = cfg.Solver.Workers
			}
			if !cmd.Flags().Changed("timeout") {
				f.timeout = cfg.Solver.TimeLimit
			}
			return runSolve(cmd, args, f)
		},
	}
	cmd.Flags().StringVarP(&f.algorithm, "algo", "a", "heuristic", "algorithm: exhaustive or heuristic")
	cmd.Flags().BoolVarP(&f.parallel, "parallel", "p", false, "use the parallel solver")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = number of CPUs)")
	cmd.Flags().DurationVarP(&f.timeout, "timeout", "t", 0, "stop searching after this long (0 = no limit)")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "print improvements to stderr")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the run as JSON")
	return cmd
}

func runSolve(cmd *cobra.Command, args []string, f solveFlags) error {
	out := cmd.OutOrStdout()
	algo, err := opt.ParseAlgorithm(f.algorithm)
	if err != nil {
		return err
	}
	inst, err := instance.Load(args[0])
	if err != nil {
		return err
	}
	g, err := graph.New(inst)
	if err != nil {
		return err
	}

	var p model.Params
	if len(args) == 3 {
		if p.Capacity, err = positive("capacity", args[1]); err != nil {
			return err
		}
		if p.MaxStops, err = positive("max stops", args[2]); err != nil {
			return err
		}
	} else if p, err = prompt(cmd.InOrStdin(), out); err != nil {
		return err
	}

	opts := opt.Options{Algorithm: algo, Parallel: f.parallel, Workers: f.workers, TimeLimit: f.timeout}
	if f.progress {
		errOut := cmd.ErrOrStderr()
		opts.Progress = func(pr opt.Progress) {
			fmt.Fprintf(errOut, "progress phase=%s cost=%d trip=%d\n", pr.Phase, pr.Cost, pr.Trip)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if !f.json {
		report.Banner(out, g.Cities(), len(inst.Roads))
	}
	res, err := opt.Solve(ctx, g, p, opts)
	if err != nil {
		return err
	}
	log.Printf("op=solve algo=%s parallel=%t cities=%d cost=%d frames=%d swaps=%d dur=%dms",
		algo, f.parallel, g.Cities(), res.Solution.Cost, res.Stats.Frames, res.Stats.TwoOptSwaps, res.Elapsed.Milliseconds())

	if f.json {
		run := model.Run{
			Status:    model.RunCompleted,
			Algorithm: string(algo),
			Parallel:  f.parallel,
			Params:    p,
			Cities:    g.Cities(),
			Roads:     len(inst.Roads),
			Solution:  &res.Solution,
			Stats:     res.Stats,
			ElapsedMs: res.Elapsed.Milliseconds(),
			System:    sysinfo.Get(),
			CreatedAt: time.Now().UTC(),
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}
	report.Write(out, res.Solution, res.Elapsed)
	return nil
}

// prompt asks for the vehicle limits on out and reads them from in.
func prompt(in io.Reader, out io.Writer) (model.Params, error) {
	br := bufio.NewReader(in)
	var p model.Params
	var err error
	fmt.Fprint(out, "Enter vehicle capacity: ")
	if p.Capacity, err = readPositive(br, "capacity"); err != nil {
		return p, err
	}
	fmt.Fprint(out, "Enter maximum number of cities vehicle can visit per trip: ")
	if p.MaxStops, err = readPositive(br, "max stops"); err != nil {
		return p, err
	}
	return p, nil
}

func readPositive(br *bufio.Reader, what string) (int, error) {
	line, err := br.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return 0, fmt.Errorf("%w: %s not provided", ErrBadParam, what)
	}
	return positive(what, line)
}

func positive(what, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrBadParam, what, strings.TrimSpace(s))
	}
	return n, nil
}

func buildVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "vrp %s", info["version"])
			if info["commit"] != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", info["commit"])
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

// Execute runs the CLI with the process streams and returns the exit code.
func Execute(ctx context.Context, args []string) int {
	root := BuildCLI(os.Stdin, os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
