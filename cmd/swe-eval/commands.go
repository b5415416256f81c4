package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/openbench/swe-eval-orchestrator/internal/batch"
	"github.com/openbench/swe-eval-orchestrator/internal/config"
	"github.com/openbench/swe-eval-orchestrator/internal/dataset"
	"github.com/openbench/swe-eval-orchestrator/internal/domain"
	"github.com/openbench/swe-eval-orchestrator/internal/notify"
	"github.com/openbench/swe-eval-orchestrator/internal/runner"
	"github.com/openbench/swe-eval-orchestrator/internal/runstore"
)

var (
	runExpName  string
	runNRuns    int
	runSkipRuns string
	runEvalNote string
	runManifest string
	listExpName string
	listStatus  string
	version     = "dev"
)

func init() {
	// run command
	runCmd := &cobra.Command{
		Use:   "run [MODEL_CONFIG] [COMMIT_HASH] [AGENT] [EVAL_LIMIT] [MAX_ITER] [NUM_WORKERS] [DATASET] [SPLIT]",
		Short: "Launch evaluation runs",
		Long: `Launches the external evaluator once per configured repetition.
Positional parameters override the config file and environment in order:
model config, commit hash, agent class, instance limit, max iterations,
worker count, dataset, split. Trailing parameters may be omitted.`,
		Args: cobra.MaximumNArgs(8),
		RunE: runRun,
	}
	runCmd.Flags().StringVar(&runExpName, "exp-name", "", "experiment name")
	runCmd.Flags().IntVar(&runNRuns, "n-runs", 0, "number of repetitions")
	runCmd.Flags().StringVar(&runSkipRuns, "skip-runs", "", "comma-separated run indices to skip")
	runCmd.Flags().StringVar(&runEvalNote, "eval-note", "", "note appended to each run's output dir")
	runCmd.Flags().StringVar(&runManifest, "instances", "", "instance manifest to validate before launching")
	rootCmd.AddCommand(runCmd)

	// runs command group
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded evaluation runs",
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		RunE:  runList,
	}
	listCmd.Flags().StringVar(&listExpName, "exp-name", "", "filter by experiment name")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	runsCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runsCmd)

	// schedule command
	scheduleCmd := &cobra.Command{
		Use:   "schedule SCHEDULE_FILE",
		Short: "Run evaluation batches on a cron schedule",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedule,
	}
	rootCmd.AddCommand(scheduleCmd)

	// instances command
	instancesCmd := &cobra.Command{
		Use:   "instances MANIFEST",
		Short: "Validate an instance manifest",
		Args:  cobra.ExactArgs(1),
		RunE:  runInstances,
	}
	rootCmd.AddCommand(instancesCmd)

	// version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("swe-eval %s\n", version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

// applyPositionals overlays the run command's positional parameters onto the
// evaluation config
func applyPositionals(cfg *config.Config, args []string) error {
	setters := []func(string) error{
		func(v string) error { cfg.Eval.ModelConfig = v; return nil },
		func(v string) error { cfg.Eval.CommitHash = v; return nil },
		func(v string) error { cfg.Eval.Agent = v; return nil },
		func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid eval limit %q: %w", v, err)
			}
			cfg.Eval.EvalLimit = n
			return nil
		},
		func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid max iterations %q: %w", v, err)
			}
			cfg.Eval.MaxIterations = n
			return nil
		},
		func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid worker count %q: %w", v, err)
			}
			cfg.Eval.NumWorkers = n
			return nil
		},
		func(v string) error { cfg.Eval.Dataset = v; return nil },
		func(v string) error { cfg.Eval.Split = v; return nil },
	}

	for i, arg := range args {
		if arg == "" {
			continue
		}
		if err := setters[i](arg); err != nil {
			return err
		}
	}
	return nil
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	if len(notifiers) == 0 {
		return notify.NoopNotifier{}
	}
	return notify.NewMultiNotifier(notifiers...)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := applyPositionals(cfg, args); err != nil {
		return err
	}
	if runExpName != "" {
		cfg.Eval.ExpName = runExpName
	}
	if runNRuns > 0 {
		cfg.Eval.NRuns = runNRuns
	}
	if runSkipRuns != "" {
		cfg.Eval.SkipRuns = runSkipRuns
	}
	if runEvalNote != "" {
		cfg.Eval.EvalNote = runEvalNote
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if runManifest != "" {
		manifest, err := dataset.LoadManifest(runManifest)
		if err != nil {
			return fmt.Errorf("loading instance manifest: %w", err)
		}
		for _, w := range manifest.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
		fmt.Printf("Manifest %s: %d instances across %d repos\n",
			manifest.Name, len(manifest.Instances), len(manifest.Repos()))
	}

	orch := runner.New(cfg)
	orch.SetNotifier(buildNotifier(cfg))

	store, err := runstore.New(cfg.General.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run database unavailable: %v\n", err)
	} else {
		defer store.Close()
		orch.SetStore(store)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return orch.Run(ctx)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := runstore.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(runstore.ListOptions{
		ExpName: listExpName,
		Status:  domain.RunStatus(listStatus),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXPERIMENT\tRUN\tNOTE\tSTATUS\tEXIT\tDURATION\tSTARTED")
	for _, r := range runs {
		started := "-"
		if r.StartedAt != nil {
			started = r.StartedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
			r.ExpName, r.RunIndex, r.EvalNote, r.Status, r.ExitCode,
			r.Duration().Round(time.Second), started)
	}
	w.Flush()

	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sched, err := batch.LoadScheduleConfig(args[0])
	if err != nil {
		return err
	}

	scheduler, err := batch.NewScheduler(sched.Batches)
	if err != nil {
		return err
	}

	fmt.Printf("Scheduling %d batches:\n", len(sched.Batches))
	for _, name := range scheduler.ListBatches() {
		fmt.Printf("  %s: next run %s\n", name, scheduler.NextRun(name).Format(time.RFC3339))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		scheduler.Stop()
	}()

	scheduler.Start(func(b batch.BatchConfig) error {
		runCfg := *cfg
		runCfg.Eval.ModelConfig = b.ModelConfig
		if b.ExpName != "" {
			runCfg.Eval.ExpName = b.ExpName
		}
		if b.NRuns > 0 {
			runCfg.Eval.NRuns = b.NRuns
		}

		batchCtx, cancel := context.WithTimeout(ctx, b.MaxDuration)
		defer cancel()

		orch := runner.New(&runCfg)
		if b.NotifyOnComplete {
			orch.SetNotifier(buildNotifier(cfg))
		}
		store, err := runstore.New(runCfg.General.DatabasePath)
		if err == nil {
			defer store.Close()
			orch.SetStore(store)
		}
		return orch.Run(batchCtx)
	})

	return nil
}

func runInstances(cmd *cobra.Command, args []string) error {
	manifest, err := dataset.LoadManifest(args[0])
	if err != nil {
		return err
	}

	for _, warn := range manifest.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warn)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INSTANCE\tREPO\tISSUE")
	for _, inst := range manifest.Instances {
		fmt.Fprintf(w, "%s\t%s\t%d\n", inst.String(), inst.RepoFullName(), inst.IssueNumber)
	}
	w.Flush()

	fmt.Printf("%d instances, %d warnings\n", len(manifest.Instances), len(manifest.Warnings))
	return nil
}
