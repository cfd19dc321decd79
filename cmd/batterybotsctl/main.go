package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"

	"batterybots/internal/display"
	"batterybots/internal/metrics"
	"batterybots/internal/platform"
	"batterybots/internal/scapeid"
	"batterybots/internal/storage"
	api "batterybots/pkg/batterybots"
)

const (
	artifactsDir  = "runs"
	defaultDBPath = "batterybots.db"
)

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "play":
		return runPlay(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "scapes":
		return runScapes(ctx, args[1:])
	case "scape-summary":
		return runScapeSummary(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath: fs.String("db-path", defaultDBPath, "sqlite database path"),
	}
}

func (f storeFlags) client(opts api.Options) (*api.Client, error) {
	opts.StoreKind = *f.kind
	opts.DBPath = *f.dbPath
	if opts.ArtifactsDir == "" {
		opts.ArtifactsDir = artifactsDir
	}
	return api.New(opts)
}

// runFlags holds the run request flags of a subcommand. Flags set
// explicitly override the config file or the defaults.
type runFlags struct {
	fs         *flag.FlagSet
	configPath *string
	flagValue  func() map[string]any
}

func addRunFlags(fs *flag.FlagSet) runFlags {
	def := api.DefaultRunRequest()
	configPath := fs.String("config", "", "optional run config file (YAML or JSON)")
	scapeName := fs.String("scape", def.Scape, "scape name: forage|forage-large|forage-sparse")
	population := fs.Int("pop", def.Population, "population size")
	survivors := fs.Int("survivors", def.Survivors, "survivors kept per generation (multiple of 4, half the population)")
	generations := fs.Int("gens", def.Generations, "generation count")
	mutationRate := fs.Float64("mutation-rate", def.MutationRate, "per-rule mutation probability")
	corruptionRate := fs.Float64("corruption-rate", def.CorruptionRate, "per-sensor corruption probability")
	seed := fs.Int64("seed", 0, "rng seed (0 draws a fresh seed)")
	return runFlags{
		fs:         fs,
		configPath: configPath,
		flagValue: func() map[string]any {
			return map[string]any{
				"scape":           *scapeName,
				"pop":             *population,
				"survivors":       *survivors,
				"gens":            *generations,
				"mutation-rate":   *mutationRate,
				"corruption-rate": *corruptionRate,
				"seed":            *seed,
			}
		},
	}
}

func (f runFlags) request() (api.RunRequest, error) {
	setFlags := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) {
		setFlags[fl.Name] = true
	})
	delete(setFlags, "config")

	req, err := loadOrDefaultRunRequest(*f.configPath)
	if err != nil {
		return api.RunRequest{}, err
	}
	values := f.flagValue()
	overrides := make(map[string]bool, len(setFlags))
	for name := range setFlags {
		if _, ok := values[name]; ok {
			overrides[name] = true
		}
	}
	if err := overrideFromFlags(&req, overrides, values); err != nil {
		return api.RunRequest{}, err
	}
	return req, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client(api.Options{SkipArtifacts: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "initialized store=%s\n", *store.kind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client(api.Options{SkipArtifacts: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "reset store=%s\n", *store.kind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	runOpts := addRunFlags(fs)
	store := addStoreFlags(fs)
	outDir := fs.String("artifacts-dir", artifactsDir, "directory for run artifacts")
	noArtifacts := fs.Bool("no-artifacts", false, "skip writing run artifacts")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the run (e.g. :9090)")
	logLevel := fs.String("log-level", "warn", "log level: debug|info|warn|error")
	showMap := fs.Bool("show-map", false, "print the best map of the last generation")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := runOpts.request()
	if err != nil {
		return err
	}
	if req.Generations <= 0 {
		return errors.New("gens must be > 0")
	}
	logger, err := newLogger(*logLevel, stderr)
	if err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.Nop{}
	if *metricsAddr != "" {
		prom := metrics.NewPrometheus()
		recorder = prom
		shutdown := serveMetrics(*metricsAddr, prom, logger)
		defer shutdown()
	}

	client, err := store.client(api.Options{
		ArtifactsDir:  *outDir,
		SkipArtifacts: *noArtifacts,
		Logger:        logger,
		Metrics:       recorder,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	if *jsonOut {
		return writeJSON(map[string]any{
			"run_id":                summary.RunID,
			"seed":                  summary.Seed,
			"artifacts_dir":         summary.ArtifactsDir,
			"average_by_generation": summary.AverageByGeneration,
			"best_by_generation":    summary.BestByGeneration,
			"oldest_survivor":       summary.OldestSurvivor,
			"final_average":         summary.FinalAverage,
			"best_harvest":          summary.BestHarvest,
		})
	}

	fmt.Fprintf(stdout, "run_id=%s seed=%d generations=%d final_average=%.4f best_harvest=%g oldest_survivor=%d\n",
		summary.RunID,
		summary.Seed,
		len(summary.AverageByGeneration),
		summary.FinalAverage,
		summary.BestHarvest,
		summary.OldestSurvivor,
	)
	if summary.ArtifactsDir != "" {
		fmt.Fprintf(stdout, "artifacts=%s\n", summary.ArtifactsDir)
	}
	if *showMap {
		fmt.Fprint(stdout, summary.BestMap)
	}
	return nil
}

// runPlay is the interactive driver: a menu, per-generation maps and a
// continue prompt, followed by the run summary.
func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	runOpts := addRunFlags(fs)
	store := addStoreFlags(fs)
	pause := fs.Duration("pause", display.DefaultPause, "pause after the robot maps of a generation")
	logLevel := fs.String("log-level", "warn", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := runOpts.request()
	if err != nil {
		return err
	}
	logger, err := newLogger(*logLevel, stderr)
	if err != nil {
		return err
	}

	client, err := store.client(api.Options{SkipArtifacts: true, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	rows, cols, batteries := scapeShape(req.Scape)
	screen := display.NewScreen(stdout, *pause)
	in := bufio.NewReader(stdin)
	mode, ok, err := display.Menu(screen, in, rows, cols, batteries)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	req.Observer = &display.Player{Screen: screen, In: in, Mode: mode}
	switch mode {
	case display.ModeStepwise:
		req.Generations = 0
	case display.ModeBatch:
		req.Generations = display.BatchGenerations
	}
	screen.Printf("Starting simulation....\n")

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	display.Summary(stdout, summary.Result)
	return nil
}

func scapeShape(name string) (rows, cols, batteries int) {
	name = scapeid.Normalize(name)
	for _, s := range platform.DefaultScapes() {
		if s.Name() == name {
			return s.Rows(), s.Cols(), s.Batteries()
		}
	}
	def := platform.DefaultScapes()[0]
	return def.Rows(), def.Cols(), def.Batteries()
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := store.client(api.Options{SkipArtifacts: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, api.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			RunID          string  `json:"run_id"`
			CreatedAtUTC   string  `json:"created_at_utc"`
			Scape          string  `json:"scape"`
			Seed           int64   `json:"seed"`
			PopulationSize int     `json:"population_size"`
			Generations    int     `json:"generations"`
			OldestSurvivor int     `json:"oldest_survivor"`
			FinalAverage   float64 `json:"final_average"`
			BestHarvest    float64 `json:"best_harvest"`
		}
		items := make([]runsItem, 0, len(runs))
		for _, r := range runs {
			items = append(items, runsItem{
				RunID:          r.RunID,
				CreatedAtUTC:   r.CreatedAtUTC,
				Scape:          r.Scape,
				Seed:           r.Seed,
				PopulationSize: r.Population,
				Generations:    r.Generations,
				OldestSurvivor: r.OldestSurvivor,
				FinalAverage:   r.FinalAverage,
				BestHarvest:    r.BestHarvest,
			})
		}
		return writeJSON(items)
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(stdout, "run_id=%s created=%s scape=%s seed=%d pop=%d gens=%d final_average=%.4f best_harvest=%g oldest_survivor=%d\n",
			r.RunID,
			createdLabel(r.CreatedAtUTC),
			r.Scape,
			r.Seed,
			r.Population,
			r.Generations,
			r.FinalAverage,
			r.BestHarvest,
			r.OldestSurvivor,
		)
	}
	return nil
}

func createdLabel(createdAtUTC string) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(created)
}

type runSelection struct {
	runID  *string
	latest *bool
	limit  *int
	json   *bool
}

func addRunSelection(fs *flag.FlagSet, defaultLimit int) runSelection {
	return runSelection{
		runID:  fs.String("run-id", "", "run id"),
		latest: fs.Bool("latest", false, "use the most recent run"),
		limit:  fs.Int("limit", defaultLimit, "max rows to print (0 for all)"),
		json:   fs.Bool("json", false, "emit JSON"),
	}
}

func (s runSelection) validate(command string) error {
	if *s.runID != "" && *s.latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *s.runID == "" && !*s.latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	if *s.limit < 0 {
		return errors.New("limit must be >= 0")
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	sel := addRunSelection(fs, 0)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sel.validate("fitness"); err != nil {
		return err
	}

	client, err := store.client(api.Options{SkipArtifacts: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, api.FitnessHistoryRequest{RunID: *sel.runID, Latest: *sel.latest, Limit: *sel.limit})
	if err != nil {
		return err
	}
	if *sel.json {
		return writeJSON(history)
	}
	fmt.Fprintln(stdout, "Average fitness scores:")
	fmt.Fprintln(stdout, "======================")
	for i, avg := range history {
		fmt.Fprintf(stdout, "Generation %d => %g\n", i+1, avg)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	sel := addRunSelection(fs, 0)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sel.validate("diagnostics"); err != nil {
		return err
	}

	client, err := store.client(api.Options{SkipArtifacts: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, api.DiagnosticsRequest{RunID: *sel.runID, Latest: *sel.latest, Limit: *sel.limit})
	if err != nil {
		return err
	}
	if *sel.json {
		return writeJSON(diagnostics)
	}
	for _, d := range diagnostics {
		fmt.Fprintf(stdout, "%s generation: best=%g mean=%.4f min=%g stddev=%.4f oldest=%d diversity=%d steps=%s batteries=%d/%d\n",
			humanize.Ordinal(d.Generation),
			d.BestFitness,
			d.MeanFitness,
			d.MinFitness,
			d.StdDevFitness,
			d.OldestSurvivor,
			d.GenomeDiversity,
			humanize.Comma(int64(d.TotalSteps)),
			d.BatteriesCollected,
			d.BatteriesAvailable,
		)
	}
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	sel := addRunSelection(fs, 5)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sel.validate("top"); err != nil {
		return err
	}

	client, err := store.client(api.Options{SkipArtifacts: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.TopGenomes(ctx, api.TopGenomesRequest{RunID: *sel.runID, Latest: *sel.latest, Limit: *sel.limit})
	if err != nil {
		return err
	}
	if *sel.json {
		return writeJSON(top)
	}
	if len(top) == 0 {
		fmt.Fprintln(stdout, "no top genomes")
		return nil
	}
	for _, item := range top {
		fmt.Fprintf(stdout, "rank=%d fitness=%g survived=%d genome=%s\n", item.Rank, item.Fitness, item.GenerationsSurvived, item.Genome.ID)
		for i, rule := range item.Genome.Rules {
			fmt.Fprintf(stdout, "  rule %2d: N=%s S=%s E=%s W=%s -> %s\n", i,
				rule.Condition[0], rule.Condition[1], rule.Condition[2], rule.Condition[3], rule.Action)
		}
	}
	return nil
}

func runScapes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scapes", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client(api.Options{SkipArtifacts: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	names, err := client.Scapes(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func runScapeSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scape-summary", flag.ContinueOnError)
	scapeName := fs.String("scape", "forage", "scape name")
	jsonOut := fs.Bool("json", false, "emit JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client(api.Options{SkipArtifacts: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.ScapeSummary(ctx, *scapeName)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(map[string]any{
			"name":         summary.Name,
			"description":  summary.Description,
			"best_fitness": summary.BestFitness,
		})
	}
	fmt.Fprintf(stdout, "scape=%s best_fitness=%g description=%q\n", summary.Name, summary.BestFitness, summary.Description)
	return nil
}

func serveMetrics(addr string, prom *metrics.Prometheus, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func writeJSON(value any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: batterybotsctl <init|reset|play|run|runs|fitness|diagnostics|top|scapes|scape-summary> [flags]", msg)
}
