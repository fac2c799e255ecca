package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ylzheng/zhangben/internal/domain/imports/mapper"
	"github.com/ylzheng/zhangben/internal/domain/imports/service"
	"github.com/ylzheng/zhangben/internal/domain/profile"
	"github.com/ylzheng/zhangben/pkg/config"
	"github.com/ylzheng/zhangben/pkg/money"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		runImport(cfg, logger)
	case "export":
		runExport(cfg, logger)
	case "backup":
		runBackup(cfg, logger)
	case "watch":
		runWatch(cfg, logger)
	case "search":
		runSearch(cfg, logger)
	case "profile":
		runProfile(cfg, logger)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("zhangben - personal bookkeeping")
	fmt.Println("\nUsage:")
	fmt.Println("  zhangben <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  import    Import bank/payment statements into the ledger")
	fmt.Println("  export    Export the ledger in the standard template format")
	fmt.Println("  backup    Back up the ledger file immediately")
	fmt.Println("  watch     Run in the foreground, taking scheduled ledger backups")
	fmt.Println("  search    Full-text search over ledger transactions")
	fmt.Println("  profile   Manage password-protected ledger profiles")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'zhangben <command> -h' for more information on a command.")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ledgerFlags is the flag trio every ledger-touching command accepts: an
// explicit ledger path, or a profile name plus its password.
type ledgerFlags struct {
	ledger      *string
	profileName *string
	password    *string
}

func newLedgerFlags(fs *flag.FlagSet) ledgerFlags {
	return ledgerFlags{
		ledger:      fs.String("ledger", "", "ledger file to use (default: configured ledger)"),
		profileName: fs.String("profile", "", "open this profile's ledger instead"),
		password:    fs.String("password", "", "password for the profile, if it has one"),
	}
}

// resolveLedger picks the ledger file for a command. A profile name routes
// through the registry, verifying the password before the path is handed
// out; -ledger bypasses profiles entirely and cannot be combined with one.
func resolveLedger(cfg *config.Config, f ledgerFlags) (string, error) {
	if *f.profileName == "" {
		return *f.ledger, nil
	}
	if *f.ledger != "" {
		return "", fmt.Errorf("-profile and -ledger are mutually exclusive")
	}
	return profile.NewManager(cfg.Storage.DataDir).Open(*f.profileName, *f.password)
}

func mustInit(cfg *config.Config, logger *slog.Logger, f ledgerFlags) *Dependencies {
	path, err := resolveLedger(cfg, f)
	if err != nil {
		logger.Error("resolving ledger", "error", err)
		os.Exit(1)
	}
	deps, err := InitDependencies(cfg, logger, path)
	if err != nil {
		logger.Error("init failed", "error", err)
		os.Exit(1)
	}
	return deps
}

func runImport(cfg *config.Config, logger *slog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	platform := fs.String("platform", "", "force a statement platform: alipay, wechat, spdb, citic, standard (default: auto-detect)")
	mode := fs.String("mode", "append", "import mode: append or override")
	defaultAccount := fs.String("default-account", "", "account assigned to rows whose payment method is not a registered account")
	predict := fs.Bool("predict", cfg.Import.PredictCategories, "prefill blank categories from transaction notes")
	report := fs.String("duplicate-report", "", "write skipped duplicate rows to this file (.csv or .xlsx)")
	lf := newLedgerFlags(fs)
	fs.Parse(os.Args[2:])

	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: zhangben import [options] <statement-file>...")
		os.Exit(1)
	}

	deps := mustInit(cfg, logger, lf)
	defer deps.Cleanup()

	opts := service.Options{
		Mode:              service.Mode(*mode),
		DefaultAccount:    *defaultAccount,
		PredictCategories: *predict,
		DuplicateReport:   *report,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var result *service.Result
	var err error
	if m := namedMapper(*platform); m != nil {
		result, err = deps.Importer.ImportWithMapper(ctx, paths, m, opts)
	} else {
		result, err = deps.Importer.Import(ctx, paths, opts)
	}
	if err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d of %d rows (%d duplicates", result.Success, result.Total, result.Duplicates)
	if result.SkippedNotCounted > 0 {
		fmt.Printf(", %d not counted", result.SkippedNotCounted)
	}
	fmt.Println(")")
	if result.Success > 0 {
		fmt.Printf("Imported amount: %s\n", money.FormatCNY(result.ImportedAmount))
	}
	if result.ReportPath != "" {
		fmt.Printf("Duplicate report: %s\n", result.ReportPath)
	}
}

func namedMapper(platform string) mapper.Mapper {
	switch strings.ToLower(platform) {
	case "alipay":
		return mapper.Alipay{}
	case "wechat":
		return mapper.WeChat{}
	case "spdb":
		return mapper.SPDB{}
	case "citic":
		return mapper.CITIC{}
	case "standard", "template":
		return mapper.Standard{}
	default:
		return nil
	}
}

func runExport(cfg *config.Config, logger *slog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "ledger-export.xlsx", "output file (.csv or .xlsx)")
	lf := newLedgerFlags(fs)
	fs.Parse(os.Args[2:])

	deps := mustInit(cfg, logger, lf)
	defer deps.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	state, err := deps.Store.Load(ctx)
	if err != nil {
		logger.Error("loading ledger", "error", err)
		os.Exit(1)
	}
	if err := service.ExportTemplate(*out, state); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d transactions to %s\n", len(state.Transactions), *out)
}

func runBackup(cfg *config.Config, logger *slog.Logger) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	lf := newLedgerFlags(fs)
	fs.Parse(os.Args[2:])

	deps := mustInit(cfg, logger, lf)
	defer deps.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path, err := deps.Store.Backup(ctx)
	if err != nil {
		logger.Error("backup failed", "error", err)
		os.Exit(1)
	}
	if path == "" {
		fmt.Println("Nothing to back up yet.")
		return
	}
	fmt.Printf("Backup written to %s\n", path)
}

// runWatch keeps the process in the foreground with the backup scheduler
// running, so the configured cron schedule actually fires.
func runWatch(cfg *config.Config, logger *slog.Logger) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	now := fs.Bool("now", false, "take one backup immediately on startup")
	lf := newLedgerFlags(fs)
	fs.Parse(os.Args[2:])

	deps := mustInit(cfg, logger, lf)
	defer deps.Cleanup()

	if err := deps.Scheduler.Start(); err != nil {
		logger.Error("starting scheduler", "error", err)
		os.Exit(1)
	}
	if *now {
		deps.Scheduler.RunBackupNow()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	// Let an in-flight backup finish before the store closes.
	<-deps.Scheduler.Stop().Done()
}

func runSearch(cfg *config.Config, logger *slog.Logger) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", cfg.Search.Limit, "maximum results")
	lf := newLedgerFlags(fs)
	fs.Parse(os.Args[2:])

	query := strings.Join(fs.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: zhangben search [options] <query>")
		os.Exit(1)
	}

	deps := mustInit(cfg, logger, lf)
	defer deps.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	state, err := deps.Store.Load(ctx)
	if err != nil {
		logger.Error("loading ledger", "error", err)
		os.Exit(1)
	}
	if err := deps.Search.Rebuild(state); err != nil {
		logger.Error("indexing ledger", "error", err)
		os.Exit(1)
	}

	ids, err := deps.Search.Search(query, *limit)
	if err != nil {
		logger.Error("search failed", "error", err)
		os.Exit(1)
	}

	byID := make(map[string]int, len(state.Transactions))
	for i := range state.Transactions {
		byID[state.Transactions[i].ID] = i
	}
	for _, id := range ids {
		i, ok := byID[id]
		if !ok {
			continue
		}
		tx := &state.Transactions[i]
		fmt.Printf("%s  %-4s  %10s  %-8s  %s\n",
			tx.Time.Format("2006-01-02 15:04"), tx.Type, tx.Amount.String(), tx.Category, tx.Note)
	}
	if len(ids) == 0 {
		fmt.Println("No matches.")
	}
}

func runProfile(cfg *config.Config, logger *slog.Logger) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: zhangben profile <create|list|remove> [options]")
		os.Exit(1)
	}

	deps, err := InitDependencies(cfg, logger, "")
	if err != nil {
		logger.Error("init failed", "error", err)
		os.Exit(1)
	}
	defer deps.Cleanup()

	switch os.Args[2] {
	case "create":
		fs := flag.NewFlagSet("profile create", flag.ExitOnError)
		name := fs.String("name", "", "profile name")
		password := fs.String("password", "", "optional password protecting the profile")
		fs.Parse(os.Args[3:])
		if *name == "" {
			fmt.Fprintln(os.Stderr, "Usage: zhangben profile create -name NAME [-password PASS]")
			os.Exit(1)
		}
		p, err := deps.Profiles.Create(*name, *password)
		if err != nil {
			logger.Error("creating profile", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Profile %q created, ledger at %s\n", p.Name, p.LedgerPath)
	case "list":
		profiles, err := deps.Profiles.List()
		if err != nil {
			logger.Error("listing profiles", "error", err)
			os.Exit(1)
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles.")
			return
		}
		for _, p := range profiles {
			fmt.Printf("%s\t%s\n", p.Name, p.LedgerPath)
		}
	case "remove":
		fs := flag.NewFlagSet("profile remove", flag.ExitOnError)
		name := fs.String("name", "", "profile name")
		fs.Parse(os.Args[3:])
		if *name == "" {
			fmt.Fprintln(os.Stderr, "Usage: zhangben profile remove -name NAME")
			os.Exit(1)
		}
		if err := deps.Profiles.Remove(*name); err != nil {
			logger.Error("removing profile", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Profile %q removed (ledger file kept on disk)\n", *name)
	default:
		fmt.Fprintf(os.Stderr, "Unknown profile command: %s\n", os.Args[2])
		os.Exit(1)
	}
}
