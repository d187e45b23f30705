// Package main provides the CLI entrypoint for rw.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/xiaolongtang/rw/internal/config"
	"github.com/xiaolongtang/rw/internal/dataset"
	"github.com/xiaolongtang/rw/internal/model"
	"github.com/xiaolongtang/rw/internal/progress"
	"github.com/xiaolongtang/rw/internal/quiz"
	"github.com/xiaolongtang/rw/internal/session"
	"github.com/xiaolongtang/rw/internal/stats"
	"github.com/xiaolongtang/rw/internal/statsui"
	"github.com/xiaolongtang/rw/internal/store"
	"github.com/xiaolongtang/rw/internal/tui"
)

const (
	defaultStatsMonths = 3
	defaultStatsLast   = 20
)

var (
	practiceLanguage string
	practiceUnit     string
	practiceURL      string

	unitsLanguage string

	statsPlain  bool
	statsMonths int
	statsLast   int

	resetLanguage string
	resetUnit     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rw",
		Short:         "Offline vocabulary keyword trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceLanguage, "language", "", "language code to practice")
	rootCmd.Flags().StringVar(&practiceUnit, "unit", "", "unit name to practice")
	rootCmd.Flags().StringVar(&practiceURL, "url", "", "dataset url (refreshes the cache first)")

	rootCmd.AddCommand(newSourceCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newUnitsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "language", &practiceLanguage, fileCfg.Practice.Language)
	applyStringConfig(cmd, "unit", &practiceUnit, fileCfg.Practice.Unit)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	result, err := resolveDataset(ctx, st, fileCfg, practiceURL)
	if err != nil {
		return err
	}
	if result.Err != nil {
		logErrf("network refresh failed, using cached dataset: %v\n", result.Err)
	}

	ds := result.Dataset
	language := practiceLanguage
	if language == "" && len(ds.Language) == 1 {
		language = ds.Language[0]
	}
	if language == "" {
		return fmt.Errorf("choose a language with --language (available: %s)", strings.Join(ds.Language, ", "))
	}
	node, ok := ds.Node(language)
	if !ok {
		return fmt.Errorf("language %q not in dataset (available: %s)", language, strings.Join(ds.Language, ", "))
	}

	if practiceUnit == "" {
		names := make([]string, 0, len(node.Units))
		for _, u := range node.Units {
			names = append(names, u.Name)
		}
		return fmt.Errorf("choose a unit with --unit (available: %s)", strings.Join(names, ", "))
	}
	questions, ok := node.FindUnit(practiceUnit)
	if !ok {
		return fmt.Errorf("unit %q not found in language %s", practiceUnit, language)
	}
	if quiz.TotalItems(questions) == 0 {
		fmt.Println("This unit has no keywords to practice.")
		return nil
	}

	progressStore := progress.New(st)
	recorder := session.NewRecorder(st)

	snapshot, err := progressStore.Get(ctx, language, practiceUnit)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	mastered := model.MasteredMap{}
	if snapshot != nil {
		mastered = snapshot.MasteredMap
	}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	var queue []model.QuizItem
	if snapshot != nil && len(snapshot.QueueState) > 0 {
		queue = snapshot.QueueState
	} else {
		queue = quiz.BuildInitialQueue(questions, mastered, rnd)
	}
	if len(queue) == 0 {
		fmt.Printf("Unit %q is already mastered. Run: rw reset --language %s --unit %q\n", practiceUnit, language, practiceUnit)
		return nil
	}

	uiModel := tui.NewModel(language, practiceUnit, node.Keyboard, questions, mastered, queue, progressStore, recorder, rnd)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if uiModel.Completed() {
		fmt.Printf("Unit %q complete. Keep the streak going!\n", practiceUnit)
	}
	return nil
}

// resolveDataset prefers the cache so practice stays offline, touching
// the network only when an explicit URL was given or nothing is cached
// yet. The config URL serves as a bootstrap fallback for an empty cache.
func resolveDataset(ctx context.Context, st *store.Store, fileCfg config.FileConfig, explicitURL string) (*model.LoadResult, error) {
	loader := newLoader(st, fileCfg)
	if explicitURL != "" {
		result, err := loader.Load(ctx, explicitURL)
		return result, describeLoadError(err)
	}
	result, err := loader.Cached(ctx)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, dataset.ErrNoURL) {
		return nil, describeLoadError(err)
	}
	bootstrapURL := ""
	if fileCfg.Source.URL != nil {
		bootstrapURL = *fileCfg.Source.URL
	}
	result, err = loader.Load(ctx, bootstrapURL)
	return result, describeLoadError(err)
}

func newLoader(st *store.Store, fileCfg config.FileConfig) *dataset.Loader {
	var opts []dataset.Option
	if fileCfg.Source.Host != nil && *fileCfg.Source.Host != "" {
		opts = append(opts, dataset.WithTrustedHost(*fileCfg.Source.Host))
	}
	if fileCfg.Source.TimeoutMs != nil && *fileCfg.Source.TimeoutMs > 0 {
		opts = append(opts, dataset.WithTimeout(time.Duration(*fileCfg.Source.TimeoutMs)*time.Millisecond))
	}
	return dataset.NewLoader(st, opts...)
}

func describeLoadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, dataset.ErrNoURL) {
		return fmt.Errorf("no dataset configured; run: rw source set <url> (%w)", err)
	}
	return err
}

func newSourceCmd() *cobra.Command {
	sourceCmd := &cobra.Command{
		Use:   "source",
		Short: "Show the dataset source",
		Args:  cobra.NoArgs,
		RunE:  runSourceShowCmd,
	}
	sourceCmd.AddCommand(&cobra.Command{
		Use:   "set <url>",
		Short: "Set the dataset url and fetch it",
		Args:  cobra.ExactArgs(1),
		RunE:  runSourceSetCmd,
	})
	sourceCmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Refresh the dataset from the configured url",
		Args:  cobra.NoArgs,
		RunE:  runSourceReloadCmd,
	})
	return sourceCmd
}

func runSourceShowCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	result, err := newLoader(st, fileCfg).Cached(cmd.Context())
	if err != nil {
		return describeLoadError(err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "url: %s\n", result.URL); err != nil {
		return err
	}
	if result.Meta.LastSuccessAt > 0 {
		fetched := time.UnixMilli(result.Meta.LastSuccessAt).Local()
		if _, err := fmt.Fprintf(out, "last fetch: %s\n", fetched.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "languages: %s\n", strings.Join(result.Dataset.Language, ", "))
	return err
}

func runSourceSetCmd(cmd *cobra.Command, args []string) error {
	return reloadDataset(cmd, args[0])
}

func runSourceReloadCmd(cmd *cobra.Command, _ []string) error {
	return reloadDataset(cmd, "")
}

func reloadDataset(cmd *cobra.Command, url string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	loader := newLoader(st, fileCfg)
	result, err := loader.Load(cmd.Context(), url)
	if url == "" && errors.Is(err, dataset.ErrNoURL) && fileCfg.Source.URL != nil {
		// Nothing cached yet; fall back to the configured URL.
		result, err = loader.Load(cmd.Context(), *fileCfg.Source.URL)
	}
	if err != nil {
		return describeLoadError(err)
	}
	if result.Err != nil {
		// The fetch failed and the previous cache is still in place.
		return result.Err
	}
	unitCount := 0
	for _, code := range result.Dataset.Language {
		if node, ok := result.Dataset.Node(code); ok {
			unitCount += len(node.Units)
		}
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Fetched %s: %d language(s), %d unit(s)\n",
		result.URL, len(result.Dataset.Language), unitCount)
	return err
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List languages in the cached dataset",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	result, err := newLoader(st, fileCfg).Cached(cmd.Context())
	if err != nil {
		return describeLoadError(err)
	}
	for _, code := range result.Dataset.Language {
		node, ok := result.Dataset.Node(code)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d unit(s)\n", code, node.Keyboard, len(node.Units)); err != nil {
			return err
		}
	}
	return nil
}

func newUnitsCmd() *cobra.Command {
	unitsCmd := &cobra.Command{
		Use:   "units",
		Short: "List units and completion for a language",
		Args:  cobra.NoArgs,
		RunE:  runUnitsCmd,
	}
	unitsCmd.Flags().StringVar(&unitsLanguage, "language", "", "language code")
	return unitsCmd
}

func runUnitsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "language", &unitsLanguage, fileCfg.Practice.Language)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	result, err := newLoader(st, fileCfg).Cached(ctx)
	if err != nil {
		return describeLoadError(err)
	}
	ds := result.Dataset
	language := unitsLanguage
	if language == "" && len(ds.Language) == 1 {
		language = ds.Language[0]
	}
	if language == "" {
		return fmt.Errorf("choose a language with --language (available: %s)", strings.Join(ds.Language, ", "))
	}
	node, ok := ds.Node(language)
	if !ok {
		return fmt.Errorf("language %q not in dataset (available: %s)", language, strings.Join(ds.Language, ", "))
	}

	snapshots, err := progress.New(st).ListByLanguage(ctx, language)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	byUnit := make(map[string]model.UnitProgress, len(snapshots))
	for _, p := range snapshots {
		byUnit[p.Unit] = p
	}

	out := cmd.OutOrStdout()
	for _, u := range node.Units {
		total := quiz.TotalItems(u.Questions)
		mastered := 0
		badge := " "
		if p, ok := byUnit[u.Name]; ok {
			mastered = quiz.MasteredCount(p.MasteredMap)
			if quiz.IsUnitMastered(u.Questions, p.MasteredMap) {
				badge = "✓"
			}
		}
		if _, err := fmt.Fprintf(out, "%s %s\t%d/%d\n", badge, u.Name, mastered, total); err != nil {
			return err
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show practice stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	statsCmd.Flags().BoolVar(&statsPlain, "plain", false, "print stats instead of the TUI")
	statsCmd.Flags().IntVar(&statsMonths, "months", defaultStatsMonths, "calendar months to print with --plain")
	statsCmd.Flags().IntVar(&statsLast, "last", defaultStatsLast, "recent sessions to print with --plain")
	return statsCmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	recorder := session.NewRecorder(st)
	if !statsPlain {
		program := tea.NewProgram(statsui.NewModel(recorder), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	sessions, err := recorder.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	out := cmd.OutOrStdout()
	now := time.Now()
	if err := stats.RenderSummary(out, stats.BuildSummary(sessions, now)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, ""); err != nil {
		return err
	}
	if err := stats.RenderCalendar(out, sessions, now, statsMonths, false); err != nil {
		return err
	}
	return stats.RenderRecent(out, sessions, statsLast, stats.TerminalWidth())
}

func newResetCmd() *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset progress for one unit",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	resetCmd.Flags().StringVar(&resetLanguage, "language", "", "language code")
	resetCmd.Flags().StringVar(&resetUnit, "unit", "", "unit name")
	return resetCmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if resetLanguage == "" || resetUnit == "" {
		return fmt.Errorf("--language and --unit are required")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if err := progress.New(st).Reset(cmd.Context(), resetLanguage, resetUnit); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Progress for %s/%s reset.\n", resetLanguage, resetUnit)
	return err
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "clear <kv|progress|stats>",
		Short:     "Clear one persisted region",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(store.RegionKV), string(store.RegionProgress), string(store.RegionStats)},
		RunE:      runClearCmd,
	}
}

func runClearCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	region := store.Region(args[0])
	if err := st.Clear(cmd.Context(), region); err != nil {
		return fmt.Errorf("failed to clear %s: %w", region, err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s.\n", region)
	return err
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# rw configuration
# Uncomment a value to enable it. CLI flags override config values.

[source]
# url = "https://%s/<user>/<repo>/main/dataset.json"
# host = %q              # Trusted dataset host
# timeout-ms = %d        # Fetch timeout in milliseconds

[practice]
# language = "es"        # Default language code
# unit = "Unit 1"        # Default unit name
`,
		dataset.DefaultTrustedHost,
		dataset.DefaultTrustedHost,
		int(dataset.DefaultTimeout/time.Millisecond),
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
