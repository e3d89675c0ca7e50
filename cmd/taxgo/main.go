package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/config"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/rgehrsitz/taxgo/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	RulesPath string
	Format    string
	Debug     bool
	LogJSON   bool

	log *logrus.Logger
}

// setupLogger writes to stderr so rendered reports on stdout stay clean.
func (o *globalOptions) setupLogger(w io.Writer) {
	o.log = logrus.New()
	o.log.SetOutput(w)
	if o.LogJSON {
		o.log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		o.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	if o.Debug {
		o.log.SetLevel(logrus.DebugLevel)
	} else {
		o.log.SetLevel(logrus.WarnLevel)
	}
}

// logger returns a component-scoped entry. *logrus.Entry satisfies
// calculation.Logger as is.
func (o *globalOptions) logger(component string) *logrus.Entry {
	if o.log == nil {
		o.setupLogger(os.Stderr)
	}
	return o.log.WithField("component", component)
}

// ruleBook is the built-in rule book with the --rules overlay applied.
func (o *globalOptions) ruleBook() (*rules.Book, error) {
	book := rules.Default()
	if o.RulesPath == "" {
		return book, nil
	}
	merged, err := rules.LoadFile(o.RulesPath, book)
	if err != nil {
		return nil, err
	}
	o.logger("rules").Debugf("applied rule overlay %s", o.RulesPath)
	return merged, nil
}

func (o *globalOptions) engine() (*calculation.Engine, error) {
	book, err := o.ruleBook()
	if err != nil {
		return nil, err
	}
	engine := calculation.NewEngine(book)
	engine.SetLogger(o.logger("engine"))
	return engine, nil
}

func (o *globalOptions) openStore(dir string) (*store.FileStore, error) {
	fs, err := store.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	fs.SetLogger(o.logger("store"))
	return fs, nil
}

func loadReturn(path string) (*domain.ReturnFile, error) {
	rf, err := config.NewInputParser().LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return rf, nil
}

// prepareReturn loads a return and, when a state directory is given, seeds it
// with the stored ledger and TDS records.
func (o *globalOptions) prepareReturn(path, stateDir string) (*domain.ReturnFile, *store.FileStore, error) {
	rf, err := loadReturn(path)
	if err != nil {
		return nil, nil, err
	}
	if stateDir == "" {
		return rf, nil, nil
	}
	fs, err := o.openStore(stateDir)
	if err != nil {
		return nil, nil, err
	}
	if err := fs.Seed(rf); err != nil {
		return nil, nil, err
	}
	return rf, fs, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taxgo %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "taxgo",
		Short: "Income tax computation CLI",
		Long: strings.TrimSpace(`
Computes an individual's income tax for one financial year: capital gains
classification and tax, loss set-off with carry-forward, old and new regime
comparison, and reconciliation of tax deducted at source.`),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.setupLogger(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.RulesPath, "rules", "", "YAML rule overlay merged over the built-in tables")
	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "console", "Output format")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "Write logs as JSON")

	cmd.AddCommand(
		computeCmd(opts),
		validateCmd(opts),
		gainsCmd(opts),
		setOffCmd(opts),
		reconcileCmd(opts),
		adviseCmd(opts),
		compareCmd(opts),
		breakEvenCmd(opts),
		rulesCmd(opts),
		versionCmd(),
	)
	return cmd
}

var rootCmd = newRootCmd()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
