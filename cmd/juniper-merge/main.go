// Command juniper-merge compares two USX versions of a scripture book and
// reports how their sections, paragraphs or verses correspond.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/JuniperMerge/core/book"
	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
	"github.com/FocuswithJustin/JuniperMerge/core/merge"
	"github.com/FocuswithJustin/JuniperMerge/core/sqlite"
	"github.com/FocuswithJustin/JuniperMerge/internal/config"
	"github.com/FocuswithJustin/JuniperMerge/internal/logging"
	"github.com/FocuswithJustin/JuniperMerge/internal/report"
)

const version = "0.1.0"

// stdout is where commands print; tests replace it.
var stdout io.Writer = os.Stdout

// CLI defines the command-line interface for juniper-merge.
type CLI struct {
	Config  string `name:"config" short:"c" help:"Configuration file (YAML or JSON)" type:"existingfile"`
	Verbose bool   `name:"verbose" short:"v" help:"Log at debug level"`

	Compare CompareCmd `cmd:"" help:"Compare two versions of a book"`
	Heads   HeadsCmd   `cmd:"" help:"Show how the section heads of two versions pair up"`
	Runs    RunsCmd    `cmd:"" help:"List compare runs stored in a report database"`
	Cfg     ConfigCmd  `cmd:"" name:"config" help:"Configuration files"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// settings loads the configuration named by --config, or the defaults, and
// starts logging with it.
func (c *CLI) settings() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		var err error
		if cfg, err = config.Load(c.Config); err != nil {
			return nil, err
		}
	}
	if err := cfg.InitLogging(c.Verbose); err != nil {
		return nil, err
	}
	if c.Config != "" {
		logging.Debug("config_loaded", "path", c.Config)
	}
	return cfg, nil
}

func loadBook(path string) (*book.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	b, err := book.LoadUSX(f)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
			return nil, pe
		}
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return b, nil
}

func loadPair(currPath, revPath string) (*book.Book, *book.Book, error) {
	curr, err := loadBook(currPath)
	if err != nil {
		return nil, nil, err
	}
	rev, err := loadBook(revPath)
	if err != nil {
		return nil, nil, err
	}
	if curr.Number != rev.Number {
		return nil, nil, errors.NewUnsupported("compare", fmt.Sprintf("cannot compare %s with %s", curr.Code, rev.Code))
	}
	return curr, rev, nil
}

// CompareCmd runs a compare and writes the report.
type CompareCmd struct {
	Current  string `arg:"" help:"Current USX file" type:"existingfile"`
	Revision string `arg:"" help:"Revision USX file" type:"existingfile"`
	Level    string `name:"level" short:"l" help:"Unit to compare: sections, paragraphs or verses" default:"verses" enum:"sections,paragraphs,verses"`
	Range    string `name:"range" short:"r" help:"Only compare units overlapping this OSIS reference (e.g. Gen.1.1-2.3)"`
	Out      string `name:"out" short:"o" help:"Report file; a .xz suffix or report.compress compresses it" type:"path"`
	DB       string `name:"db" help:"Also store the report in this SQLite database" type:"path"`
}

func (c *CompareCmd) Run(cli *CLI) error {
	cfg, err := cli.settings()
	if err != nil {
		return err
	}
	level, err := merge.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	curr, rev, err := loadPair(c.Current, c.Revision)
	if err != nil {
		return err
	}

	m, err := merger(cfg, c.Range)
	if err != nil {
		return err
	}
	res, err := m.Compare(level, curr, rev)
	if err != nil {
		return errors.Wrap(err, "compare failed")
	}
	r, err := report.New(curr.Code, res)
	if err != nil {
		return err
	}

	ctx := logging.WithRunID(context.Background(), r.ID)
	if len(r.Clusters) == 0 {
		logging.WarnContext(ctx, "nothing_compared", "range", c.Range)
	}

	if c.Out != "" {
		if err := report.WriteFile(c.Out, r, cfg.Report.Compress); err != nil {
			return err
		}
		logging.ReportWritten(nil, c.Out, len(r.Clusters), r.Differences.Len(), "run_id", r.ID)
	} else if err := report.WriteJSON(stdout, r, false); err != nil {
		return err
	}

	dbPath := c.DB
	if dbPath == "" {
		dbPath = cfg.Report.Database
	}
	if dbPath != "" {
		store, err := report.OpenStore(ctx, dbPath, logging.LoggerFromContext(ctx))
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, r); err != nil {
			logging.ErrorContext(ctx, "report_store_failed", "db", dbPath, "error", err)
			return err
		}
	}

	if c.Out != "" {
		printSummary(r)
	}
	return nil
}

func printSummary(r *report.Report) {
	fmt.Fprintf(stdout, "%s %s: %d clusters, %d differences\n", r.Book, r.Level, len(r.Clusters), r.Differences.Len())
	counts := r.Counts()
	for t := merge.MatchedItems; t <= merge.MultipleInBoth; t++ {
		if n := counts[t]; n > 0 {
			fmt.Fprintf(stdout, "  %-20s %d\n", t, n)
		}
	}
}

// HeadsCmd prints the section clusters of a compare.
type HeadsCmd struct {
	Current  string `arg:"" help:"Current USX file" type:"existingfile"`
	Revision string `arg:"" help:"Revision USX file" type:"existingfile"`
	Range    string `name:"range" short:"r" help:"Only show heads overlapping this OSIS reference"`
}

func (c *HeadsCmd) Run(cli *CLI) error {
	cfg, err := cli.settings()
	if err != nil {
		return err
	}
	curr, rev, err := loadPair(c.Current, c.Revision)
	if err != nil {
		return err
	}
	m, err := merger(cfg, c.Range)
	if err != nil {
		return err
	}
	clusters, err := m.CompareSections(curr, rev)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tRANGE\tCURRENT\tREVISION")
	for _, cl := range clusters {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cl.Type, cl.Range, headRefs(cl.Current), headRefs(cl.Revision))
	}
	return tw.Flush()
}

// merger builds the configured merger, limited to ref when it is set.
func merger(cfg *config.Config, ref string) (*merge.Merger, error) {
	m, err := cfg.Merger()
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return m, nil
	}
	if m.Limit, err = ir.ParseRefRange(ref); err != nil {
		return nil, errors.Wrapf(err, "bad --range %q", ref)
	}
	return m, nil
}

func headRefs(items []*merge.Proxy) string {
	if len(items) == 0 {
		return "-"
	}
	refs := make([]string, len(items))
	for i, p := range items {
		refs[i] = p.Range.Min.String()
	}
	return strings.Join(refs, ",")
}

// RunsCmd lists stored runs.
type RunsCmd struct {
	DB string `arg:"" help:"SQLite report database" type:"existingfile"`
}

func (c *RunsCmd) Run(cli *CLI) error {
	if _, err := cli.settings(); err != nil {
		return err
	}
	ctx := context.Background()
	store, err := report.OpenStoreReadOnly(ctx, c.DB, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	logging.InfoContext(ctx, "runs_listed", "db", c.DB, "runs", len(runs))
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tBOOK\tLEVEL\tDIFFERENCES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Book, r.Level, r.Differences)
	}
	return tw.Flush()
}

// ConfigCmd groups configuration commands.
type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write a default configuration file"`
}

// ConfigInitCmd writes the defaults to a new file.
type ConfigInitCmd struct {
	File  string `arg:"" optional:"" help:"File to create" default:"juniper-merge.yml" type:"path"`
	Force bool   `name:"force" help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run() error {
	if _, err := os.Stat(c.File); err == nil {
		if !c.Force {
			return fmt.Errorf("configuration file %s already exists", c.File)
		}
		logging.Warn("config_overwritten", "path", c.File)
	}
	if err := config.Save(config.Default(), c.File); err != nil {
		return err
	}
	logging.Info("config_written", "path", c.File)
	fmt.Fprintf(stdout, "wrote %s\n", c.File)
	return nil
}

// VersionCmd prints the version and SQLite driver.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "juniper-merge version %s\n", version)
	fmt.Fprintf(stdout, "sqlite driver %s (%s, %s)\n", info.DriverName, info.DriverType, info.Package)
	return nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("juniper-merge"),
		kong.Description("Structural compare of two versions of a scripture book"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	if err = ctx.Run(&cli); err != nil {
		logging.Error("command_failed", "command", ctx.Command(), "error", err)
	}
	ctx.FatalIfErrorf(err)
}
