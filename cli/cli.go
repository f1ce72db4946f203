package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ytsub/cli/cmd"
	"github.com/ardnew/ytsub/entry"
	"github.com/ardnew/ytsub/log"
	"github.com/ardnew/ytsub/pkg"
	"github.com/ardnew/ytsub/script"
)

// configFile is the base name of the configuration file.
const configFile = "config.yaml"

// CLI is the top-level command-line interface for ytsub.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit."`

	Eval  cmd.Eval  `cmd:"" default:"withargs" help:"Render a template against an entry"`
	Vars  cmd.Vars  `cmd:""                    help:"List the variables defined for an entry"`
	Parse cmd.Parse `cmd:""                    help:"Print the syntax tree of a template"`
	Bool  cmd.Bool  `cmd:""                    help:"Evaluate a template as a condition"`
	Batch cmd.Batch `cmd:""                    help:"Render subscription outputs for many entries"`
	Repl  cmd.Repl  `cmd:""                    help:"Evaluate templates interactively"`
	Init  cmd.Init  `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the ytsub CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	// Dotenv files only seed the environment read by flag defaults below.
	if err := loadEnv(); err != nil {
		log.WarnContext(ctx, "could not load dotenv file", log.Err(err))
	}

	err := pkg.MkdirAll()
	if err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(configFile)

	vars := kong.Vars{
		"version":                pkg.Version,
		cmd.ConfigIdentifier:     configFilePath,
		cmd.CacheIdentifier:      pkg.CacheDir(),
		cmd.SourcesIdentifier:    strings.Join(entry.SourceNames(), ","),
		cmd.PresetPathIdentifier: pkg.ConfigPath(cmd.PresetDir),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that parsing and configuration loading
	// already log at the requested level.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.DefaultEnvars(pkg.Prefix()),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithCache(ctx, script.NewCache(script.WithLogger(log.Default())))

	log.DebugContext(ctx, "command selected",
		slog.String("command", ktx.Command()),
		slog.String("config", configFilePath),
	)

	return ktx.Run(&cli)
}
