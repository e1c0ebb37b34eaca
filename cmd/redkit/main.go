// Command redkit queries layered configuration and writes log entries.
//
//	redkit config get app.name --dir ./config
//	redkit config group redlog --format yaml
//	redkit log info "deployed" --label deploy --field sha=abc123
//	redkit log path
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/redkit/capture"
	"github.com/kbukum/redkit/config"
	"github.com/kbukum/redkit/logger"
	"github.com/kbukum/redkit/process"
	"github.com/kbukum/redkit/version"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitBadUsage = 2
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func main() {
	code := newCLI(os.Stdout, os.Stderr, process.Default()).run(os.Args[1:])
	process.Exit(code)
}

type cli struct {
	app    *kingpin.Application
	stdout io.Writer
	stderr io.Writer
	hooks  *process.Hooks

	verbose *bool
	dir     *string
	format  *string

	getKey     *string
	getDefault *string
	hasKey     *string
	groupName  *string

	levelMsgs map[string]*string
	label     *string
	extra     *string
	fields    *map[string]string
	startTag  *string
	endTag    *string
	timerText *string
}

func newCLI(stdout, stderr io.Writer, hooks *process.Hooks) *cli {
	c := &cli{stdout: stdout, stderr: stderr, hooks: hooks, levelMsgs: map[string]*string{}}

	app := kingpin.New("redkit", "Layered configuration and buffered file logging.")
	app.Version(version.Get().String())
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.HelpFlag.Short('h')

	c.verbose = app.Flag("verbose", "Print diagnostics to stderr.").Short('v').Bool()
	c.dir = app.Flag("dir", "Configuration directory.").Envar("REDKIT_CONFIG_DIR").Default(config.DefaultDir()).String()
	c.format = app.Flag("format", "Output format for config commands.").Default(formatJSON).Enum(formatJSON, formatYAML)

	cfg := app.Command("config", "Query configuration.")
	get := cfg.Command("get", "Print the value of a key.")
	c.getKey = get.Arg("key", "Key to read.").Required().String()
	c.getDefault = get.Flag("default", "Value printed when the key is absent.").String()
	has := cfg.Command("has", "Exit 0 when a key exists, 1 otherwise.")
	c.hasKey = has.Arg("key", "Key to test.").Required().String()
	group := cfg.Command("group", "Print every key under a prefix.")
	c.groupName = group.Arg("prefix", "Group prefix.").Required().String()
	cfg.Command("all", "Print every key.")
	cfg.Command("env", "Print the environment name.")

	lg := app.Command("log", "Write log entries.")
	c.label = lg.Flag("label", "Label for the entry.").String()
	c.extra = lg.Flag("extra", "Extra context as a JSON object.").String()
	c.fields = lg.Flag("field", "Extra context as key=value; repeatable.").StringMap()
	for _, level := range []string{"info", "debug", "warn", "error"} {
		cmd := lg.Command(level, "Write a "+level+" entry.")
		c.levelMsgs[level] = cmd.Arg("message", "Entry body.").Required().String()
	}
	start := lg.Command("start", "Write a timer start entry.")
	c.startTag = start.Arg("tag", "Timer tag.").Required().String()
	c.timerText = lg.Flag("text", "Timer text.").Default("timer").String()
	end := lg.Command("end", "Write a timer end entry.")
	c.endTag = end.Arg("tag", "Timer tag.").Required().String()
	lg.Command("path", "Print the log file path.")

	c.app = app
	return c
}

// run executes args and returns the exit code. Exit hooks run before it
// returns, so buffered entries are on disk.
func (c *cli) run(args []string) int {
	command, err := c.app.Parse(args)
	if err != nil {
		fmt.Fprintf(c.stderr, "redkit: %v\n", err)
		return exitBadUsage
	}

	diag := zerolog.Nop()
	if *c.verbose {
		diag = zerolog.New(zerolog.ConsoleWriter{Out: c.stderr}).With().Timestamp().Logger()
	}

	store := config.New(config.WithDiagnostics(diag))
	if err := store.Load(*c.dir); err != nil {
		fmt.Fprintf(c.stderr, "redkit: %v\n", err)
		return exitFailure
	}

	code := exitOK
	switch command {
	case "config get":
		code = c.configGet(store)
	case "config has":
		if !store.Has(*c.hasKey) {
			code = exitFailure
		}
	case "config group":
		code = c.print(store.Group(*c.groupName))
	case "config all":
		code = c.print(store.All())
	case "config env":
		fmt.Fprintln(c.stdout, store.Environment())
	default:
		code = c.log(command, store, diag)
	}

	if err := c.hooks.Run(); err != nil {
		fmt.Fprintf(c.stderr, "redkit: %v\n", err)
		if code == exitOK {
			code = exitFailure
		}
	}
	return code
}

func (c *cli) configGet(store *config.Store) int {
	v, ok := store.Lookup(*c.getKey)
	if !ok {
		if *c.getDefault == "" {
			fmt.Fprintf(c.stderr, "redkit: key %q not found\n", *c.getKey)
			return exitFailure
		}
		v = config.String(*c.getDefault)
	}
	return c.print(v)
}

func (c *cli) log(command string, store *config.Store, diag zerolog.Logger) int {
	l := logger.New(store,
		logger.WithDiagnostics(diag),
		logger.WithStdout(c.stdout),
		logger.WithExitHooks(c.hooks),
	)
	cp := capture.Install(l, capture.WithExitHooks(c.hooks))
	defer cp.Recover()

	if *c.label != "" {
		l.SetLabel(*c.label)
	}

	fields, err := c.logFields()
	if err != nil {
		fmt.Fprintf(c.stderr, "redkit: %v\n", err)
		return exitBadUsage
	}

	switch command {
	case "log path":
		fmt.Fprintln(c.stdout, l.Path())
	case "log start":
		l.Start(*c.startTag, *c.timerText, fields)
	case "log end":
		l.End(*c.endTag, *c.timerText, fields)
	default:
		name := strings.TrimPrefix(command, "log ")
		level, err := logger.ParseLevel(name)
		if err != nil {
			fmt.Fprintf(c.stderr, "redkit: %v\n", err)
			return exitBadUsage
		}
		l.Log(level, *c.levelMsgs[name], fields)
	}
	return exitOK
}

func (c *cli) logFields() (map[string]any, error) {
	fields := map[string]any{}
	if *c.extra != "" {
		if err := json.Unmarshal([]byte(*c.extra), &fields); err != nil {
			return nil, fmt.Errorf("invalid --extra: %w", err)
		}
	}
	for k, v := range *c.fields {
		fields[k] = v
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

func (c *cli) print(v any) int {
	var err error
	switch *c.format {
	case formatYAML:
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		err = enc.Encode(v)
		if err == nil {
			err = enc.Close()
		}
	default:
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "redkit: %v\n", err)
		return exitFailure
	}
	return exitOK
}
