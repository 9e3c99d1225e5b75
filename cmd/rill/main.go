// Command rill runs Rill scripts, evaluates one-liners, and hosts the
// interactive shell.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rill-lang/rill/pkg/rill/config"
	"github.com/rill-lang/rill/pkg/rill/evaluator"
	"github.com/rill-lang/rill/pkg/rill/lexer"
	"github.com/rill-lang/rill/pkg/rill/parser"
	"github.com/rill-lang/rill/pkg/rill/repl"
)

var version = "0.3.0"

var (
	evalFlag    = flag.String("e", "", "evaluate an expression and exit")
	configFlag  = flag.String("c", "", "path to config file")
	watchFlag   = flag.Bool("watch", false, "re-run the script when it changes")
	verboseFlag = flag.Bool("verbose", false, "enable debug logging")
	versionFlag = flag.Bool("V", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("rill %s\n", version)
		return
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verboseFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	switch {
	case *evalFlag != "":
		if ok := runSource(*evalFlag, "<eval>"); !ok {
			os.Exit(1)
		}

	case flag.NArg() > 0:
		path := flag.Arg(0)
		if *watchFlag {
			watchAndRun(path)
			return
		}
		if ok := runFile(path); !ok {
			os.Exit(1)
		}

	default:
		fmt.Printf("rill %s\n", version)
		repl.Start(os.Stdout, cfg)
	}
}

func loadConfig() (*config.Config, error) {
	if *configFlag != "" {
		return config.Load(*configFlag)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return config.Defaults(), nil
	}
	return config.Load(filepath.Join(home, ".rill.yaml"))
}

func runFile(path string) bool {
	source, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("reading script")
		return false
	}
	return runSource(string(source), path)
}

func runSource(source, filename string) bool {
	start := time.Now()

	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		for _, msg := range errs {
			fmt.Fprintf(os.Stderr, "%s: parse error: %s\n", filename, msg)
		}
		return false
	}

	env := evaluator.NewEnvironment()
	env.Filename = filename

	result := evaluator.Eval(program, env)

	log.Debug().Str("file", filename).Dur("elapsed", time.Since(start)).Msg("evaluated")

	if errObj, ok := result.(*evaluator.Error); ok {
		re := errObj.ToRillError()
		re.File = filename
		fmt.Fprintln(os.Stderr, re.PrettyString())
		return false
	}

	if result != nil {
		if _, isNull := result.(*evaluator.Null); !isNull {
			fmt.Println(result.Inspect())
		}
	}
	return true
}

// watchAndRun re-evaluates the script every time the file is written.
// Editors that replace the file on save trigger Create events, so the watch
// is on the directory.
func watchAndRun(path string) {
	runFile(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal().Err(err).Msg("starting watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("watching directory")
	}

	target, _ := filepath.Abs(path)
	log.Info().Str("path", path).Msg("watching for changes")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			changed, _ := filepath.Abs(event.Name)
			if changed != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug().Str("op", event.Op.String()).Msg("change detected")
			runFile(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("watch error")
		}
	}
}
