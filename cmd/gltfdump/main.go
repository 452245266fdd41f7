// Command gltfdump prints the first vertex, normal, texture coordinate, and
// index of every primitive in the first mesh of a glTF file.
//
// Usage:
//
//	gltfdump [-config file.toml] [-watch] model.gltf
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"
	"github.com/Carmen-Shannon/oxy-gltf/engine/config"
	"github.com/Carmen-Shannon/oxy-gltf/engine/inspect"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	common.SetLogOutput(stderr)

	fs := flag.NewFlagSet("gltfdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv(config.EnvPath), "TOML configuration `file`")
	watch := fs.Bool("watch", false, "print again whenever the file or its buffers change")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: gltfdump [-config file] [-watch] model.gltf")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	path := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		report(err)
		return exitError
	}
	// Validated by config.Load.
	_ = common.SetLogLevel(cfg.LogLevel)

	l := loader.NewLoader(loader.BackendTypeGLTF,
		loader.WithDataURIs(cfg.AllowDataURI),
		loader.WithWorkers(cfg.Workers),
		loader.WithDebounce(cfg.Watch.Debounce()),
	)

	a, err := l.Load(path)
	if err == nil {
		err = inspect.Write(stdout, a)
	}
	if err != nil {
		report(err)
		return exitError
	}
	if !*watch {
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	common.LogInfo("watching", "path", path)
	err = l.Watch(ctx, path, func(a *asset.Asset, err error) {
		if err == nil {
			err = inspect.Write(stdout, a)
		}
		if err != nil {
			report(err)
		}
	})
	if err != nil {
		report(err)
		return exitError
	}
	return exitOK
}

// report logs err as a single ERROR record naming its kind and, when known,
// the offending entity.
func report(err error) {
	keyvals := []interface{}{"err", strings.ReplaceAll(err.Error(), "\n", " ")}
	if kind := common.KindOf(err); kind != nil {
		keyvals = append(keyvals, "kind", kind.Error())
	}
	var ce *common.Error
	if errors.As(err, &ce) {
		if ce.Entity != "" {
			keyvals = append(keyvals, "entity", ce.Entity)
		}
		if ce.Index >= 0 {
			keyvals = append(keyvals, "index", ce.Index)
		}
		if ce.Name != "" {
			keyvals = append(keyvals, "name", ce.Name)
		}
	}
	common.LogError("gltfdump failed", keyvals...)
}
