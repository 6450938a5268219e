// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/backend"
	"github.com/gogpu/surfcache/internal/config"
)

// app holds the state shared by the subcommands.
type app struct {
	cfgFile     string
	backendName string
	verbose     bool

	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	p      *message.Printer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, p: message.NewPrinter(language.English)}

	root := &cobra.Command{
		Use:           "surfctl",
		Short:         "Inspect and exercise surfcache devices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is surfcache.yaml in the user config dir or .)")
	root.PersistentFlags().StringVar(&a.backendName, "backend", "", "backend to open (soft, gpu); empty picks the best available")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log tier transitions")

	root.AddCommand(a.infoCmd(), a.snapshotCmd(), a.blitCmd(), a.configCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if a.backendName != "" {
		cfg.Backend = a.backendName
	}
	a.cfg = cfg

	level := cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	surfcache.SetLogger(slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level})))
	return nil
}

// openDevice opens the configured backend with bc. The returned func
// releases it.
func (a *app) openDevice(bc backend.Config) (string, surfcache.Device, func(), error) {
	var (
		name = a.cfg.Backend
		dev  surfcache.Device
		err  error
	)
	if name == "" {
		name, dev, err = backend.Default(bc)
	} else {
		dev, err = backend.Open(name, bc)
	}
	if err != nil {
		return "", nil, nil, err
	}
	closeFn := func() {}
	if c, ok := dev.(backend.Closer); ok {
		closeFn = c.Close
	}
	return name, dev, closeFn, nil
}
