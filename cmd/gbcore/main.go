package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/corebound/gbcore/internal/errs"
	"github.com/corebound/gbcore/internal/gameboy"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbcore"
	app.Usage = "gbcore [options] <ROM file>"
	app.Description = "Game Boy / Game Boy Color core: CPU, bus, cartridge, timer, interrupts"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "trace",
			Usage: "log every CPU step",
		},
		cli.StringFlag{
			Name:  "boot",
			Usage: "path to a boot ROM image (currently logged, not yet executed — no-boot-ROM reset is always used)",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gbcore exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.Args().First()
	if romPath == "" {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}

	if boot := c.String("boot"); boot != "" {
		slog.Warn("boot ROM execution is not implemented; falling back to the no-boot-ROM reset state", "boot", boot)
	}

	g := gameboy.New(c.Bool("trace"))
	if err := g.Init(romPath); err != nil {
		return err
	}

	err := g.Run()
	if code, ok := errs.CodeOf(err); ok {
		slog.Error("core halted", "code", code.String())
	}
	return err
}
