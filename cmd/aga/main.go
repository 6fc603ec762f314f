// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command aga elaborates the GCD example module and runs it in a simulator,
// or serves a simulator to remote clients.
//
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/db47h/aga"
	"github.com/db47h/aga/firrtl"
	"github.com/db47h/aga/sim"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/urfave/cli.v1"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML simulator configuration file",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "log elaboration and simulator traffic",
	}
	widthFlag = cli.IntFlag{
		Name:  "width",
		Usage: "operand width in bits",
		Value: 32,
	}
	printFlag = cli.BoolFlag{
		Name:  "print",
		Usage: "print the elaborated circuit and exit",
	}
	cyclesFlag = cli.IntFlag{
		Name:  "cycles",
		Usage: "maximum number of clock cycles",
		Value: 1000,
	}
	listenFlag = cli.StringFlag{
		Name:  "listen",
		Usage: "listen address",
		Value: "127.0.0.1:7070",
	}

	gcdCommand = cli.Command{
		Action:    gcd,
		Name:      "gcd",
		Usage:     "Compute the GCD of two numbers in simulation",
		ArgsUsage: "<a> <b>",
		Flags:     []cli.Flag{widthFlag, printFlag, cyclesFlag},
	}
	serveCommand = cli.Command{
		Action: serve,
		Name:   "serve",
		Usage:  "Share a local simulator with remote clients",
		Flags:  []cli.Flag{listenFlag},
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "aga"
	app.Usage = "guarded atomic actions to RTL"
	app.Flags = []cli.Flag{configFileFlag, verboseFlag}
	app.Commands = []cli.Command{gcdCommand, serveCommand}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(ctx *cli.Context) (*zap.Logger, error) {
	if ctx.GlobalBool(verboseFlag.Name) {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig(ctx *cli.Context) (sim.Config, error) {
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		return sim.LoadConfig(file)
	}
	return sim.DefaultConfig(), nil
}

func gcd(ctx *cli.Context) error {
	var a, b int64
	if ctx.NArg() != 2 {
		return errors.New("expected two operands")
	}
	if _, err := fmt.Sscan(ctx.Args().Get(0), &a); err != nil {
		return errors.Wrap(err, "first operand")
	}
	if _, err := fmt.Sscan(ctx.Args().Get(1), &b); err != nil {
		return errors.Wrap(err, "second operand")
	}
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()

	m, err := gcdModule(ctx.Int(widthFlag.Name))
	if err != nil {
		return err
	}
	e := aga.Elaborator{Log: log}
	c, err := e.Elaborate(m)
	if err != nil {
		return err
	}
	if ctx.Bool(printFlag.Name) {
		return firrtl.Fprint(os.Stdout, c)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	s, err := sim.Start(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer s.Stop()

	ir, err := firrtl.Serialize(c)
	if err != nil {
		return err
	}
	if err = s.Load(ir); err != nil {
		return err
	}
	if err = s.Poke(firrtl.ResetName, 1); err != nil {
		return err
	}
	if err = s.Step(1); err != nil {
		return err
	}
	for _, p := range []struct {
		signal string
		value  int64
	}{{firrtl.ResetName, 0}, {"start_a", a}, {"start_b", b}, {"start_enable", 1}} {
		if err = s.Poke(p.signal, p.value); err != nil {
			return err
		}
	}
	if err = s.Step(1); err != nil {
		return err
	}
	if err = s.Poke("start_enable", 0); err != nil {
		return err
	}
	for i := 0; i < ctx.Int(cyclesFlag.Name); i++ {
		ready, err := s.Peek("result_ready")
		if err != nil {
			return err
		}
		if ready != 0 {
			v, err := s.Peek("result_value")
			if err != nil {
				return err
			}
			log.Info("done", zap.Int("cycles", i+1))
			fmt.Println(v)
			return nil
		}
		if err = s.Step(1); err != nil {
			return err
		}
	}
	return errors.Errorf("no result after %d cycles", ctx.Int(cyclesFlag.Name))
}

func serve(ctx *cli.Context) error {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Remote != "" {
		return errors.New("serve needs a local simulator, remove Remote from the configuration")
	}
	l, err := sim.StartLocal(cfg, log)
	if err != nil {
		return err
	}
	defer l.Close()

	ln, err := net.Listen("tcp", ctx.String(listenFlag.Name))
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	sctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = sim.NewServer(l, log).Serve(sctx, ln)
	log.Info("server stopped")
	return err
}
