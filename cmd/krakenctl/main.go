// krakenctl is a command line client for the Kraken REST API
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/opa-project/opa/config"
	"github.com/opa-project/opa/encoding/json"
	"github.com/opa-project/opa/exchange/accounts"
	"github.com/opa-project/opa/exchanges/kraken"
	"github.com/opa-project/opa/log"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries command output only
	log.SetOutput(os.Stderr)
	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Errorf(log.Global, "%v", err)
		cancel()
		os.Exit(1)
	}
}

// runner carries the loaded configuration between the Before hook and
// command actions
type runner struct {
	cfg *config.Config
	out io.Writer
}

func newApp(out io.Writer) *cli.App {
	r := &runner{out: out}
	return &cli.App{
		Name:                 "krakenctl",
		Usage:                "query and trade on Kraken through its REST API",
		EnableBashCompletion: true,
		Writer:               out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML, JSON or TOML config file",
				EnvVars: []string{config.EnvPrefix + "_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log every request and response",
			},
		},
		Before:   r.setup,
		Commands: r.commands(),
	}
}

func (r *runner) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.Bool("verbose") {
		cfg.Kraken.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if err := log.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}
	log.SetJSONFormat(cfg.Logging.JSON)
	if err := log.SetSubsystemsEnabled(cfg.Logging.DisabledSubsystems, false); err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

func (r *runner) krakenConfig() kraken.Config {
	kc := kraken.DefaultConfig()
	kc.APIURL = r.cfg.Kraken.APIURL
	kc.Timeout = r.cfg.Kraken.Timeout
	kc.RateLimit = r.cfg.Kraken.RateLimit
	kc.RateBurst = r.cfg.Kraken.RateBurst
	kc.Verbose = r.cfg.Kraken.Verbose
	kc.UserAgent = r.cfg.Kraken.UserAgent
	return kc
}

// public returns a client without credentials for public endpoints
func (r *runner) public() (*kraken.Kraken, error) {
	return kraken.New(r.krakenConfig(), nil)
}

// private loads credentials from the configured source and returns an
// authenticated client
func (r *runner) private(ctx context.Context) (*kraken.Kraken, error) {
	src, err := r.cfg.Kraken.Credentials.CredentialSource()
	if err != nil {
		return nil, err
	}
	creds, err := accounts.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	log.Debugf(log.ConfigSys, "Loaded credentials %s", creds)
	return kraken.New(r.krakenConfig(), creds)
}

func (r *runner) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, string(b))
	return err
}
