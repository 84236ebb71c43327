package main

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"DealSentinel/internal/app"
	"DealSentinel/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// cli is the state shared by every subcommand.
type cli struct {
	cfgPath  string
	jsonOut  bool
	logLevel string
	out      io.Writer
	app      *app.App
}

// newRootCmd builds the command tree. The caller closes the returned cli
// after Execute.
func newRootCmd(out io.Writer) (*cobra.Command, *cli) {
	c := &cli{out: out}

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}

	root := &cobra.Command{
		Use:   "dealctl",
		Short: "Record, value and compare travel deals.",
		Long: `dealctl stores flight, hotel and resort observations, rates each one against
your points thresholds and budget, and ranks the trips worth booking.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.open()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&c.cfgPath, "config", "c", defaultCfg, "config file")
	root.PersistentFlags().BoolVarP(&c.jsonOut, "json", "j", false, "print JSON instead of text")
	root.PersistentFlags().StringVarP(&c.logLevel, "loglevel", "l", "", "log level: debug, info, warn, error (default from config)")

	root.AddCommand(
		c.addFlightCmd(),
		c.addAwardCmd(),
		c.addHotelCmd(),
		c.addPointsHotelCmd(),
		c.addResortCmd(),
		c.addPackageCmd(),
		c.cppCmd(),
		c.shouldUsePointsCmd(),
		c.listCmd(),
		c.showCmd(),
		c.deleteCmd(),
		c.compareCmd(),
		c.summaryCmd(),
		c.exportCmd(),
		c.expireCmd(),
		c.baselineCmd(),
		c.historyCmd(),
		c.testAlertCmd(),
	)
	return root, c
}

func (c *cli) open() error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a, err := app.New(cfg, app.NewLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// locked runs fn while holding the data directory lock, so two writers
// never interleave snapshot rewrites.
func (c *cli) locked(fn func() error) error {
	lock := c.app.Lock
	if lock == nil {
		return fn()
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

// emit prints v as indented JSON with --json, else the text.
func (c *cli) emit(text string, v any) error {
	if !c.jsonOut {
		_, err := fmt.Fprintln(c.out, text)
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(b))
	return err
}
