// Command simkernel drives the social-simulation kernel through an
// interactive, line-oriented command interface (§6).
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talgya/sociokernel/internal/config"
	"github.com/talgya/sociokernel/internal/driver"
)

var (
	debug      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "simkernel",
	Short: "social simulation kernel",
	Long: `simkernel runs a large-scale agent-based social simulation:
beliefs, language, demographics, migration, regional economies,
psychology and health, and emergent cultural clustering.

Run without a subcommand to enter the interactive command loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults compiled in)")
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	return config.Load(data)
}

func runREPL() error {
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := driver.New(cfg, log)
	if err != nil {
		return fmt.Errorf("kernel init: %w", err)
	}

	log.Info("kernel ready",
		zap.Int("population", cfg.Population),
		zap.Int("regions", cfg.Regions),
		zap.Int64("seed", cfg.Seed),
	)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	fmt.Println("simkernel ready. type 'help' for commands.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		out, err := d.Dispatch(line)
		if err != nil {
			if driver.IsQuit(err) {
				break
			}
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
	return scanner.Err()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
