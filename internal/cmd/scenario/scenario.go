// Package scenario implements the scenario CLI: it wires storage and the
// engine and runs a Lua play script against them.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/harrowgate/momentum-engine/internal/platform/config"
	storesqlite "github.com/harrowgate/momentum-engine/internal/storage/sqlite"
	"github.com/harrowgate/momentum-engine/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario   string `env:"MOMENTUM_ENGINE_SCENARIO_FILE"`
	DBPath     string `env:"MOMENTUM_ENGINE_SCENARIO_DB"`
	CampaignID string `env:"MOMENTUM_ENGINE_SCENARIO_CAMPAIGN"`
	Assertions bool   `env:"MOMENTUM_ENGINE_SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool   `env:"MOMENTUM_ENGINE_SCENARIO_VERBOSE"`
}

// ParseConfig parses environment variables and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite journal path (empty runs in memory)")
	fs.StringVar(&cfg.CampaignID, "campaign", cfg.CampaignID, "campaign id (defaults to the scenario name)")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "fail on unmet expectations (disable to log them)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, errOut io.Writer) error {
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	runnerCfg := scenario.Config{
		CampaignID: cfg.CampaignID,
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Logger:     log.New(errOut, "", 0),
	}

	// A db path persists the journal across runs; without one the scenario
	// plays against in-memory stores.
	if cfg.DBPath != "" {
		store, err := storesqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		runnerCfg.Journal = store
		runnerCfg.Checkpoints = store
		runnerCfg.Snapshots = store
	}

	return scenario.RunFile(ctx, runnerCfg, cfg.Scenario)
}
