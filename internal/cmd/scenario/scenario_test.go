package scenario

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if !cfg.Assertions {
		t.Fatal("expected assertions to default to true")
	}
	if cfg.DBPath != "" {
		t.Fatalf("expected in-memory default, got db path %q", cfg.DBPath)
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-scenario", "heist.lua", "-db", "run.db", "-assert=false"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Scenario != "heist.lua" || cfg.DBPath != "run.db" || cfg.Assertions {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestRunRequiresScenarioPath(t *testing.T) {
	if err := Run(context.Background(), Config{}, io.Discard); err == nil {
		t.Fatal("expected error for missing scenario path")
	}
}

func TestRunPersistsToSQLite(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "setup.lua")
	script := `
local s = Scenario.new("persisted")
s:crew("Night Shift")
s:character("Vex", { crew = "Night Shift" })
s:expect_momentum{ crew = "Night Shift", value = 5 }
return s
`
	if err := os.WriteFile(scriptPath, []byte(script), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}

	cfg := Config{
		Scenario:   scriptPath,
		DBPath:     filepath.Join(dir, "run.db"),
		CampaignID: "camp-persisted",
		Assertions: true,
	}
	if err := Run(context.Background(), cfg, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Fatalf("journal db missing: %v", err)
	}
}
