package scenario

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
)

func runScript(t *testing.T, script string) error {
	t.Helper()
	path := writeScenarioFile(t, script)
	return RunFile(context.Background(), Config{
		CampaignID: "camp-test",
		Assertions: AssertionStrict,
		Logger:     log.New(io.Discard, "", 0),
	}, path)
}

func TestRunnerSetupAndMomentumFlow(t *testing.T) {
	err := runScript(t, `
local s = Scenario.new("setup")
s:crew("Night Shift")
s:character("Vex", { crew = "Night Shift", approaches = { prowl = 2 } })
s:character("Moth", { crew = "Night Shift" })
s:equipment{ character = "Vex", name = "Climbing kit", bonus = 1 }
s:trait{ character = "Vex", name = "Cat burglar", category = "role" }
s:expect_momentum{ crew = "Night Shift", value = 5 }
s:momentum_add{ crew = "Night Shift", amount = 3 }
s:expect_momentum{ crew = "Night Shift", value = 8 }
s:momentum_spend{ crew = "Night Shift", amount = 4 }
s:expect_momentum{ crew = "Night Shift", value = 4 }
s:momentum_set{ crew = "Night Shift", value = 12 }
s:expect_momentum{ crew = "Night Shift", value = 10 }
return s
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunnerClocksAndDying(t *testing.T) {
	err := runScript(t, `
local s = Scenario.new("clocks")
s:crew("Night Shift")
s:character("Vex", { crew = "Night Shift" })
s:clock{ owner = "Vex", type = "harm", as = "vex_harm" }
s:clock_tick{ clock = "vex_harm", delta = 4 }
s:expect_clock{ clock = "vex_harm", segments = 4, full = false }
s:clock_tick{ clock = "vex_harm", delta = 9 }
s:expect_clock{ clock = "vex_harm", segments = 6, full = true }
s:expect_dying("Vex")
return s
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunnerTurnCancelFlow(t *testing.T) {
	err := runScript(t, `
local s = Scenario.new("cancel")
s:crew("Night Shift")
s:character("Vex", { crew = "Night Shift", approaches = { prowl = 2 } })
s:turn{ character = "Vex", approaches = { "prowl" }, position = "risky", effect = "standard" }
s:expect_turn_state{ character = "Vex", state = "DECISION_PHASE" }
s:cancel("Vex")
s:expect_no_turn("Vex")
s:expect_momentum{ crew = "Night Shift", value = 5 }
return s
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunnerRallyAndLean(t *testing.T) {
	err := runScript(t, `
local s = Scenario.new("rally")
s:crew("Night Shift")
s:character("Vex", { crew = "Night Shift" })
s:trait{ character = "Vex", name = "Old debt", category = "background" }
s:momentum_set{ crew = "Night Shift", value = 3 }
s:rally{ character = "Vex", spend = 2 }
s:expect_momentum{ crew = "Night Shift", value = 1 }
s:rally{ character = "Vex", spend = 1, expect_reject = "rally_unavailable" }
s:lean{ character = "Vex", trait = "Old debt" }
s:expect_momentum{ crew = "Night Shift", value = 3 }
s:reset("Night Shift")
s:expect_momentum{ crew = "Night Shift", value = 5 }
return s
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunnerExpectRejectMismatch(t *testing.T) {
	err := runScript(t, `
local s = Scenario.new("mismatch")
s:crew("Night Shift")
s:character("Vex", { crew = "Night Shift" })
s:momentum_set{ crew = "Night Shift", value = 5 }
s:rally{ character = "Vex", spend = 1, expect_reject = "rally_unavailable" }
return s
`)
	// Momentum 5 is above the rally threshold, so the rejection does fire
	// and the expectation holds. Flip it: expect a rejection that does not
	// happen.
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	err = runScript(t, `
local s = Scenario.new("mismatch2")
s:crew("Night Shift")
s:character("Vex", { crew = "Night Shift" })
s:momentum_set{ crew = "Night Shift", value = 2 }
s:rally{ character = "Vex", spend = 1, expect_reject = "rally_unavailable" }
return s
`)
	if err == nil || !strings.Contains(err.Error(), "expected rejection") {
		t.Fatalf("err = %v, want expected-rejection failure", err)
	}
}

func TestRunnerLogOnlyAssertions(t *testing.T) {
	path := writeScenarioFile(t, `
local s = Scenario.new("lenient")
s:crew("Night Shift")
s:expect_momentum{ crew = "Night Shift", value = 9 }
return s
`)
	var buffer strings.Builder
	err := RunFile(context.Background(), Config{
		CampaignID: "camp-lenient",
		Assertions: AssertionLogOnly,
		Logger:     log.New(&buffer, "", 0),
	}, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buffer.String(), "expectation failed") {
		t.Fatalf("log = %q, want expectation failure line", buffer.String())
	}
}
