// Package scenario loads and runs Lua play scripts against the engine.
//
// Scripts build a Scenario value through a small DSL and return it:
//
//	local s = Scenario.new("heist")
//	s:crew("Night Shift")
//	s:character("Vex", { crew = "Night Shift", approaches = { prowl = 2 } })
//	s:turn{ character = "Vex", approaches = { "prowl" }, position = "risky", effect = "standard" }
//	s:commit_roll("Vex")
//	s:roll{ character = "Vex", seed = 42 }
//	return s
package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is an ordered list of play steps produced by a Lua script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one DSL call: a command for the engine or an expectation about
// projected state.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua script and returns the Scenario it builds.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerScenarioType(state)
	registerScenarioConstructor(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "crew", Function: scenarioCrew},
	{Name: "character", Function: scenarioCharacter},
	{Name: "equipment", Function: tableStep("equipment")},
	{Name: "trait", Function: tableStep("trait")},
	{Name: "clock", Function: tableStep("clock")},
	{Name: "clock_tick", Function: tableStep("clock_tick")},
	{Name: "turn", Function: tableStep("turn")},
	{Name: "commit_roll", Function: characterStep("commit_roll")},
	{Name: "roll", Function: tableStep("roll")},
	{Name: "consequence", Function: tableStep("consequence")},
	{Name: "commit_consequence", Function: characterStep("commit_consequence")},
	{Name: "defense", Function: characterStep("defense")},
	{Name: "trait_use", Function: tableStep("trait_use")},
	{Name: "stims", Function: tableStep("stims")},
	{Name: "rally", Function: tableStep("rally")},
	{Name: "lean", Function: tableStep("lean")},
	{Name: "reset", Function: scenarioReset},
	{Name: "momentum_add", Function: tableStep("momentum_add")},
	{Name: "momentum_spend", Function: tableStep("momentum_spend")},
	{Name: "momentum_set", Function: tableStep("momentum_set")},
	{Name: "cancel", Function: characterStep("cancel")},
	{Name: "expect_momentum", Function: tableStep("expect_momentum")},
	{Name: "expect_turn_state", Function: tableStep("expect_turn_state")},
	{Name: "expect_no_turn", Function: characterStep("expect_no_turn")},
	{Name: "expect_clock", Function: tableStep("expect_clock")},
	{Name: "expect_dying", Function: characterStep("expect_dying")},
}

func scenarioCrew(state *lua.State) int {
	scenario := checkScenario(state)
	name := lua.CheckString(state, 2)
	appendStep(scenario, "crew", map[string]any{"name": name})
	return 0
}

func scenarioCharacter(state *lua.State) int {
	scenario := checkScenario(state)
	name := lua.CheckString(state, 2)
	opts := optionalTable(state, 3)
	data := map[string]any{"name": name}
	for key, value := range opts {
		data[key] = value
	}
	appendStep(scenario, "character", data)
	return 0
}

func scenarioReset(state *lua.State) int {
	scenario := checkScenario(state)
	name := lua.CheckString(state, 2)
	appendStep(scenario, "reset", map[string]any{"crew": name})
	return 0
}

// tableStep builds a method that records its single table argument.
func tableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		lua.CheckType(state, 2, lua.TypeTable)
		appendStep(scenario, kind, tableToMap(state, 2))
		return 0
	}
}

// characterStep builds a method that takes a character name as its argument.
func characterStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		name := lua.CheckString(state, 2)
		appendStep(scenario, kind, map[string]any{"character": name})
		return 0
	}
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if scenario == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
