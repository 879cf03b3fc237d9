package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &ScenarioValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Scenario file is valid!")
}

type ScenarioValidator struct {
	errors []string
}

var offsetPattern = regexp.MustCompile(`^(T\+)?\d+(:\d+){0,2}$`)

func (v *ScenarioValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("scenario file must have .json extension: %s", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var s scenario.Scenario
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&s); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateScenario(&s)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *ScenarioValidator) validateScenario(s *scenario.Scenario) {
	if s.Name == "" {
		v.addError("scenario_name is required")
	}
	if len(s.InitialTimeline) == 0 && len(s.Alerts) == 0 {
		v.addError("scenario has no initial_timeline entries and no alerts")
	}

	referenced := make(map[string]bool)

	for i := range s.InitialTimeline {
		v.validateEvent(&s.InitialTimeline[i], fmt.Sprintf("initial_timeline[%d]", i), s, referenced)
	}
	for i := range s.Alerts {
		v.validateEvent(&s.Alerts[i], fmt.Sprintf("alerts[%d]", i), s, referenced)
	}

	for key, def := range s.DecisionPaths {
		where := fmt.Sprintf("decision_paths.%s", key)
		for i := range def.Alerts {
			v.validateEvent(&def.Alerts[i], fmt.Sprintf("%s.alerts[%d]", where, i), s, referenced)
		}
		for subKey, sub := range def.SubDecisions {
			subWhere := fmt.Sprintf("%s.sub_decisions.%s", where, subKey)
			v.validateOffset(sub.Time, subWhere)
			v.validateRoles(sub.RecipientRole, subWhere)
			v.validateOptions(sub.Options, subWhere, s, referenced)
		}
		if def.Ending != nil {
			v.validateEnding(def.Ending, where)
		} else if len(def.SubDecisions) == 0 && len(def.Alerts) == 0 {
			v.addError("%s defines no alerts, sub_decisions, or ending", where)
		}
	}

	// Paths nobody can reach are almost certainly authoring mistakes.
	for key := range s.DecisionPaths {
		if !referenced[key] {
			v.addError("decision_paths.%s is never referenced by any option", key)
		}
	}
}

func (v *ScenarioValidator) validateEvent(e *scenario.RawEvent, where string, s *scenario.Scenario, referenced map[string]bool) {
	if e.Title() == "" {
		v.addError("%s has no event or title", where)
	}
	v.validateOffset(e.Time, where)
	v.validateRoles(e.RecipientRole, where)
	if e.DecisionRequired != nil {
		v.validateOptions(e.DecisionRequired.Options, where, s, referenced)
	}
}

func (v *ScenarioValidator) validateOptions(options []scenario.DecisionOption, where string, s *scenario.Scenario, referenced map[string]bool) {
	if len(options) == 0 {
		v.addError("%s is a decision point with no options", where)
	}
	seen := make(map[string]bool)
	for _, opt := range options {
		if opt.ID == "" {
			v.addError("%s has an option without an id", where)
			continue
		}
		if seen[opt.ID] {
			v.addError("%s has duplicate option id %q", where, opt.ID)
		}
		seen[opt.ID] = true
		if opt.Label == "" {
			v.addError("%s option %q has no label", where, opt.ID)
		}
		if opt.Path != "" {
			referenced[opt.Path] = true
			if _, ok := s.DecisionPaths[opt.Path]; !ok {
				v.addError("%s option %q references undefined path %q", where, opt.ID, opt.Path)
			}
		}
	}
}

func (v *ScenarioValidator) validateOffset(offset, where string) {
	if offset == "" {
		return
	}
	if !offsetPattern.MatchString(offset) {
		v.addError("%s has malformed time offset %q (expected T+MM:SS)", where, offset)
	}
}

func (v *ScenarioValidator) validateRoles(roles scenario.RoleList, where string) {
	for _, role := range roles {
		if !persona.Valid(role) {
			v.addError("%s has unknown recipient_role %q", where, role)
		}
	}
}

func (v *ScenarioValidator) validateEnding(end *scenario.Ending, where string) {
	if end.Title == "" {
		v.addError("%s.ending has no title", where)
	}
	v.validateOffset(end.Time, where+".ending")
	if end.Type == "" {
		return
	}
	for _, t := range scenario.EndingTypes {
		if end.Type == t {
			return
		}
	}
	v.addError("%s.ending has unknown type %q", where, end.Type)
}

func (v *ScenarioValidator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}
