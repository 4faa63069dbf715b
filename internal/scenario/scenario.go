// Package scenario runs scripted sessions against the simulated engine.
//
// A scenario is a YAML document naming a family and a list of steps. Each step
// performs at most one operation and may state what the session must look like
// afterwards:
//
//	name: floorplan happy path
//	family: floorplan
//	steps:
//	  - action: start_scan
//	    expect: {phase: SettingCorners}
//	  - action: finish_corners
//	    expect: {guard: "need at least 3 corners"}
//	  - event: {kind: floorplanCornerCountUpdated, count: 3}
//	  - switch: legacy
//	    expect: {outcome: applied, tabs_locked: true}
//	  - advance: 5s
package scenario

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/remodel/internal/config"
	"github.com/aretw0/remodel/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Scenario is one scripted session.
type Scenario struct {
	Name        string        `mapstructure:"name"`
	Description string        `mapstructure:"description"`
	Family      domain.Family `mapstructure:"family"`
	Device      Device        `mapstructure:"device"`
	Steps       []Step        `mapstructure:"steps"`
}

// Device overrides the simulated device. Unset fields default to true.
type Device struct {
	SceneReconstruction *bool `mapstructure:"scene_reconstruction"`
	AutoRespond         *bool `mapstructure:"auto_respond"`
}

// Step performs one operation and checks Expect.
type Step struct {
	Name    string         `mapstructure:"name"`
	Action  *domain.Action `mapstructure:"action"`
	Event   *domain.Event  `mapstructure:"event"`
	Select  *Selection     `mapstructure:"select"`
	Switch  domain.Family  `mapstructure:"switch"`
	Reset   bool           `mapstructure:"reset"`
	Advance time.Duration  `mapstructure:"advance"`
	Expect  Expect         `mapstructure:"expect"`
}

// Selection picks catalog entries by index.
type Selection struct {
	Color     *int `mapstructure:"color"`
	Texture   *int `mapstructure:"texture"`
	TouchMode *int `mapstructure:"touch_mode"`
}

// Expect lists the checks applied after a step. Zero values are not checked.
type Expect struct {
	Phase   domain.Phase         `mapstructure:"phase"`
	Family  domain.Family        `mapstructure:"family"`
	Outcome domain.SwitchOutcome `mapstructure:"outcome"`

	// Guard is the reason the step must be rejected with.
	Guard string `mapstructure:"guard"`
	// Error is a substring of the error the step must fail with.
	Error string `mapstructure:"error"`

	Corners    *int   `mapstructure:"corners"`
	TabsLocked *bool  `mapstructure:"tabs_locked"`
	Debug      string `mapstructure:"debug"`
	Notice     string `mapstructure:"notice"`

	// Commands are the engine commands the step must issue, in order.
	Commands []domain.CommandKind `mapstructure:"commands"`
}

// LoadFile reads a scenario from a YAML file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	var sc Scenario
	if err := config.Decode(raw, &sc, kindShorthand); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the family and that no step combines operations.
func (sc *Scenario) Validate() error {
	var errs []error
	family, err := domain.ParseFamily(string(sc.Family))
	if err != nil {
		errs = append(errs, err)
	}
	sc.Family = family
	if len(sc.Steps) == 0 {
		errs = append(errs, errors.New("scenario has no steps"))
	}
	for i, st := range sc.Steps {
		if err := st.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the step performs at most one known operation.
func (st Step) Validate() error {
	if n := st.operations(); n > 1 {
		return fmt.Errorf("%d operations, want at most one", n)
	}
	if st.Action != nil && !st.Action.Kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, st.Action.Kind)
	}
	if st.Expect.Guard != "" && st.Expect.Error != "" {
		return errors.New("guard and error are exclusive")
	}
	return nil
}

// DecodeStep decodes one loosely typed step, as read from YAML or JSON.
func DecodeStep(raw map[string]any) (Step, error) {
	var st Step
	if err := config.Decode(raw, &st, kindShorthand); err != nil {
		return Step{}, err
	}
	return st, st.Validate()
}

func (st Step) operations() int {
	n := 0
	for _, set := range []bool{st.Action != nil, st.Event != nil, st.Select != nil, st.Switch != "", st.Reset, st.Advance > 0} {
		if set {
			n++
		}
	}
	return n
}

// Describe returns the step name, or a summary of its operation.
func (st Step) Describe() string {
	switch {
	case st.Name != "":
		return st.Name
	case st.Action != nil:
		return "action " + string(st.Action.Kind)
	case st.Event != nil:
		return "event " + string(st.Event.Kind)
	case st.Select != nil:
		var parts []string
		if st.Select.Color != nil {
			parts = append(parts, fmt.Sprintf("color=%d", *st.Select.Color))
		}
		if st.Select.Texture != nil {
			parts = append(parts, fmt.Sprintf("texture=%d", *st.Select.Texture))
		}
		if st.Select.TouchMode != nil {
			parts = append(parts, fmt.Sprintf("touch_mode=%d", *st.Select.TouchMode))
		}
		return "select " + strings.Join(parts, " ")
	case st.Switch != "":
		return "switch " + string(st.Switch)
	case st.Reset:
		return "reset"
	case st.Advance > 0:
		return "advance " + st.Advance.String()
	}
	return "check"
}

var (
	actionType = reflect.TypeOf(domain.Action{})
	eventType  = reflect.TypeOf(domain.Event{})
)

// kindShorthand lets "action: start_scan" stand for "action: {kind: start_scan}".
func kindShorthand(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || (to != actionType && to != eventType) {
		return data, nil
	}
	return map[string]any{"kind": data}, nil
}
