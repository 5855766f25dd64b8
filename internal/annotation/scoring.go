package annotation

import (
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// maxNumericButtons is the widest integer range rendered as buttons.
const maxNumericButtons = 10

// ControlKind is how a score config is presented to the annotator.
type ControlKind string

const (
	ControlButtons ControlKind = "buttons"
	ControlInput   ControlKind = "input"
)

// Option is one selectable button value.
type Option struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Control describes the input for one score config.
type Control struct {
	ConfigID    string              `json:"configId"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	DataType    types.ScoreDataType `json:"dataType"`
	Kind        ControlKind         `json:"kind"`
	Options     []Option            `json:"options,omitempty"`
	Min         *float64            `json:"min,omitempty"`
	Max         *float64            `json:"max,omitempty"`
}

// Controls derives the control for config.
func Controls(config types.ScoreConfig) Control {
	c := Control{
		ConfigID:    config.ID,
		Name:        config.Name,
		Description: config.Description,
		DataType:    config.DataType,
		Kind:        ControlButtons,
	}
	switch config.DataType {
	case types.ScoreDataTypeCategorical:
		for idx, cat := range config.Categories {
			c.Options = append(c.Options, Option{Label: cat.Label, Value: categoryValue(cat, idx)})
		}
	case types.ScoreDataTypeBoolean:
		c.Options = []Option{{Label: "Yes", Value: 1}, {Label: "No", Value: 0}}
	default:
		if !config.HasBounds() {
			c.Kind = ControlInput
			break
		}
		lo, hi := *config.MinValue, *config.MaxValue
		if n := math.Floor(hi - lo + 1); n <= maxNumericButtons {
			for i := 0; i < int(n); i++ {
				v := lo + float64(i)
				c.Options = append(c.Options, Option{Label: formatValue(v), Value: v})
			}
			break
		}
		c.Kind = ControlInput
		c.Min, c.Max = config.MinValue, config.MaxValue
	}
	return c
}

// Accepts reports whether v is a selectable value for the control.
func (c Control) Accepts(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	switch {
	case c.DataType == types.ScoreDataTypeCategorical:
		// resolved against the categories on submission
		return true
	case c.Kind == ControlButtons:
		for _, opt := range c.Options {
			if opt.Value == v {
				return true
			}
		}
		return false
	case c.Min != nil && v < *c.Min, c.Max != nil && v > *c.Max:
		return false
	}
	return true
}

// categoryValue is the declared value of a category, or its position.
func categoryValue(cat types.ConfigCategory, idx int) float64 {
	if cat.Value != nil {
		return *cat.Value
	}
	return float64(idx)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ScoreEntry holds the in-progress scores for one queue item. It is not
// safe for concurrent use.
type ScoreEntry struct {
	itemID   string
	configs  []types.ScoreConfig
	controls map[string]Control
	values   map[string]float64
	comment  string
}

// NewScoreEntry returns an empty entry for itemID scored against configs.
func NewScoreEntry(itemID string, configs []types.ScoreConfig) *ScoreEntry {
	e := &ScoreEntry{
		itemID:   itemID,
		configs:  configs,
		controls: make(map[string]Control, len(configs)),
		values:   make(map[string]float64, len(configs)),
	}
	for _, cfg := range configs {
		e.controls[cfg.ID] = Controls(cfg)
	}
	return e
}

// ItemID returns the item the entry belongs to.
func (e *ScoreEntry) ItemID() string { return e.itemID }

// Configs returns the score configs of the entry.
func (e *ScoreEntry) Configs() []types.ScoreConfig { return e.configs }

// Controls returns the controls in config order.
func (e *ScoreEntry) Controls() []Control {
	out := make([]Control, 0, len(e.configs))
	for _, cfg := range e.configs {
		out = append(out, e.controls[cfg.ID])
	}
	return out
}

// Select records value for configID when the config's control accepts it.
// It reports whether the entry changed.
func (e *ScoreEntry) Select(configID string, value float64) bool {
	control, ok := e.controls[configID]
	if !ok || !control.Accepts(value) {
		return false
	}
	if prev, set := e.values[configID]; set && prev == value {
		return false
	}
	e.values[configID] = value
	return true
}

// Value returns the selected value for configID.
func (e *ScoreEntry) Value(configID string) (float64, bool) {
	v, ok := e.values[configID]
	return v, ok
}

// Values returns a copy of the selected values keyed by config id.
func (e *ScoreEntry) Values() map[string]float64 {
	return maps.Clone(e.values)
}

// SetComment replaces the free-text comment.
func (e *ScoreEntry) SetComment(comment string) { e.comment = comment }

// Comment returns the free-text comment.
func (e *ScoreEntry) Comment() string { return e.comment }

// Complete reports whether every config has a value.
func (e *ScoreEntry) Complete() bool {
	return len(e.Missing()) == 0
}

// Missing returns the configs that still need a value, in config order.
func (e *ScoreEntry) Missing() []types.ScoreConfig {
	var missing []types.ScoreConfig
	for _, cfg := range e.configs {
		if _, ok := e.values[cfg.ID]; !ok {
			missing = append(missing, cfg)
		}
	}
	return missing
}

// ParseInput converts typed text into a value for config. Categorical
// configs accept a category label or a number, booleans accept yes/no.
// Range checks are left to Select.
func ParseInput(config types.ScoreConfig, text string) (float64, error) {
	text = strings.TrimSpace(text)
	switch config.DataType {
	case types.ScoreDataTypeCategorical:
		for idx, cat := range config.Categories {
			if strings.EqualFold(cat.Label, text) {
				return categoryValue(cat, idx), nil
			}
		}
	case types.ScoreDataTypeBoolean:
		switch strings.ToLower(text) {
		case "yes", "y", "true", "1":
			return 1, nil
		case "no", "n", "false", "0":
			return 0, nil
		}
		return 0, pkgerrors.NewValidationError(config.Name, fmt.Sprintf("expected yes or no, got %q", text))
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, pkgerrors.NewValidationErrorWithCause(config.Name, fmt.Sprintf("%q is not a number", text), err)
	}
	return v, nil
}
