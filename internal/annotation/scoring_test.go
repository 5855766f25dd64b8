package annotation

import (
	"errors"
	"math"
	"testing"

	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

func numericConfig(id string, lo, hi *float64) types.ScoreConfig {
	return types.ScoreConfig{ID: id, Name: id, DataType: types.ScoreDataTypeNumeric, MinValue: lo, MaxValue: hi}
}

func categoricalConfig(id string, cats ...types.ConfigCategory) types.ScoreConfig {
	return types.ScoreConfig{ID: id, Name: id, DataType: types.ScoreDataTypeCategorical, Categories: cats}
}

func booleanConfig(id string) types.ScoreConfig {
	return types.ScoreConfig{ID: id, Name: id, DataType: types.ScoreDataTypeBoolean}
}

func TestControls(t *testing.T) {
	tests := []struct {
		name        string
		config      types.ScoreConfig
		wantKind    ControlKind
		wantOptions []float64
	}{
		{"small numeric range", numericConfig("n", types.Float(1), types.Float(5)), ControlButtons, []float64{1, 2, 3, 4, 5}},
		{"ten buttons", numericConfig("n", types.Float(0), types.Float(9)), ControlButtons, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"wide numeric range", numericConfig("n", types.Float(0), types.Float(10)), ControlInput, nil},
		{"unbounded numeric", numericConfig("n", nil, nil), ControlInput, nil},
		{"half bounded numeric", numericConfig("n", types.Float(0), nil), ControlInput, nil},
		{"boolean", booleanConfig("b"), ControlButtons, []float64{1, 0}},
		{
			"categorical declared values",
			categoricalConfig("c", types.ConfigCategory{Label: "bad", Value: types.Float(-1)}, types.ConfigCategory{Label: "good", Value: types.Float(1)}),
			ControlButtons, []float64{-1, 1},
		},
		{
			"categorical index values",
			categoricalConfig("c", types.ConfigCategory{Label: "a"}, types.ConfigCategory{Label: "b"}),
			ControlButtons, []float64{0, 1},
		},
		{"categorical without categories", categoricalConfig("c"), ControlButtons, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Controls(tt.config)
			if c.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", c.Kind, tt.wantKind)
			}
			if len(c.Options) != len(tt.wantOptions) {
				t.Fatalf("Options = %+v, want values %v", c.Options, tt.wantOptions)
			}
			for i, opt := range c.Options {
				if opt.Value != tt.wantOptions[i] {
					t.Errorf("Options[%d].Value = %v, want %v", i, opt.Value, tt.wantOptions[i])
				}
			}
		})
	}
}

func TestControls_BooleanLabels(t *testing.T) {
	c := Controls(booleanConfig("b"))
	if c.Options[0].Label != "Yes" || c.Options[1].Label != "No" {
		t.Errorf("labels = %q/%q, want Yes/No", c.Options[0].Label, c.Options[1].Label)
	}
}

func TestScoreEntry_Select(t *testing.T) {
	configs := []types.ScoreConfig{
		numericConfig("bounded", types.Float(0), types.Float(100)),
		numericConfig("buttons", types.Float(1), types.Float(5)),
		numericConfig("free", nil, nil),
		booleanConfig("bool"),
		categoricalConfig("cat", types.ConfigCategory{Label: "a"}),
	}

	tests := []struct {
		configID string
		value    float64
		want     bool
	}{
		{"bounded", 50, true},
		{"bounded", 0, true},
		{"bounded", 100.5, false},
		{"bounded", -1, false},
		{"buttons", 3, true},
		{"buttons", 2.5, false},
		{"buttons", 6, false},
		{"free", -1e9, true},
		{"free", math.NaN(), false},
		{"free", math.Inf(1), false},
		{"bool", 1, true},
		{"bool", 0, true},
		{"bool", 2, false},
		{"cat", 7, true},
		{"unknown", 1, false},
	}

	for _, tt := range tests {
		e := NewScoreEntry("i1", configs)
		if got := e.Select(tt.configID, tt.value); got != tt.want {
			t.Errorf("Select(%q, %v) = %v, want %v", tt.configID, tt.value, got, tt.want)
		}
		if _, ok := e.Value(tt.configID); ok != tt.want {
			t.Errorf("Value(%q) set = %v after Select(%v)", tt.configID, ok, tt.value)
		}
	}
}

func TestScoreEntry_RejectedValueKeepsPrevious(t *testing.T) {
	e := NewScoreEntry("i1", []types.ScoreConfig{numericConfig("n", types.Float(0), types.Float(100))})
	e.Select("n", 42)
	if e.Select("n", 101) {
		t.Error("out of range Select() reported a change")
	}
	if v, _ := e.Value("n"); v != 42 {
		t.Errorf("Value = %v, want 42", v)
	}
	if e.Select("n", 42) {
		t.Error("Select() of the same value reported a change")
	}
}

func TestScoreEntry_Complete(t *testing.T) {
	e := NewScoreEntry("i1", []types.ScoreConfig{booleanConfig("a"), booleanConfig("b")})
	if e.Complete() {
		t.Error("empty entry reported complete")
	}
	e.Select("a", 1)
	if missing := e.Missing(); len(missing) != 1 || missing[0].ID != "b" {
		t.Errorf("Missing() = %+v, want [b]", missing)
	}
	e.Select("b", 0)
	if !e.Complete() {
		t.Error("entry with every value set reported incomplete")
	}

	if !NewScoreEntry("i2", nil).Complete() {
		t.Error("entry without configs should be complete")
	}
}

func TestParseInput(t *testing.T) {
	cat := categoricalConfig("tone", types.ConfigCategory{Label: "Rude", Value: types.Float(-1)}, types.ConfigCategory{Label: "Polite"})

	tests := []struct {
		name    string
		config  types.ScoreConfig
		text    string
		want    float64
		wantErr bool
	}{
		{"numeric", numericConfig("n", nil, nil), " 3.5 ", 3.5, false},
		{"numeric garbage", numericConfig("n", nil, nil), "abc", 0, true},
		{"numeric NaN", numericConfig("n", nil, nil), "NaN", 0, true},
		{"boolean yes", booleanConfig("b"), "Yes", 1, false},
		{"boolean false", booleanConfig("b"), "false", 0, false},
		{"boolean other", booleanConfig("b"), "maybe", 0, true},
		{"category label with declared value", cat, "rude", -1, false},
		{"category label with index value", cat, "Polite", 1, false},
		{"category number", cat, "1", 1, false},
		{"unknown category", cat, "Neutral", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(tt.config, tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ve *pkgerrors.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("error %T is not a ValidationError", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseInput() = %v, want %v", got, tt.want)
			}
		})
	}
}
