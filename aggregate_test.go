package termdash

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func TestAggregatedLine_Sum(t *testing.T) {
	a := mustLine(t, "a", mustStat(t, "n", 4))
	b := mustLine(t, "b", mustStat(t, "n", 6))
	agg, err := NewAggregatedLine("total", []*Stat{mustStat(t, "n", 0)}, []Row{a, b})
	if err != nil {
		t.Fatalf("NewAggregatedLine() error = %v", err)
	}

	agg.recompute(time.Now())
	if v, _ := agg.ReadStat("n"); v != 10.0 {
		t.Errorf("n = %v, want 10", v)
	}

	// sources are read again on every recompute
	_ = a.UpdateStat("n", 14)
	agg.recompute(time.Now())
	if v, _ := agg.ReadStat("n"); v != 20.0 {
		t.Errorf("n after source update = %v, want 20", v)
	}
}

func TestAggregatedLine_Avg(t *testing.T) {
	a := mustLine(t, "a", mustStat(t, "n", 3))
	b := mustLine(t, "b", mustStat(t, "n", "n/a"))
	c := mustLine(t, "c", mustStat(t, "n", 5))
	d := mustLine(t, "d", mustStat(t, "other", 100))

	agg, err := NewAggregatedLine("avg", []*Stat{mustStat(t, "n", 0)}, []Row{a, b, c, d},
		WithAggregateMode(AggregateAvg))
	if err != nil {
		t.Fatalf("NewAggregatedLine() error = %v", err)
	}
	if agg.Mode() != AggregateAvg {
		t.Errorf("Mode() = %v, want avg", agg.Mode())
	}

	agg.recompute(time.Now())
	v, _ := agg.ReadStat("n")
	if f, ok := v.(float64); !ok || math.Abs(f-8.0/3.0) > 1e-9 {
		t.Errorf("n = %v, want 8/3", v)
	}
}

func TestAggregatedLine_DoesNotMutateSources(t *testing.T) {
	a := mustLine(t, "a", mustStat(t, "n", "7"))
	agg, _ := NewAggregatedLine("total", []*Stat{mustStat(t, "n", 0)}, []Row{a})

	agg.recompute(time.Now())
	if v, _ := a.ReadStat("n"); v != "7" {
		t.Errorf("source value = %#v, want \"7\"", v)
	}
	if v, _ := agg.ReadStat("n"); v != 7.0 {
		t.Errorf("aggregate = %v, want 7", v)
	}
}

func TestAggregatedLine_NoSourcesHaveStat(t *testing.T) {
	a := mustLine(t, "a", mustStat(t, "x", 1))
	sum, _ := NewAggregatedLine("s", []*Stat{mustStat(t, "n", -1)}, []Row{a})
	avg, _ := NewAggregatedLine("v", []*Stat{mustStat(t, "n", -1)}, []Row{a}, WithAggregateMode(AggregateAvg))

	sum.recompute(time.Now())
	avg.recompute(time.Now())
	if v, _ := sum.ReadStat("n"); v != 0.0 {
		t.Errorf("sum = %v, want 0", v)
	}
	if v, _ := avg.ReadStat("n"); v != 0.0 {
		t.Errorf("avg = %v, want 0", v)
	}
}

func TestNewAggregatedLine_Invalid(t *testing.T) {
	a := mustLine(t, "a", mustStat(t, "n", 1))

	if _, err := NewAggregatedLine("x", nil, []Row{nil}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil source error = %v, want ErrInvalidConfig", err)
	}
	var nilLine *Line
	if _, err := NewAggregatedLine("x", nil, []Row{a, nilLine}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("typed nil *Line source error = %v, want ErrInvalidConfig", err)
	}
	var nilAgg *AggregatedLine
	if _, err := NewAggregatedLine("x", nil, []Row{nilAgg}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("typed nil *AggregatedLine source error = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewAggregatedLine("x", nil, []Row{a}, WithLineStyle(StyleSeparator)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("separator style error = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewAggregatedLine("x", nil, []Row{a}, WithAggregateMode(AggregateMode(5))); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("unknown mode error = %v, want ErrInvalidConfig", err)
	}
}

func TestAggregatedLine_Sources(t *testing.T) {
	a := mustLine(t, "a", mustStat(t, "n", 1))
	b := mustLine(t, "b", mustStat(t, "n", 1))
	agg, _ := NewAggregatedLine("total", nil, []Row{a, b})

	if got := agg.Sources(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Sources() = %v, want [a b]", got)
	}
}

func TestParseAggregateMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AggregateMode
		wantErr bool
	}{
		{"", AggregateSum, false},
		{"sum", AggregateSum, false},
		{"avg", AggregateAvg, false},
		{"average", AggregateAvg, false},
		{"max", AggregateSum, true},
	}
	for _, tt := range tests {
		got, err := ParseAggregateMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAggregateMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{3, 3},
		{int64(-2), -2},
		{2.5, 2.5},
		{"4.25", 4.25},
		{"n/a", 0},
		{nil, 0},
		{struct{}{}, 0},
	}
	for _, tt := range tests {
		if got := toFloat(tt.in); got != tt.want {
			t.Errorf("toFloat(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
