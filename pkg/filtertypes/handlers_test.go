package filtertypes

import (
	"testing"

	"github.com/bitechdev/GridSpec/pkg/common"
)

func TestTextProcess(t *testing.T) {
	h := &textHandler{}

	tests := []struct {
		name    string
		raw     interface{}
		col     common.ColumnSpec
		want    *common.FilterValue
		wantNil bool
	}{
		{
			name: "plain term defaults to contains",
			raw:  "dune",
			want: &common.FilterValue{Type: common.FilterText, Operator: common.OpContains, Value: "dune"},
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  dune  ",
			want: &common.FilterValue{Type: common.FilterText, Operator: common.OpContains, Value: "dune"},
		},
		{name: "empty input inactive", raw: "", wantNil: true},
		{name: "whitespace only inactive", raw: "   ", wantNil: true},
		{name: "nil input inactive", raw: nil, wantNil: true},
		{
			name: "operator option honored",
			raw:  "du",
			col:  common.ColumnSpec{FilterOptions: map[string]interface{}{"operator": "starts_with"}},
			want: &common.FilterValue{Type: common.FilterText, Operator: common.OpStartsWith, Value: "du"},
		},
		{
			name: "unknown operator option falls back to contains",
			raw:  "du",
			col:  common.ColumnSpec{FilterOptions: map[string]interface{}{"operator": "gt"}},
			want: &common.FilterValue{Type: common.FilterText, Operator: common.OpContains, Value: "du"},
		},
		{
			name: "case sensitive option",
			raw:  "Dune",
			col:  common.ColumnSpec{FilterOptions: map[string]interface{}{"case_sensitive": true}},
			want: &common.FilterValue{Type: common.FilterText, Operator: common.OpContains, Value: "Dune", CaseSensitive: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Process(tt.raw, tt.col)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Process() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Process() = nil, want value")
			}
			if got.Operator != tt.want.Operator || got.Value != tt.want.Value || got.CaseSensitive != tt.want.CaseSensitive {
				t.Errorf("Process() = %+v, want %+v", got, tt.want)
			}
			if !h.Validate(got) {
				t.Errorf("Validate(Process(%v)) = false", tt.raw)
			}
			if h.IsEmpty(got) {
				t.Errorf("IsEmpty(Process(%v)) = true", tt.raw)
			}
		})
	}
}

func TestSelectProcess(t *testing.T) {
	h := &selectHandler{}

	tests := []struct {
		name    string
		raw     interface{}
		col     common.ColumnSpec
		want    string
		wantNil bool
	}{
		{name: "choice selected", raw: "scifi", want: "scifi"},
		{name: "empty inactive", raw: "", wantNil: true},
		{name: "all sentinel inactive", raw: "all", wantNil: true},
		{name: "sentinel case insensitive", raw: "ALL", wantNil: true},
		{
			name:    "custom sentinel",
			raw:     "any",
			col:     common.ColumnSpec{FilterOptions: map[string]interface{}{"all_sentinel": "any"}},
			wantNil: true,
		},
		{
			// With a custom sentinel the default one is a real choice.
			name: "default sentinel selectable under custom sentinel",
			raw:  "all",
			col:  common.ColumnSpec{FilterOptions: map[string]interface{}{"all_sentinel": "any"}},
			want: "all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Process(tt.raw, tt.col)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Process() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.Value != tt.want || got.Operator != common.OpEquals {
				t.Errorf("Process() = %+v, want eq %q", got, tt.want)
			}
		})
	}
}

func TestMultiSelectProcess(t *testing.T) {
	h := &multiSelectHandler{tag: common.FilterMultiSelect}

	tests := []struct {
		name     string
		raw      interface{}
		col      common.ColumnSpec
		want     []string
		wantMode common.MatchMode
		wantNil  bool
	}{
		{name: "string list", raw: []string{"space", "classic"}, want: []string{"space", "classic"}, wantMode: common.MatchAny},
		{name: "comma joined string", raw: "space,classic", want: []string{"space", "classic"}, wantMode: common.MatchAny},
		{name: "interface list", raw: []interface{}{"space", "classic"}, want: []string{"space", "classic"}, wantMode: common.MatchAny},
		{name: "empty entries dropped", raw: []string{"space", "", "  "}, want: []string{"space"}, wantMode: common.MatchAny},
		{name: "no entries inactive", raw: []string{"", " "}, wantNil: true},
		{name: "nil inactive", raw: nil, wantNil: true},
		{
			name:     "match all option",
			raw:      []string{"space", "classic"},
			col:      common.ColumnSpec{FilterOptions: map[string]interface{}{"match_mode": "all"}},
			want:     []string{"space", "classic"},
			wantMode: common.MatchAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Process(tt.raw, tt.col)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Process() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Process() = nil, want value")
			}
			if len(got.Values) != len(tt.want) {
				t.Fatalf("Process() values = %v, want %v", got.Values, tt.want)
			}
			for i := range tt.want {
				if got.Values[i] != tt.want[i] {
					t.Errorf("Process() values = %v, want %v", got.Values, tt.want)
				}
			}
			if got.MatchMode != tt.wantMode {
				t.Errorf("Process() match mode = %q, want %q", got.MatchMode, tt.wantMode)
			}
			if !h.Validate(got) {
				t.Errorf("Validate(Process(%v)) = false", tt.raw)
			}
		})
	}
}

func TestBooleanProcess(t *testing.T) {
	h := &radioGroupHandler{tag: common.FilterBoolean, boolean: true}

	tests := []struct {
		name    string
		raw     interface{}
		want    interface{}
		wantNil bool
	}{
		{name: "true", raw: "true", want: true},
		{name: "false activates too", raw: "false", want: false},
		{name: "mixed case", raw: "True", want: true},
		{name: "empty inactive", raw: "", wantNil: true},
		{name: "all inactive", raw: "all", wantNil: true},
		{name: "garbage inactive", raw: "yes", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Process(tt.raw, common.ColumnSpec{})
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Process() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.Value != tt.want {
				t.Errorf("Process(%v) = %+v, want value %v", tt.raw, got, tt.want)
			}
			if !h.Validate(got) {
				t.Errorf("Validate(Process(%v)) = false", tt.raw)
			}
		})
	}
}

func TestRadioGroupProcess(t *testing.T) {
	h := &radioGroupHandler{tag: common.FilterRadioGroup}

	if got, _ := h.Process("paperback", common.ColumnSpec{}); got == nil || got.Value != "paperback" {
		t.Errorf("Process(paperback) = %+v, want eq paperback", got)
	}
	if got, _ := h.Process("all", common.ColumnSpec{}); got != nil {
		t.Errorf("Process(all) = %+v, want nil", got)
	}
}

func TestCheckboxProcess(t *testing.T) {
	h := &checkboxHandler{}

	checked := []interface{}{true, "true", "on", "1", "checked", "TRUE"}
	for _, raw := range checked {
		got, err := h.Process(raw, common.ColumnSpec{})
		if err != nil || got == nil {
			t.Fatalf("Process(%v) = %+v, %v; want active", raw, got, err)
		}
		if got.Value != true {
			t.Errorf("Process(%v) value = %v, want true", raw, got.Value)
		}
	}

	unchecked := []interface{}{false, "false", "off", "0", "", nil}
	for _, raw := range unchecked {
		if got, _ := h.Process(raw, common.ColumnSpec{}); got != nil {
			t.Errorf("Process(%v) = %+v, want nil", raw, got)
		}
	}

	col := common.ColumnSpec{FilterOptions: map[string]interface{}{"value": "premium"}}
	got, _ := h.Process("on", col)
	if got == nil || got.Value != "premium" {
		t.Errorf("Process with explicit value = %+v, want premium", got)
	}
}

func TestRangeProcess(t *testing.T) {
	number := &rangeHandler{tag: common.FilterNumberRange}
	date := &rangeHandler{tag: common.FilterDateRange}

	tests := []struct {
		name     string
		h        *rangeHandler
		raw      interface{}
		wantFrom string
		wantTo   string
		wantNil  bool
		wantErr  bool
	}{
		{name: "number pair map", h: number, raw: map[string]interface{}{"from": "10", "to": "20"}, wantFrom: "10", wantTo: "20"},
		{name: "min max aliases", h: number, raw: map[string]interface{}{"min": "10", "max": "20"}, wantFrom: "10", wantTo: "20"},
		{name: "comma joined", h: number, raw: "10,20", wantFrom: "10", wantTo: "20"},
		{name: "open upper bound", h: number, raw: map[string]interface{}{"from": "10"}, wantFrom: "10"},
		{name: "open lower bound", h: number, raw: ",20", wantTo: "20"},
		{name: "both empty inactive", h: number, raw: map[string]interface{}{}, wantNil: true},
		{name: "unparseable number rejected", h: number, raw: "abc,20", wantErr: true},
		{name: "date pair", h: date, raw: map[string]interface{}{"from": "2020-01-01", "to": "2021-12-31"}, wantFrom: "2020-01-01", wantTo: "2021-12-31"},
		{name: "rfc3339 accepted", h: date, raw: map[string]interface{}{"from": "2020-01-01T10:30:00Z"}, wantFrom: "2020-01-01T10:30:00Z"},
		{name: "unparseable date rejected", h: date, raw: "notadate,2021-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.h.Process(tt.raw, common.ColumnSpec{})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Process(%v) error = nil, want error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Process() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.From != tt.wantFrom || got.To != tt.wantTo {
				t.Errorf("Process(%v) = %+v, want from=%q to=%q", tt.raw, got, tt.wantFrom, tt.wantTo)
			}
			if !tt.h.Validate(got) {
				t.Errorf("Validate(Process(%v)) = false", tt.raw)
			}
		})
	}
}
