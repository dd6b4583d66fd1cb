package filtertypes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/fieldpath"
)

// rawString coerces form input into a string.
func rawString(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// rawStrings coerces form input into a string list, dropping empty and
// nil entries.
func rawStrings(raw interface{}) []string {
	var items []string
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		items = v
	case []interface{}:
		for _, item := range v {
			items = append(items, rawString(item))
		}
	case string:
		items = strings.Split(v, ",")
	default:
		items = []string{rawString(v)}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// columnOption reads an option from the column spec, falling back to the
// handler default.
func columnOption(col common.ColumnSpec, defaults map[string]interface{}, key string) interface{} {
	if col.FilterOptions != nil {
		if v, ok := col.FilterOptions[key]; ok {
			return v
		}
	}
	return defaults[key]
}

func optionString(col common.ColumnSpec, defaults map[string]interface{}, key string) string {
	return rawString(columnOption(col, defaults, key))
}

func optionBool(col common.ColumnSpec, defaults map[string]interface{}, key string) bool {
	v := columnOption(col, defaults, key)
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}

// ---------------------------------------------------------------------- //
// text

var textOperators = map[common.Operator]bool{
	common.OpEquals:        true,
	common.OpNotEquals:     true,
	common.OpContains:      true,
	common.OpNotContains:   true,
	common.OpStartsWith:    true,
	common.OpNotStartsWith: true,
	common.OpEndsWith:      true,
	common.OpNotEndsWith:   true,
}

type textHandler struct{}

func (h *textHandler) DefaultOptions() map[string]interface{} {
	return map[string]interface{}{
		"operator":       string(common.OpContains),
		"case_sensitive": false,
		"placeholder":    "",
	}
}

func (h *textHandler) Process(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
	term := strings.TrimSpace(rawString(raw))
	if term == "" {
		return nil, nil
	}

	op := common.Operator(optionString(col, h.DefaultOptions(), "operator"))
	if !textOperators[op] {
		op = common.OpContains
	}

	return &common.FilterValue{
		Type:          common.FilterText,
		Operator:      op,
		Value:         term,
		CaseSensitive: optionBool(col, h.DefaultOptions(), "case_sensitive"),
	}, nil
}

func (h *textHandler) Validate(value *common.FilterValue) bool {
	if value == nil || value.Type != common.FilterText {
		return false
	}
	s, ok := value.Value.(string)
	return ok && s != "" && textOperators[value.Operator]
}

func (h *textHandler) IsEmpty(value *common.FilterValue) bool {
	return value == nil || rawString(value.Value) == ""
}

func (h *textHandler) Render(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error) {
	spec := RenderSpec{Control: "text", Options: col.FilterOptions}
	if value != nil {
		spec.Selected = value.Value
	}
	return spec, nil
}

func (h *textHandler) BuildPredicate(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	return applyComparison(query, path, value, resource)
}

// ---------------------------------------------------------------------- //
// select

type selectHandler struct{}

func (h *selectHandler) DefaultOptions() map[string]interface{} {
	return map[string]interface{}{
		"choices":      nil,
		"all_sentinel": "all",
	}
}

func (h *selectHandler) Process(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
	choice := strings.TrimSpace(rawString(raw))
	sentinel := optionString(col, h.DefaultOptions(), "all_sentinel")
	if choice == "" || strings.EqualFold(choice, sentinel) {
		return nil, nil
	}
	return &common.FilterValue{
		Type:     common.FilterSelect,
		Operator: common.OpEquals,
		Value:    choice,
	}, nil
}

func (h *selectHandler) Validate(value *common.FilterValue) bool {
	if value == nil || value.Type != common.FilterSelect || value.Operator != common.OpEquals {
		return false
	}
	return rawString(value.Value) != ""
}

func (h *selectHandler) IsEmpty(value *common.FilterValue) bool {
	return value == nil || rawString(value.Value) == ""
}

func (h *selectHandler) Render(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error) {
	spec := RenderSpec{Control: "select", Options: col.FilterOptions, Choices: choicesFromOptions(col)}
	if value != nil {
		spec.Selected = value.Value
	}
	return spec, nil
}

func (h *selectHandler) BuildPredicate(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	return applyComparison(query, path, value, resource)
}

// ---------------------------------------------------------------------- //
// multi select / multi checkboxes

type multiSelectHandler struct {
	tag common.FilterType
}

func (h *multiSelectHandler) DefaultOptions() map[string]interface{} {
	return map[string]interface{}{
		"choices":    nil,
		"match_mode": string(common.MatchAny),
	}
}

func (h *multiSelectHandler) Process(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
	values := rawStrings(raw)
	if len(values) == 0 {
		return nil, nil
	}

	mode := common.MatchMode(optionString(col, h.DefaultOptions(), "match_mode"))
	if mode != common.MatchAll {
		mode = common.MatchAny
	}

	return &common.FilterValue{
		Type:      h.tag,
		Operator:  common.OpIn,
		Values:    values,
		MatchMode: mode,
	}, nil
}

func (h *multiSelectHandler) Validate(value *common.FilterValue) bool {
	if value == nil || value.Type != h.tag || value.Operator != common.OpIn {
		return false
	}
	if len(value.Values) == 0 {
		return false
	}
	for _, v := range value.Values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return value.MatchMode == common.MatchAny || value.MatchMode == common.MatchAll
}

func (h *multiSelectHandler) IsEmpty(value *common.FilterValue) bool {
	return value == nil || len(value.Values) == 0
}

func (h *multiSelectHandler) Render(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error) {
	control := "multi_select"
	if h.tag == common.FilterMultiCheckbox {
		control = "multi_checkboxes"
	}
	spec := RenderSpec{Control: control, Options: col.FilterOptions, Choices: choicesFromOptions(col)}
	if value != nil {
		spec.Selected = value.Values
	}
	return spec, nil
}

func (h *multiSelectHandler) BuildPredicate(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	return applyMultiValue(query, path, value, resource)
}

// ---------------------------------------------------------------------- //
// radio group / boolean

type radioGroupHandler struct {
	tag     common.FilterType
	boolean bool
}

func (h *radioGroupHandler) DefaultOptions() map[string]interface{} {
	if h.boolean {
		return map[string]interface{}{
			"true_label":  "Yes",
			"false_label": "No",
		}
	}
	return map[string]interface{}{
		"choices":      nil,
		"all_sentinel": "all",
	}
}

func (h *radioGroupHandler) Process(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
	choice := strings.TrimSpace(rawString(raw))

	if h.boolean {
		// Only literal true/false activate the filter; "", "all" and
		// anything else mean "no constraint".
		switch strings.ToLower(choice) {
		case "true":
			return &common.FilterValue{Type: h.tag, Operator: common.OpEquals, Value: true}, nil
		case "false":
			return &common.FilterValue{Type: h.tag, Operator: common.OpEquals, Value: false}, nil
		default:
			return nil, nil
		}
	}

	sentinel := optionString(col, h.DefaultOptions(), "all_sentinel")
	if choice == "" || strings.EqualFold(choice, sentinel) {
		return nil, nil
	}
	return &common.FilterValue{Type: h.tag, Operator: common.OpEquals, Value: choice}, nil
}

func (h *radioGroupHandler) Validate(value *common.FilterValue) bool {
	if value == nil || value.Type != h.tag || value.Operator != common.OpEquals {
		return false
	}
	if h.boolean {
		_, ok := value.Value.(bool)
		return ok
	}
	return rawString(value.Value) != ""
}

func (h *radioGroupHandler) IsEmpty(value *common.FilterValue) bool {
	if value == nil {
		return true
	}
	if h.boolean {
		_, ok := value.Value.(bool)
		return !ok
	}
	return rawString(value.Value) == ""
}

func (h *radioGroupHandler) Render(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error) {
	control := "radio_group"
	if h.boolean {
		control = "boolean"
	}
	spec := RenderSpec{Control: control, Options: col.FilterOptions, Choices: choicesFromOptions(col)}
	if value != nil {
		spec.Selected = value.Value
	}
	return spec, nil
}

func (h *radioGroupHandler) BuildPredicate(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	return applyComparison(query, path, value, resource)
}

// ---------------------------------------------------------------------- //
// checkbox

type checkboxHandler struct{}

func (h *checkboxHandler) DefaultOptions() map[string]interface{} {
	return map[string]interface{}{
		"value": true,
	}
}

func (h *checkboxHandler) Process(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
	checked := false
	switch v := raw.(type) {
	case bool:
		checked = v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		checked = s == "true" || s == "on" || s == "1" || s == "checked"
	}
	if !checked {
		return nil, nil
	}

	// The comparison value is fixed at configuration time. Non-boolean
	// fields must declare it explicitly; NewTable enforces that.
	target := columnOption(col, h.DefaultOptions(), "value")
	return &common.FilterValue{Type: common.FilterCheckbox, Operator: common.OpEquals, Value: target}, nil
}

func (h *checkboxHandler) Validate(value *common.FilterValue) bool {
	return value != nil && value.Type == common.FilterCheckbox &&
		value.Operator == common.OpEquals && value.Value != nil
}

func (h *checkboxHandler) IsEmpty(value *common.FilterValue) bool {
	return value == nil || value.Value == nil
}

func (h *checkboxHandler) Render(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error) {
	spec := RenderSpec{Control: "checkbox", Options: col.FilterOptions}
	spec.Selected = value != nil
	return spec, nil
}

func (h *checkboxHandler) BuildPredicate(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	return applyComparison(query, path, value, resource)
}

// ---------------------------------------------------------------------- //
// date range / number range

var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type rangeHandler struct {
	tag common.FilterType
}

func (h *rangeHandler) DefaultOptions() map[string]interface{} {
	if h.tag == common.FilterDateRange {
		return map[string]interface{}{"from_label": "From", "to_label": "To"}
	}
	return map[string]interface{}{"min_label": "Min", "max_label": "Max"}
}

// Process accepts a structured {from,to}/{min,max} pair or a single
// comma-joined string for form-encoding compatibility.
func (h *rangeHandler) Process(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
	var from, to string

	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		from = rawString(firstOf(v, "from", "min"))
		to = rawString(firstOf(v, "to", "max"))
	case map[string]string:
		generic := make(map[string]interface{}, len(v))
		for k, s := range v {
			generic[k] = s
		}
		from = rawString(firstOf(generic, "from", "min"))
		to = rawString(firstOf(generic, "to", "max"))
	case string:
		parts := strings.SplitN(v, ",", 2)
		from = parts[0]
		if len(parts) == 2 {
			to = parts[1]
		}
	default:
		from = rawString(v)
	}

	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" && to == "" {
		return nil, nil
	}

	// A single open endpoint is valid, an unparseable one is not.
	if from != "" && !h.parses(from) {
		return nil, fmt.Errorf("invalid %s endpoint %q", h.tag, from)
	}
	if to != "" && !h.parses(to) {
		return nil, fmt.Errorf("invalid %s endpoint %q", h.tag, to)
	}

	return &common.FilterValue{
		Type:     h.tag,
		Operator: common.OpBetween,
		From:     from,
		To:       to,
	}, nil
}

func (h *rangeHandler) parses(endpoint string) bool {
	if h.tag == common.FilterNumberRange {
		_, err := strconv.ParseFloat(endpoint, 64)
		return err == nil
	}
	for _, format := range dateFormats {
		if _, err := time.Parse(format, endpoint); err == nil {
			return true
		}
	}
	return false
}

func (h *rangeHandler) Validate(value *common.FilterValue) bool {
	if value == nil || value.Type != h.tag || value.Operator != common.OpBetween {
		return false
	}
	if value.From == "" && value.To == "" {
		return false
	}
	if value.From != "" && !h.parses(value.From) {
		return false
	}
	if value.To != "" && !h.parses(value.To) {
		return false
	}
	return true
}

func (h *rangeHandler) IsEmpty(value *common.FilterValue) bool {
	return value == nil || (value.From == "" && value.To == "")
}

func (h *rangeHandler) Render(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error) {
	control := "number_range"
	if h.tag == common.FilterDateRange {
		control = "date_range"
	}
	spec := RenderSpec{Control: control, Options: col.FilterOptions}
	if value != nil {
		spec.Selected = map[string]string{"from": value.From, "to": value.To}
	}
	return spec, nil
}

func (h *rangeHandler) BuildPredicate(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	return applyRange(query, path, value, resource)
}

func firstOf(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func choicesFromOptions(col common.ColumnSpec) []Choice {
	if col.FilterOptions == nil {
		return nil
	}
	raw, ok := col.FilterOptions["choices"]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []Choice:
		return v
	case []string:
		choices := make([]Choice, 0, len(v))
		for _, s := range v {
			choices = append(choices, Choice{Value: s, Label: fieldpath.Humanize(s)})
		}
		return choices
	default:
		return nil
	}
}
