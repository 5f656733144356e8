package main

import (
	"context"
	"fmt"
	"io"

	"github.com/benjaminschreck/go-odtemplate/pkg/odtemplate"
	"gopkg.in/yaml.v3"
)

// renderData is the YAML data file:
//
//	values:            # values by category
//	  date:
//	    due: 2024-03-01
//	fields:            # values categorized by their YAML type
//	  customer: ACME Corp
//	  total: 99.5
//	tables:
//	  items:
//	    - product: Widget
//	      unit_price: 1.5
//	    - product: Gadget
//	      due: {type: date, value: 2024-04-01}
type renderData struct {
	Values map[string]map[string]any   `yaml:"values"`
	Fields map[string]any              `yaml:"fields"`
	Tables map[string][]map[string]any `yaml:"tables"`
}

func readData(ctx context.Context, store *storage, path string) (*renderData, error) {
	r, err := store.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open data: %w", err)
	}
	defer r.Close()

	data, err := decodeData(r)
	if err != nil {
		return nil, fmt.Errorf("data %s: %w", path, err)
	}
	return data, nil
}

func decodeData(r io.Reader) (*renderData, error) {
	var data renderData
	if err := yaml.NewDecoder(r).Decode(&data); err != nil && err != io.EOF {
		return nil, err
	}
	for _, rows := range data.Tables {
		for _, row := range rows {
			for name, v := range row {
				row[name] = typedValue(v)
			}
		}
	}
	return &data, nil
}

// typedValue turns a {type, value} mapping into odtemplate.Typed.
func typedValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 2 {
		return v
	}
	category, ok := m["type"].(string)
	if !ok {
		return v
	}
	value, ok := m["value"]
	if !ok {
		return v
	}
	return odtemplate.Typed{Type: category, Value: value}
}

// apply registers table expansion before the value handlers so values named
// after generated rows (items.3.product) resolve.
func (d *renderData) apply(tmpl *odtemplate.Template) {
	if len(d.Tables) > 0 {
		tmpl.ApplyTable(odtemplate.TableData(d.Tables))
	}
	if len(d.Values) > 0 {
		tmpl.ApplyValues(odtemplate.Values(d.Values))
	}
	if len(d.Fields) > 0 {
		tmpl.ApplyFields(d.Fields)
	}
	if len(d.Tables) == 0 && len(d.Values) == 0 && len(d.Fields) == 0 {
		// no data still renders a copy of the template
		tmpl.ApplyValues(odtemplate.Values{})
	}
}
