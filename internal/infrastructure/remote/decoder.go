package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Decoder flattens one jurisdiction's response dialect into raw records,
// still under the source's own field names.
type Decoder interface {
	Name() string
	Decode(r io.Reader) ([]map[string]string, error)
}

// Registry keeps a mapping from dialect names to their decoders.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: map[string]Decoder{}}
}

// Register adds or replaces a decoder implementation.
func (r *Registry) Register(dec Decoder) {
	if r.decoders == nil {
		r.decoders = map[string]Decoder{}
	}
	r.decoders[dec.Name()] = dec
}

// Resolve returns a decoder by dialect name or an error if it is absent.
func (r *Registry) Resolve(name string) (Decoder, error) {
	if dec, ok := r.decoders[name]; ok {
		return dec, nil
	}
	return nil, fmt.Errorf("response dialect %s is not registered", name)
}

// DefaultRegistry carries the two dialects county services actually speak.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(JSONDecoder{})
	reg.Register(HTMLTableDecoder{})
	return reg
}

// JSONDecoder handles record services that answer with a JSON record set:
// either a bare array of objects or an object wrapping one under a common
// collection key (records, results, features, rows, data). ArcGIS-style
// feature objects are unwrapped to their attributes.
type JSONDecoder struct{}

func (JSONDecoder) Name() string { return "json" }

func (JSONDecoder) Decode(r io.Reader) ([]map[string]string, error) {
	var root any
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode json response: %w", err)
	}

	var records []map[string]string
	for _, item := range recordList(root) {
		if rec, ok := flatten(item); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func recordList(root any) []any {
	switch v := root.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{"records", "results", "features", "rows", "data"} {
			if arr, ok := v[key].([]any); ok {
				return arr
			}
		}
	}
	return nil
}

func flatten(item any) (map[string]string, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return nil, false
	}
	if attrs, ok := obj["attributes"].(map[string]any); ok {
		obj = attrs
	}

	rec := make(map[string]string, len(obj))
	for key, val := range obj {
		rec[key] = stringify(val)
	}
	return rec, true
}

func stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// HTMLTableDecoder handles services that only expose an HTML results table:
// the first table's header row names the columns, each following row is a
// record.
type HTMLTableDecoder struct{}

func (HTMLTableDecoder) Name() string { return "html" }

func (HTMLTableDecoder) Decode(r io.Reader) ([]map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html response: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil
	}

	var headers []string
	table.Find("tr").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})
	if len(headers) == 0 {
		return nil, fmt.Errorf("html response table has no header row")
	}

	var records []map[string]string
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		rec := make(map[string]string, len(headers))
		tr.Find("td").Each(func(j int, td *goquery.Selection) {
			if j < len(headers) {
				rec[headers[j]] = strings.TrimSpace(td.Text())
			}
		})
		if len(rec) > 0 {
			records = append(records, rec)
		}
	})
	return records, nil
}
