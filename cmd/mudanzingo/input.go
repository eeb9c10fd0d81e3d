package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// addInputFlags adds the flags read by readInput.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "Read fields from a JSON or YAML file ('-' for stdin)")
	cmd.Flags().String("data", "", "Fields as an inline JSON or YAML object")
	cmd.Flags().StringArray("set", nil, "Set one field as key=value; nested keys use dots (customer.name, trucks.0.year)")
}

// readInput layers --file, --data and --set over base, in that order.
func readInput(cmd *cobra.Command, base validation.Input) (validation.Input, error) {
	in := validation.Input{}
	mergeInput(in, base)

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := readFile(cmd, path)
		if err != nil {
			return nil, err
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		mergeInput(in, doc)
	}
	if raw, _ := cmd.Flags().GetString("data"); raw != "" {
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("--data: %w", err)
		}
		mergeInput(in, doc)
	}

	sets, _ := cmd.Flags().GetStringArray("set")
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q: expected key=value", kv)
		}
		setPath(in, strings.Split(key, "."), value)
	}
	return normalizeLists(in).(validation.Input), nil
}

func readFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// decodeDocument parses a JSON or YAML object.
func decodeDocument(data []byte) (validation.Input, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("not a JSON or YAML object: %w", err)
	}
	return validation.Input(doc), nil
}

// mergeInput copies src into dst, merging nested objects. Lists and scalars
// replace what dst holds.
func mergeInput(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := objectOf(v); ok {
			if dstMap, ok := objectOf(dst[k]); ok {
				merged := make(map[string]any, len(dstMap))
				mergeInput(merged, dstMap)
				mergeInput(merged, srcMap)
				dst[k] = merged
				continue
			}
		}
		dst[k] = v
	}
}

// setPath assigns value under a dotted path. Lists on the way are opened as
// index-keyed objects and rebuilt by normalizeLists.
func setPath(m map[string]any, path []string, value string) {
	key := path[0]
	if len(path) == 1 {
		m[key] = value
		return
	}
	var child map[string]any
	switch cur := m[key].(type) {
	case map[string]any:
		child = cur
	case validation.Input:
		child = cur
	case []any:
		child = make(map[string]any, len(cur))
		for i, item := range cur {
			child[strconv.Itoa(i)] = item
		}
	default:
		child = map[string]any{}
	}
	m[key] = child
	setPath(child, path[1:], value)
}

// normalizeLists turns objects keyed 0..n-1 back into lists.
func normalizeLists(v any) any {
	switch val := v.(type) {
	case validation.Input:
		for k, item := range val {
			val[k] = normalizeLists(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeLists(item)
		}
		if list, ok := asList(val); ok {
			return list
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeLists(item)
		}
		return val
	default:
		return v
	}
}

func asList(m map[string]any) ([]any, bool) {
	if len(m) == 0 {
		return nil, false
	}
	keys := make([]int, 0, len(m))
	for k := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return nil, false
		}
		keys = append(keys, i)
	}
	sort.Ints(keys)
	for i, k := range keys {
		if i != k {
			return nil, false
		}
	}
	list := make([]any, len(keys))
	for _, k := range keys {
		list[k] = m[strconv.Itoa(k)]
	}
	return list, true
}

func objectOf(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case validation.Input:
		return m, true
	default:
		return nil, false
	}
}
