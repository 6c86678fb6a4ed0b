// Package render substitutes placeholder tokens in SVG templates.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Values maps a placeholder token to its rendered text.
type Values map[string]string

// Merge copies every entry of other into v, overwriting duplicates.
func (v Values) Merge(other Values) Values {
	for k, val := range other {
		v[k] = val
	}
	return v
}

// Keys returns the tokens sorted alphabetically.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lines renders the values as sorted KEY=value lines.
func (v Values) Lines() string {
	var b strings.Builder
	for _, k := range v.Keys() {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// Apply replaces every literal occurrence of each token in tmpl. Longer tokens
// are replaced first so WEATHER_DESC_1 never clobbers part of WEATHER_DESC_10.
func Apply(tmpl string, values Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	out := tmpl
	for _, k := range keys {
		out = strings.ReplaceAll(out, k, values[k])
	}
	return out
}

// UpdateFile renders src with each stage in turn and atomically writes the
// result to dst. Text inserted by one stage is visible to the next. src and
// dst may be the same file.
func UpdateFile(src, dst string, stages ...Values) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read template %s: %w", src, err)
	}
	rendered := string(data)
	for _, values := range stages {
		rendered = Apply(rendered, values)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(rendered); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace output %s: %w", dst, err)
	}
	return nil
}
