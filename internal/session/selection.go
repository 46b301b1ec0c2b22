package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandSelection turns operator input into an ordered file list. Each field
// is a path or a glob, with a leading ~ expanded; glob matches are filtered to exts (case-insensitive,
// with leading dot) and sorted, literal paths are kept as typed. Duplicates
// keep their first position.
func ExpandSelection(input string, exts []string) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(p string) {
		key := filepath.Clean(p)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}

	for _, field := range splitFields(input) {
		field = expandHome(field)
		if !hasMeta(field) {
			add(field)
			continue
		}
		matches, err := filepath.Glob(field)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", field, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if matchesExt(m, exts) {
				add(m)
			}
		}
	}
	return out, nil
}

// splitFields splits on whitespace; double quotes group a path containing spaces.
func splitFields(s string) []string {
	var (
		fields  []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	flush := func() {
		if pending {
			fields = append(fields, cur.String())
			cur.Reset()
			pending = false
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	flush()

	var nonEmpty []string
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return nonEmpty
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[`)
}

func matchesExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
