// Package stacktrace trims goroutine stack dumps down to this module's frames.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" locations found in
// a raw debug.Stack() dump, in call order.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ".go:")
		if idx == -1 || !strings.Contains(line[:idx], marker) {
			continue
		}

		loc, _, _ := strings.Cut(line, " ")
		paths = append(paths, loc[strings.Index(loc, marker)+1:])
	}
	return paths
}
