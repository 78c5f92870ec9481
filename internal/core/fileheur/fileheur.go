// Package fileheur decides a commit category from its changed file extensions alone
package fileheur

import (
	"path"
	"strings"

	"gitpulse/internal/core/category"
)

var docExts = map[string]struct{}{
	".md": {}, ".rst": {}, ".adoc": {}, ".markdown": {}, ".txt": {},
}

var choreExts = map[string]struct{}{
	".tf": {}, ".tfvars": {}, ".yml": {}, ".yaml": {}, ".json": {}, ".env": {},
	".ini": {}, ".cfg": {}, ".lock": {}, ".dockerfile": {}, ".gitignore": {},
	".gitattributes": {}, ".sh": {}, ".bat": {}, ".ps1": {},
}

// Classify returns docs or chore when every file extension is in the matching
// allow list, ok is false when the files do not decide
func Classify(files []string) (category.Category, bool) {
	if len(files) == 0 {
		return "", false
	}
	exts := Extensions(files)
	if allIn(exts, docExts) {
		return category.Docs, true
	}
	if allIn(exts, choreExts) {
		return category.Chore, true
	}
	return "", false
}

// Extensions returns the set of normalized extensions across files
func Extensions(files []string) map[string]struct{} {
	out := make(map[string]struct{}, len(files))
	for _, f := range files {
		out[Ext(f)] = struct{}{}
	}
	return out
}

// Ext normalizes a file name to its lower case extension
// names starting with dockerfile map to .dockerfile and dotless names map to ""
func Ext(name string) string {
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if strings.HasPrefix(base, "dockerfile") {
		return ".dockerfile"
	}
	return path.Ext(base)
}

func allIn(exts map[string]struct{}, allow map[string]struct{}) bool {
	for e := range exts {
		if _, ok := allow[e]; !ok {
			return false
		}
	}
	return true
}
