// Package scripts holds the built-in Risor scripts shipped with sapling.
package scripts

import (
	"embed"
	"strings"
)

// FS contains every built-in script, addressed by file name
// ("outline.risor").
//
//go:embed *.risor
var FS embed.FS

// Names lists the built-in scripts by name, without extension.
func Names() []string {
	entries, err := FS.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".risor"))
	}
	return names
}
