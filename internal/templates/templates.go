// Package templates holds the generated-project files: helper
// scripts, the TypeScript hooks subproject, and the project README.
package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed templates/run.sh.tmpl
var runScriptTemplate string

//go:embed templates/readme.md.tmpl
var readmeTemplate string

//go:embed templates/init-types.sh.tmpl
var initTypesScript string

//go:embed templates/gitignore.tmpl
var gitignore string

//go:embed templates/main.pb.ts.tmpl
var hookEntry string

//go:embed templates/pocketbase.d.ts.tmpl
var hookTypes string

//go:embed templates/package.json.tmpl
var packageJSON string

//go:embed templates/tsconfig.json.tmpl
var tsConfig string

//go:embed templates/tsup.config.ts.tmpl
var tsupConfig string

// RunScript renders run.sh for the configured port.
func RunScript(port int) (string, error) {
	return render("run.sh", runScriptTemplate, map[string]any{"Port": port})
}

// Readme renders the project README for the pinned version and port.
func Readme(version string, port int) (string, error) {
	return render("readme.md", readmeTemplate, map[string]any{
		"Version": version,
		"Port":    port,
	})
}

// InitTypesScript returns the init-types.sh helper script.
func InitTypesScript() string { return initTypesScript }

// Gitignore returns the project .gitignore.
func Gitignore() string { return gitignore }

// HookEntry returns the example TypeScript hook entry file.
func HookEntry() string { return hookEntry }

// HookTypes returns the TypeScript type definition stub, replaced by
// the generated definitions when init-types.sh runs.
func HookTypes() string { return hookTypes }

// PackageJSON returns the hooks subproject package.json.
func PackageJSON() string { return packageJSON }

// TSConfig returns the hooks subproject tsconfig.json.
func TSConfig() string { return tsConfig }

// TsupConfig returns the hooks subproject tsup.config.ts.
func TsupConfig() string { return tsupConfig }

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
