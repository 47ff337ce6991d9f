package templates

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRunScript(t *testing.T) {
	script, err := RunScript(3000)
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if !strings.HasPrefix(script, "#!/bin/bash") {
		t.Error("run.sh missing shebang")
	}
	if !strings.Contains(script, "CONFIG_PORT=3000") {
		t.Error("run.sh missing configured port")
	}
}

func TestReadme(t *testing.T) {
	readme, err := Readme("v0.30.3", 8090)
	if err != nil {
		t.Fatalf("Readme: %v", err)
	}
	for _, want := range []string{"v0.30.3", "8090"} {
		if !strings.Contains(readme, want) {
			t.Errorf("README missing %q", want)
		}
	}
}

func TestJSONFilesAreValid(t *testing.T) {
	for name, content := range map[string]string{
		"package.json":  PackageJSON(),
		"tsconfig.json": TSConfig(),
	} {
		var v any
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			t.Errorf("%s: invalid JSON: %v", name, err)
		}
	}
}
