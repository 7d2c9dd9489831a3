package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carshowcase/showcase/internal/config"
	"github.com/carshowcase/showcase/internal/model"
)

// isolate keeps config discovery away from the developer's files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHOWCASE_AUTH_BCRYPT_COST", "4")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	appVersion = "1.2.3"
	cmd := newRootCmd("1.2.3", "abc123", "2026-01-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("showcase %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestVersion_JSON(t *testing.T) {
	isolate(t)
	out := mustRun(t, "version", "--json")

	var info buildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Errorf("info = %+v", info)
	}
	if info.GoVersion == "" || !strings.Contains(info.Platform, "/") {
		t.Errorf("runtime fields missing: %+v", info)
	}
}

func TestConfigInit(t *testing.T) {
	dir := isolate(t)

	out := mustRun(t, "config", "init")
	if !strings.Contains(out, "Created "+config.DefaultFile) {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, config.DefaultFile)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := runCLI(t, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	mustRun(t, "config", "init", "--force")
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("SHOWCASE_AUTH_JWT_SECRET", "do-not-print-me")
	t.Setenv("SHOWCASE_SERVER_PORT", "4100")

	out := mustRun(t, "config", "show")
	if strings.Contains(out, "do-not-print-me") {
		t.Errorf("secret leaked:\n%s", out)
	}
	if !strings.Contains(out, "********") {
		t.Errorf("masked secret missing:\n%s", out)
	}
	if !strings.Contains(out, "port: 4100") {
		t.Errorf("env override missing:\n%s", out)
	}
	if !strings.Contains(out, "No config file found") {
		t.Errorf("expected no-file notice:\n%s", out)
	}
}

func TestConfigShow_UsesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  format: json\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "--config", path, "config", "show")
	if !strings.Contains(out, "# Config file: "+path) {
		t.Errorf("config file line missing:\n%s", out)
	}
	if !strings.Contains(out, "format: json") {
		t.Errorf("file value missing:\n%s", out)
	}
}

func TestOpenAPI_Stdout(t *testing.T) {
	isolate(t)
	out := mustRun(t, "openapi")

	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.OpenAPI != "3.1.0" {
		t.Errorf("openapi = %q", doc.OpenAPI)
	}
	if doc.Info.Version != "1.2.3" {
		t.Errorf("info.version = %q", doc.Info.Version)
	}
	if _, ok := doc.Paths["/api/auth/login"]; !ok {
		t.Error("login path missing")
	}
}

func TestOpenAPI_YAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "api.yaml")

	out := mustRun(t, "openapi", "-o", path)
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("output = %q", out)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "openapi: 3.1.0") {
		t.Errorf("not a YAML openapi document:\n%.200s", b)
	}
}

func TestAdmin_CreatePromoteList(t *testing.T) {
	dir := isolate(t)
	data := filepath.Join(dir, "data")
	const email = "root@example.com"

	out := mustRun(t, "--data-dir", data, "admin", "list")
	if !strings.Contains(out, "No admin users configured") {
		t.Errorf("empty list output = %q", out)
	}

	out = mustRun(t, "--data-dir", data, "admin", "create", "--email", email, "--password", "Sup3rSecret!")
	if !strings.Contains(out, "Created admin user") {
		t.Errorf("create output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(data, "showcase.db")); err != nil {
		t.Errorf("database not created in data dir: %v", err)
	}

	out = mustRun(t, "--data-dir", data, "admin", "list", "--json")
	var admins []model.UserSummary
	if err := json.Unmarshal([]byte(out), &admins); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(admins) != 1 || admins[0].Email != email || admins[0].FirstName != "Site" {
		t.Fatalf("admins = %+v", admins)
	}

	mustRun(t, "--data-dir", data, "admin", "promote", email, "--revoke")
	out = mustRun(t, "--data-dir", data, "admin", "list", "--json")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("after revoke: %s", out)
	}

	out = mustRun(t, "--data-dir", data, "admin", "promote", email)
	if !strings.Contains(out, "is now an admin") {
		t.Errorf("promote output = %q", out)
	}
	out = mustRun(t, "--data-dir", data, "admin", "list")
	if !strings.Contains(out, email) {
		t.Errorf("table missing %s:\n%s", email, out)
	}
}

func TestAdmin_CreateRejectsWeakPassword(t *testing.T) {
	dir := isolate(t)
	_, err := runCLI(t, "--data-dir", filepath.Join(dir, "data"), "admin", "create", "--email", "a@example.com", "--password", "short")
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestAdmin_CreateDuplicate(t *testing.T) {
	dir := isolate(t)
	data := filepath.Join(dir, "data")
	args := []string{"--data-dir", data, "admin", "create", "--email", "dup@example.com", "--password", "Sup3rSecret!"}

	mustRun(t, args...)
	if _, err := runCLI(t, args...); err == nil {
		t.Fatal("expected duplicate email error")
	}
}

func TestAdmin_PromoteUnknown(t *testing.T) {
	dir := isolate(t)
	if _, err := runCLI(t, "--data-dir", filepath.Join(dir, "data"), "admin", "promote", "ghost@example.com"); err == nil {
		t.Fatal("expected not found error")
	}
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore Chdir: %v", err)
		}
	})
}
