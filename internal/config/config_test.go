package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func load(t *testing.T, path string) *Config {
	t.Helper()
	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg := load(t, "")
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
}

func TestDefaultTemplateMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := WriteDefaultConfig(path, false); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}

	cfg := load(t, path)
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("template config = %+v\nwant %+v", cfg, Default())
	}
}

func TestWriteDefaultConfig_NoOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := WriteDefaultConfig(path, false); err == nil {
		t.Fatal("expected error for existing file")
	}
	if err := WriteDefaultConfig(path, true); err != nil {
		t.Fatalf("WriteDefaultConfig(force): %v", err)
	}
	if cfg := load(t, path); cfg.Server.Port != 3001 {
		t.Errorf("port = %d, want 3001 after forced overwrite", cfg.Server.Port)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `
server:
  port: 8080
  cors_origins: [https://cars.example.com]
database:
  driver: postgres
  dsn: postgres://u:p@db/showcase
auth:
  jwt_secret: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHOWCASE_AUTH_JWT_SECRET", "from-env")
	t.Setenv("SHOWCASE_STORAGE_S3_BUCKET", "uploads")

	cfg := load(t, path)
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://cars.example.com" {
		t.Errorf("cors_origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("jwt_secret = %q, env should win over file", cfg.Auth.JWTSecret)
	}
	if cfg.Storage.S3.Bucket != "uploads" {
		t.Errorf("s3 bucket = %q", cfg.Storage.S3.Bucket)
	}
	if cfg.Auth.Issuer != "showcase" {
		t.Errorf("unset keys should keep defaults, issuer = %q", cfg.Auth.Issuer)
	}
}

func TestReadFile_NamedFileMissing(t *testing.T) {
	v := NewViper()
	if err := ReadFile(v, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a named config file that does not exist")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Auth.JWTSecret = "s3cret"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		dev     bool
		wantErr string
	}{
		{"defaults with secret", func(c *Config) {}, false, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, false, "auth.jwt_secret"},
		{"missing secret in dev", func(c *Config) { c.Auth.JWTSecret = "" }, true, ""},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, false, "database.driver"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, false, "database.dsn"},
		{"bad expiry", func(c *Config) { c.Auth.JWTExpiry = "soon" }, false, "auth.jwt_expiry"},
		{"negative expiry", func(c *Config) { c.Auth.JWTExpiry = "-1h" }, false, "auth.jwt_expiry"},
		{"bad upload size", func(c *Config) { c.Server.MaxUploadSize = "lots" }, false, "server.max_upload_size"},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 3 }, false, "auth.bcrypt_cost"},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = "s3" }, false, "storage.s3.bucket"},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "ftp" }, false, "storage.backend"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, false, "logging.format"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, false, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate(tt.dev)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestParsedValues(t *testing.T) {
	c := Default()

	if d, err := c.Server.ShutdownDuration(); err != nil || d != 15*time.Second {
		t.Errorf("ShutdownDuration() = %v, %v", d, err)
	}
	if n, err := c.Server.UploadLimit(); err != nil || n != 20_000_000 {
		t.Errorf("UploadLimit() = %d, %v", n, err)
	}

	c.Server.MaxUploadSize = "16MiB"
	if n, _ := c.Server.UploadLimit(); n != 16<<20 {
		t.Errorf("UploadLimit(16MiB) = %d", n)
	}

	c.Auth.JWTExpiry = "1d"
	if d, err := c.Auth.Expiry(); err != nil || d != 24*time.Hour {
		t.Errorf("Expiry(1d) = %v, %v", d, err)
	}
}

func TestMasked(t *testing.T) {
	c := Default()
	c.Auth.JWTSecret = "top-secret"
	c.Storage.S3.SecretAccessKey = "aws-secret"
	c.Database.DSN = "postgres://showcase:hunter2@db:5432/showcase"

	m := c.Masked()
	out, err := m.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	for _, secret := range []string{"top-secret", "aws-secret", "hunter2"} {
		if strings.Contains(string(out), secret) {
			t.Errorf("masked output contains %q", secret)
		}
	}
	if !strings.Contains(m.Database.DSN, "postgres://showcase:********@db:5432") {
		t.Errorf("masked DSN = %q", m.Database.DSN)
	}
	if c.Auth.JWTSecret != "top-secret" {
		t.Error("Masked must not modify the original")
	}
}

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/var/lib/showcase.db", "/var/lib/showcase.db"},
		{"user:pass@tcp(localhost:3306)/db", "user:********@tcp(localhost:3306)/db"},
		{"postgres://user@host/db", "postgres://user@host/db"},
	}
	for _, tt := range tests {
		if got := maskDSN(tt.in); got != tt.want {
			t.Errorf("maskDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
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
