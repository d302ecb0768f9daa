package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_PATH", "UPLOAD_DIR", "LOG_LEVEL", "SKIP_MIGRATIONS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != defaultPort {
		t.Fatalf("expected port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver by default, got %s", cfg.Database.Driver)
	}
	if cfg.UploadDir != defaultUploadDir {
		t.Fatalf("expected upload dir %s, got %s", defaultUploadDir, cfg.UploadDir)
	}
	if cfg.SkipMigrations {
		t.Fatalf("migrations should run by default")
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("SKIP_MIGRATIONS", "TRUE")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Fatalf("expected mysql driver, got %s", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.Database.MaxOpenConns)
	}
	if !cfg.SkipMigrations {
		t.Fatalf("expected SKIP_MIGRATIONS to be honoured")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestMySQLDSN(t *testing.T) {
	cases := []struct {
		host     string
		contains string
	}{
		{"127.0.0.1", "@tcp(127.0.0.1:3306)/stock"},
		{"/cloudsql/proj:region:instance", "@unix(/cloudsql/proj:region:instance)/stock"},
	}
	for _, tc := range cases {
		dsn := DatabaseConfig{User: "root", Password: "pw", Host: tc.host, Port: "3306", Name: "stock"}.MySQLDSN()
		if !strings.Contains(dsn, tc.contains) {
			t.Fatalf("dsn %q does not contain %q", dsn, tc.contains)
		}
		if !strings.Contains(dsn, "parseTime=true") {
			t.Fatalf("dsn %q should enable parseTime", dsn)
		}
	}
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDatabase(DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
