package config

import "testing"

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/groomly")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_TIMEZONE", "Asia/Kolkata")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "12")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Location.String() != "Asia/Kolkata" {
		t.Errorf("Location = %v, want Asia/Kolkata", cfg.Location)
	}
	if cfg.RateLimitPerMinute != 12 {
		t.Errorf("RateLimitPerMinute = %d, want 12", cfg.RateLimitPerMinute)
	}
	if !cfg.AutoMigrate {
		t.Error("AutoMigrate = false, want true")
	}
	if cfg.SweepSchedule != "* * * * *" {
		t.Errorf("SweepSchedule = %q, want every minute", cfg.SweepSchedule)
	}
	if cfg.RatingRefreshSchedule != "0 0 * * *" {
		t.Errorf("RatingRefreshSchedule = %q, want daily", cfg.RatingRefreshSchedule)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/groomly")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is empty in production")
	}
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: "http://localhost:3000, https://groomly.app"}
	if got := cfg.Origins(); got != "http://localhost:3000,https://groomly.app" {
		t.Errorf("Origins() = %q", got)
	}
}
