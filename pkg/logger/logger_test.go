package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Init is safe to call again.
	if err := Init(); err != nil {
		t.Fatalf("failed to re-initialize logger: %v", err)
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log := Get()
	log.Info(ctx, "test message", String("k", "v"), Int("n", 1))
	log.Debug(ctx, "below default level")
	log.Warn(ctx, "warn message", Duration("d", time.Second))
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	named := Named("test")
	if named == nil {
		t.Fatal("named logger is nil")
	}
	named.Info(context.Background(), "test message")

	child := named.Named("child")
	if child == nil {
		t.Fatal("child logger is nil")
	}
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tc := range cases {
		err := SetLevelString(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("SetLevelString(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetLevelString(%q): %v", tc.in, err)
			continue
		}
		if got := levelVar.Level(); got != tc.want {
			t.Errorf("SetLevelString(%q): level = %v, want %v", tc.in, got, tc.want)
		}
	}

	SetLevel(slog.LevelInfo)
}

func TestFieldConstructors(t *testing.T) {
	if f := String("k", "v"); f.Key != "k" || f.Value != "v" {
		t.Errorf("String field = %+v", f)
	}
	if f := Int64("n", 7); f.Value != int64(7) {
		t.Errorf("Int64 field = %+v", f)
	}
	if f := Bool("b", true); f.Value != true {
		t.Errorf("Bool field = %+v", f)
	}
	if f := Error(context.DeadlineExceeded); f.Key != "error" {
		t.Errorf("Error field key = %q", f.Key)
	}
}
