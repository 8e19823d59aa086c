package cliconfig

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"BATCHSHIP_WATCH_DIRS":      "/a, /b ,,/c",
				"BATCHSHIP_CAPACITY":        "20",
				"BATCHSHIP_DELAY":           "1s",
				"BATCHSHIP_SINK":            "kafka",
				"BATCHSHIP_KAFKA_BROKERS":   "k1:9092,k2:9092",
				"BATCHSHIP_SERIAL_DISPATCH": "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				WatchDirs:      []string{"/a", "/b", "/c"},
				Capacity:       20,
				Delay:          time.Second,
				Sink:           "kafka",
				KafkaBrokers:   []string{"k1:9092", "k2:9092"},
				SerialDispatch: true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"BATCHSHIP_CAPACITY": "20",
				"BATCHSHIP_WORKERS":  "8",
			},
			changed: map[string]bool{"capacity": true},
			initial: Config{
				Capacity: 5,
			},
			expected: Config{
				Capacity: 5,
				Workers:  8,
			},
			wantErr: false,
		},
		{
			name: "non-positive ints are ignored",
			envVars: map[string]string{
				"BATCHSHIP_CAPACITY": "0",
			},
			changed:  map[string]bool{},
			initial:  Config{Capacity: 100},
			expected: Config{Capacity: 100},
			wantErr:  false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"BATCHSHIP_DELAY": "not-a-duration",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"BATCHSHIP_MAX_RETRIES": "many",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		WatchDirs:      []string{"/file/dir"},
		Capacity:       10,
		SerialDispatch: &trueVal,
		Delay:          "3s",
	}

	t.Setenv("BATCHSHIP_WATCH_DIRS", "/env/dir")
	t.Setenv("BATCHSHIP_CAPACITY", "20")

	// Simulate CLI flags
	changed := map[string]bool{
		"watch": true,
	}

	cfg := DefaultConfig()
	cfg.WatchDirs = []string{"/cli/dir"}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if !reflect.DeepEqual(cfg.WatchDirs, []string{"/cli/dir"}) {
		t.Errorf("WatchDirs = %v, want [/cli/dir] (CLI should win)", cfg.WatchDirs)
	}
	if cfg.Capacity != 20 {
		t.Errorf("Capacity = %v, want 20 (env should override file)", cfg.Capacity)
	}
	if cfg.Delay != 3*time.Second {
		t.Errorf("Delay = %v, want 3s (file should set)", cfg.Delay)
	}
	if !cfg.SerialDispatch {
		t.Error("SerialDispatch = false, want true (file should set)")
	}
}
