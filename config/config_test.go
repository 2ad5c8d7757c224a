package config

import "testing"

func TestLoadJSON(t *testing.T) {
	data := []byte(`{"scale": 2, "axes": {"x": {"pins": {"step": 0, "dir": 1, "ms1": 2, "ms2": 3, "ms3": 4, "enable": 5}}}}`)
	cfg, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Scale != 2 {
		t.Errorf("Scale = %v, want 2", cfg.Scale)
	}
	axis, ok := cfg.Axes["x"]
	if !ok {
		t.Fatalf("expected axis x to be present")
	}
	if axis.SafeFreq != 5 {
		t.Errorf("expected default SafeFreq 5, got %d", axis.SafeFreq)
	}
}

func TestLoadYAML(t *testing.T) {
	data := []byte("scale: 3\naxes:\n  z:\n    pins:\n      step: 8\n      dir: 9\n      ms1: 2\n      ms2: 3\n      ms3: 4\n      enable: 5\n")
	cfg, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Scale != 3 {
		t.Errorf("Scale = %v, want 3", cfg.Scale)
	}
	if _, ok := cfg.Axes["z"]; !ok {
		t.Errorf("expected axis z to be present")
	}
}

func TestDefaultsAppliedWhenZero(t *testing.T) {
	cfg, err := Load([]byte(`{}`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BestFreq != 1 {
		t.Errorf("BestFreq default = %d, want 1", cfg.BestFreq)
	}
	if cfg.Serial.Baud != 115200 {
		t.Errorf("Serial.Baud default = %d, want 115200", cfg.Serial.Baud)
	}
}
