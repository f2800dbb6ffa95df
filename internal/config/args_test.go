package config

import (
	"strings"
	"testing"
)

func TestParseToggles(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantAudio   bool
		wantVisuals bool
		wantErr     bool
	}{
		{"no args", nil, true, true, false},
		{"disable audio", []string{"disable-audio"}, false, true, false},
		{"disable visuals", []string{"disable-visuals"}, true, false, false},
		{"disable both", []string{"disable-audio", "disable-visuals"}, false, false, false},
		{"order does not matter", []string{"disable-visuals", "disable-audio"}, false, false, false},
		{"repeated flag", []string{"disable-audio", "disable-audio"}, false, true, false},
		{"unknown token", []string{"no-audio"}, false, false, true},
		{"dash style rejected", []string{"--disable-audio"}, false, false, true},
		{"valid then invalid", []string{"disable-audio", "verbose"}, false, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseToggles(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for args %v, got none", tc.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.AudioEnabled != tc.wantAudio {
				t.Errorf("AudioEnabled = %v, want %v", got.AudioEnabled, tc.wantAudio)
			}
			if got.VisualsEnabled != tc.wantVisuals {
				t.Errorf("VisualsEnabled = %v, want %v", got.VisualsEnabled, tc.wantVisuals)
			}
		})
	}
}

func TestParseTogglesErrorNamesValidFlags(t *testing.T) {
	_, err := ParseToggles([]string{"bogus"})
	if err == nil {
		t.Fatal("expected error, got none")
	}
	for _, flag := range []string{FlagDisableAudio, FlagDisableVisuals} {
		if !strings.Contains(err.Error(), flag) {
			t.Errorf("error %q does not mention %q", err, flag)
		}
	}
}

func TestUsageNamesBothFlags(t *testing.T) {
	u := Usage()
	if !strings.Contains(u, FlagDisableAudio) || !strings.Contains(u, FlagDisableVisuals) {
		t.Errorf("usage %q does not name both flags", u)
	}
}
