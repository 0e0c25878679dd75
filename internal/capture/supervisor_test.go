package capture

import (
	"testing"
	"time"
)

func TestEnabledLegsRespectsConfig(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	cfg.Recording.ArchiveEnabled = true
	s := NewSupervisor(cfg, t.TempDir(), nil)

	legs := s.enabledLegs()
	want := map[leg]bool{legAudio: true, legVideo: true, legArchive: true}
	if len(legs) != len(want) {
		t.Fatalf("expected %d legs, got %d", len(want), len(legs))
	}
	for _, l := range legs {
		if !want[l] {
			t.Errorf("unexpected leg %s", l)
		}
	}
}

func TestEnabledLegsAudioOnly(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	cfg.Recording.VideoEnabled = false
	s := NewSupervisor(cfg, t.TempDir(), nil)

	legs := s.enabledLegs()
	if len(legs) != 1 || legs[0] != legAudio {
		t.Errorf("expected only audio leg, got %v", legs)
	}
}

func TestWithinRestartBudget(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	cfg.Recording.MaxRestartsPerHour = 2
	s := NewSupervisor(cfg, t.TempDir(), nil)

	rt := &legRuntime{restartWindow: time.Now()}

	if !s.withinRestartBudget(rt) {
		t.Fatal("expected budget available at zero restarts")
	}
	s.recordRestart(rt)
	if !s.withinRestartBudget(rt) {
		t.Fatal("expected budget available at one restart")
	}
	s.recordRestart(rt)
	if s.withinRestartBudget(rt) {
		t.Fatal("expected budget exhausted at limit")
	}
}

func TestWithinRestartBudgetResetsHourly(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	cfg.Recording.MaxRestartsPerHour = 1
	s := NewSupervisor(cfg, t.TempDir(), nil)

	rt := &legRuntime{restartWindow: time.Now().Add(-2 * time.Hour), restarts: 1}

	if !s.withinRestartBudget(rt) {
		t.Fatal("expected budget to reset after an hour has elapsed")
	}
}

func TestHeartbeatIntervalDefault(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	cfg.Recording.HeartbeatSeconds = 0
	s := NewSupervisor(cfg, t.TempDir(), nil)

	if s.heartbeatInterval() != 10*time.Second {
		t.Errorf("expected default 10s heartbeat, got %v", s.heartbeatInterval())
	}
}
