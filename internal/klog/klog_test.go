package klog

import "testing"

func TestDebugChannelGating(t *testing.T) {
	SetDebugChannels("thread,vm")

	if !channelEnabled("thread") {
		t.Fatalf("expected thread channel enabled")
	}
	if channelEnabled("trap") {
		t.Fatalf("expected trap channel disabled")
	}

	SetDebugChannels("all")
	if !channelEnabled("trap") {
		t.Fatalf("expected all channels enabled via 'all'")
	}

	SetDebugChannels("")
	if channelEnabled("thread") {
		t.Fatalf("expected no channels enabled after reset")
	}
}

func TestLevelName(t *testing.T) {
	cases := map[string]string{
		"TRACE":   levelName(levelTrace),
		"DEBUG":   levelName(levelDebug),
		"INFO":    levelName(levelInfo),
		"WARNING": levelName(levelWarn),
		"ERROR":   levelName(levelError),
	}
	for want, got := range cases {
		if want != got {
			t.Fatalf("levelName mismatch: want %s got %s", want, got)
		}
	}
}
