package midi_test

import (
	"testing"

	"github.com/patchwire/synthcore/internal/midi"
)

func TestLayeringOmniModeRoutesAllChannelsToTimbreZero(t *testing.T) {
	l := midi.NewLayering(4)
	for ci := 0; ci < 16; ci++ {
		if l.ChannelTimbres(ci) != 1 {
			t.Fatalf("channel %d timbres = %b, want 1", ci, l.ChannelTimbres(ci))
		}
	}
	if l.TimbreChannels(0) != midi.AllChannels {
		t.Fatalf("timbre 0 channels = %b, want all", l.TimbreChannels(0))
	}
	if l.TimbreChannels(1) != 0 {
		t.Fatalf("timbre 1 channels = %b, want none", l.TimbreChannels(1))
	}
}

func TestLayeringPolyModeRoutesOneChannel(t *testing.T) {
	l := midi.NewLayering(4)
	l.PolyMode(5)
	if l.ChannelTimbres(5) != 1 {
		t.Fatalf("channel 5 timbres = %b, want 1", l.ChannelTimbres(5))
	}
	if l.ChannelTimbres(0) != 0 {
		t.Fatalf("channel 0 timbres = %b, want 0", l.ChannelTimbres(0))
	}
	if l.TimbreChannels(0) != 1<<5 {
		t.Fatalf("timbre 0 channels = %b, want bit 5", l.TimbreChannels(0))
	}
}

func TestLayeringMultiModeRoutesChannelIToTimbreI(t *testing.T) {
	l := midi.NewLayering(3)
	l.MultiMode()
	for i := 0; i < 3; i++ {
		if l.ChannelTimbres(i) != 1<<uint(i) {
			t.Fatalf("channel %d timbres = %b, want bit %d", i, l.ChannelTimbres(i), i)
		}
	}
	if l.ChannelTimbres(3) != 0 {
		t.Fatalf("channel 3 (beyond timbrality) timbres = %b, want 0", l.ChannelTimbres(3))
	}
}

func TestLayeringMonoModeRoutesOnlyEnabledChannels(t *testing.T) {
	l := midi.NewLayering(2)
	l.MonoMode(0b0101) // channels 0 and 2
	if l.ChannelTimbres(0) != 1 || l.ChannelTimbres(2) != 1 {
		t.Fatalf("enabled channels not routed to timbre 0")
	}
	if l.ChannelTimbres(1) != 0 {
		t.Fatalf("channel 1 should be unrouted, got %b", l.ChannelTimbres(1))
	}
	if l.TimbreChannels(0) != 0b0101 {
		t.Fatalf("timbre 0 channels = %b, want 0b0101", l.TimbreChannels(0))
	}
}

func TestLayeringSetChannelTimbresKeepsInverseInSync(t *testing.T) {
	l := midi.NewLayering(4) // starts in Omni mode: every channel -> timbre 0
	l.SetChannelTimbres(2, 0b0110)
	if l.ChannelTimbres(2) != 0b0110 {
		t.Fatalf("channel 2 timbres = %b, want 0b0110", l.ChannelTimbres(2))
	}
	if l.TimbreChannels(1)&(1<<2) == 0 {
		t.Fatalf("timbre 1 channels missing bit 2")
	}
	if l.TimbreChannels(2)&(1<<2) == 0 {
		t.Fatalf("timbre 2 channels missing bit 2")
	}
	if l.TimbreChannels(0)&(1<<2) != 0 {
		t.Fatalf("timbre 0 channels should no longer include channel 2 after remap")
	}
}
