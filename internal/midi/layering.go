package midi

// Layering is the many-to-many mapping between the 16 MIDI channels
// and up to Timbrality timbres, stored as two parallel bitmasks kept
// in sync so either direction is an O(1) lookup (spec §4.8).
//
// Grounded on original_source/synth/midi/layering.h.
type Layering struct {
	Timbrality int
	AllTimbres uint32

	channelTimbres [channelCount]uint32 // per channel: bitmask over timbre indices
	timbreChannels []uint16             // per timbre: bitmask over channel indices
}

// AllChannels is the bitmask covering all 16 MIDI channels.
const AllChannels uint16 = (1 << channelCount) - 1

// NewLayering creates a Layering for timbrality timbres, initialized
// to Omni Poly mode (all channels route to timbre 0).
func NewLayering(timbrality int) *Layering {
	l := &Layering{
		Timbrality:     timbrality,
		AllTimbres:     1<<uint(timbrality) - 1,
		timbreChannels: make([]uint16, timbrality),
	}
	l.OmniMode()
	return l
}

// OmniMode routes every channel to timbre 0, polyphonically (mode 1).
// Mono-per-channel behavior (mode 2, "Omni Mono") is the same table;
// the distinction is enforced by the Note Manager's per-channel Mode,
// not by Layering.
func (l *Layering) OmniMode() {
	for ci := range l.channelTimbres {
		l.channelTimbres[ci] = 1 << 0
	}
	for ti := range l.timbreChannels {
		if ti == 0 {
			l.timbreChannels[ti] = AllChannels
		} else {
			l.timbreChannels[ti] = 0
		}
	}
}

// PolyMode routes exactly one channel to timbre 0 (mode 3).
func (l *Layering) PolyMode(channel int) {
	for ci := range l.channelTimbres {
		if ci == channel {
			l.channelTimbres[ci] = 1 << 0
		} else {
			l.channelTimbres[ci] = 0
		}
	}
	for ti := range l.timbreChannels {
		if ti == 0 {
			l.timbreChannels[ti] = uint16(1) << uint(channel)
		} else {
			l.timbreChannels[ti] = 0
		}
	}
}

// MonoMode routes the channels in enabledChannels to timbre 0,
// monophonically per channel (mode 4: "basic channel + N consecutive,
// wrapping mod 16" is expressed by the caller building the mask).
func (l *Layering) MonoMode(enabledChannels uint16) {
	for ci := range l.channelTimbres {
		if enabledChannels&(1<<uint(ci)) != 0 {
			l.channelTimbres[ci] = 1
		} else {
			l.channelTimbres[ci] = 0
		}
	}
	for ti := range l.timbreChannels {
		if ti == 0 {
			l.timbreChannels[ti] = enabledChannels
		} else {
			l.timbreChannels[ti] = 0
		}
	}
}

// MultiMode routes channel i to timbre i for i < Timbrality (mode 5).
func (l *Layering) MultiMode() {
	for ci := range l.channelTimbres {
		l.channelTimbres[ci] = 0
	}
	for ti := range l.timbreChannels {
		l.timbreChannels[ti] = 0
	}
	for ci := 0; ci < channelCount && ci < l.Timbrality; ci++ {
		l.channelTimbres[ci] = 1 << uint(ci)
	}
	for ti := 0; ti < l.Timbrality; ti++ {
		l.timbreChannels[ti] = 1 << uint(ti)
	}
}

// ChannelTimbres returns the bitmask of timbres channel ci routes to.
func (l *Layering) ChannelTimbres(ci int) uint32 { return l.channelTimbres[ci] }

// TimbreChannels returns the bitmask of channels routed to timbre ti.
func (l *Layering) TimbreChannels(ti int) uint16 { return l.timbreChannels[ti] }

// SetChannelTimbres is the sixth, arbitrary-mapping extension: the
// host may route one channel to any set of timbres, keeping both
// bitmasks in sync.
func (l *Layering) SetChannelTimbres(ci int, timbres uint32) {
	l.channelTimbres[ci] = timbres & l.AllTimbres
	for ti := 0; ti < l.Timbrality; ti++ {
		if timbres&(1<<uint(ti)) != 0 {
			l.timbreChannels[ti] |= 1 << uint(ci)
		} else {
			l.timbreChannels[ti] &^= 1 << uint(ci)
		}
	}
}

// SetTimbreChannels is SetChannelTimbres's inverse.
func (l *Layering) SetTimbreChannels(ti int, channels uint16) {
	l.timbreChannels[ti] = channels
	for ci := 0; ci < channelCount; ci++ {
		if channels&(1<<uint(ci)) != 0 {
			l.channelTimbres[ci] |= 1 << uint(ti)
		} else {
			l.channelTimbres[ci] &^= 1 << uint(ti)
		}
	}
}
