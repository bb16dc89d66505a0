package voice

// Prioritizer scores a sounding voice for stealing purposes: lower
// score is stolen first. The embedder supplies one (spec §4.7's
// "user priority function for stealing"); a common choice is note
// age or velocity.
type Prioritizer func(v *Voice) int

// Assigner hands out voices for new notes (spec §4.7). It does not
// orchestrate the pending-note queue itself — that's the Note
// Manager's job (spec §4.8); Assigner only answers "which voice"
// given the current state of Voices.
type Assigner interface {
	// AssignIdleVoice returns an IDLE voice and true, or (nil, false)
	// if none is IDLE.
	AssignIdleVoice() (*Voice, bool)
	// ChooseVoiceToSteal returns the lowest-priority SOUNDING or
	// RELEASING voice and true, or (nil, false) if every voice is
	// IDLE or already STOPPING.
	ChooseVoiceToSteal() (*Voice, bool)
}

// PriorityAssigner is the default Assigner: round-robin idle
// allocation via a rotor so repeated notes spread across the voice
// pool instead of always reusing index 0, and min-priority stealing
// that skips voices already STOPPING (they're already on their way out
// and stealing them again would just restart their countdown).
//
// Grounded on original_source/synth/core/asgn-prio.h's PriorityAssigner
// class.
type PriorityAssigner struct {
	voices     []*Voice
	prioritize Prioritizer
	rotor      int
}

// NewPriorityAssigner builds an Assigner over voices, scoring
// steal candidates with prioritize.
func NewPriorityAssigner(voices []*Voice, prioritize Prioritizer) *PriorityAssigner {
	return &PriorityAssigner{voices: voices, prioritize: prioritize}
}

func (a *PriorityAssigner) AssignIdleVoice() (*Voice, bool) {
	n := len(a.voices)
	for i := 0; i < n; i++ {
		idx := (a.rotor + i) % n
		if a.voices[idx].State() == IDLE {
			a.rotor = (idx + 1) % n
			return a.voices[idx], true
		}
	}
	return nil, false
}

func (a *PriorityAssigner) ChooseVoiceToSteal() (*Voice, bool) {
	var best *Voice
	bestScore := 0
	for _, v := range a.voices {
		switch v.State() {
		case SOUNDING, RELEASING:
		default:
			continue
		}
		score := a.prioritize(v)
		if best == nil || score < bestScore {
			best, bestScore = v, score
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
