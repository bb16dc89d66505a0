package midi

// xRPNState is a channel's RPN/NRPN parameter-number latch state
// (spec §4.8: INACTIVE | RPN_ACTIVE | NRPN_ACTIVE).
type xRPNState byte

const (
	xRPNInactive xRPNState = iota
	xRPNRPNActive
	xRPNNRPNActive
)

// XRPNHandler receives a channel's RPN/NRPN value whenever a
// data-entry or data-inc/dec message updates it.
type XRPNHandler func(channel byte, number ParameterNumber, value ParameterValue)

type xRPNBundle struct {
	values   [channelCount]ParameterValue
	handlers []XRPNHandler // one slot per timbre
}

func newXRPNBundle(timbrality int) *xRPNBundle {
	b := &xRPNBundle{handlers: make([]XRPNHandler, timbrality)}
	for i := range b.values {
		b.values[i] = NoParameterValue
	}
	return b
}

func (b *xRPNBundle) broadcast(timbres uint32, channel byte, number ParameterNumber) {
	value := b.values[channel]
	if !value.IsValid() {
		return
	}
	for ti, h := range b.handlers {
		if timbres&(1<<uint(ti)) != 0 && h != nil {
			h(channel, number, value)
		}
	}
}

type channelState struct {
	state   xRPNState
	rpnMSB  byte
	rpnLSB  byte
	nrpnMSB byte
	nrpnLSB byte
}

func newChannelState() channelState {
	return channelState{rpnMSB: noByte, rpnLSB: noByte, nrpnMSB: noByte, nrpnLSB: noByte}
}

func (c *channelState) reset() { *c = newChannelState() }

// maxRPNs bounds the RPN numbers tracked by a fixed array, matching
// the teacher's MAX_RPNS (spec §6). MIDI CA-026 defines six RPNs
// (0x0000-0x0005); this covers them all.
const maxRPNs = 6

// Dispatcher routes MIDI channel/system messages to registered
// handlers and runs the per-channel RPN/NRPN parameter-number state
// machine (spec §4.8).
//
// Grounded on original_source/synth/midi/dispatcher.h.
type Dispatcher struct {
	layering *Layering

	statusByteHandlers [128]func(SmallMessage)
	rpns               [maxRPNs]*xRPNBundle
	nrpns              map[uint16]*xRPNBundle

	channels []channelState
	ccHandlers [][128]func(SmallMessage) // per timbre

	timbrality int
}

// NewDispatcher creates a Dispatcher for timbrality timbres and
// registers its own built-in Control Change and RPN/NRPN
// parameter-number handlers.
func NewDispatcher(timbrality int) *Dispatcher {
	d := &Dispatcher{
		nrpns:      make(map[uint16]*xRPNBundle),
		channels:   make([]channelState, channelCount),
		ccHandlers: make([][128]func(SmallMessage), timbrality),
		timbrality: timbrality,
	}
	for i := range d.channels {
		d.channels[i] = newChannelState()
	}
	for i := range d.rpns {
		d.rpns[i] = newXRPNBundle(timbrality)
	}
	allTimbres := uint32(1)<<uint(timbrality) - 1
	d.RegisterStatusHandler(ControlChange, AllChannels, d.handleCC)
	d.RegisterCCHandler(DataEntryMSB, allTimbres, d.handleDataEntryMSB)
	d.RegisterCCHandler(DataEntryLSB, allTimbres, d.handleDataEntryLSB)
	d.RegisterCCHandler(DataIncrement, allTimbres, d.handleDataIncrement)
	d.RegisterCCHandler(DataDecrement, allTimbres, d.handleDataDecrement)
	d.RegisterCCHandler(RPNMSB, allTimbres, d.handleRPNMSB)
	d.RegisterCCHandler(RPNLSB, allTimbres, d.handleRPNLSB)
	d.RegisterCCHandler(NRPNMSB, allTimbres, d.handleNRPNMSB)
	d.RegisterCCHandler(NRPNLSB, allTimbres, d.handleNRPNLSB)
	return d
}

func (d *Dispatcher) Layering() *Layering        { return d.layering }
func (d *Dispatcher) AttachLayering(l *Layering) { d.layering = l }

// Reset clears every channel's RPN/NRPN latch state, without touching
// registered handlers.
func (d *Dispatcher) Reset() {
	for i := range d.channels {
		d.channels[i].reset()
	}
}

// DispatchMessage routes msg to its registered status-byte handler, if
// any.
func (d *Dispatcher) DispatchMessage(msg SmallMessage) {
	h := d.statusByteHandlers[msg.StatusByte&0x7F]
	if h != nil {
		h(msg)
	}
}

// RegisterStatusHandler registers h for StatusByte s on every channel
// set in channelMask (a bitmask over the 16 MIDI channels).
func (d *Dispatcher) RegisterStatusHandler(s StatusByte, channelMask uint16, h func(SmallMessage)) {
	for ch := 0; ch < channelCount; ch++ {
		if channelMask&(1<<uint(ch)) != 0 {
			d.statusByteHandlers[(int(s)+ch)&0x7F] = h
		}
	}
}

// RegisterSystemHandler registers h for a system status byte (one
// with no channel component, e.g. SongPosition).
func (d *Dispatcher) RegisterSystemHandler(s StatusByte, h func(SmallMessage)) {
	d.statusByteHandlers[int(s)&0x7F] = h
}

// RegisterCCHandler registers h for Control Change controller cc on
// every timbre set in timbreMask.
func (d *Dispatcher) RegisterCCHandler(cc ControllerNumber, timbreMask uint32, h func(SmallMessage)) {
	for ti := 0; ti < d.timbrality; ti++ {
		if timbreMask&(1<<uint(ti)) != 0 {
			d.ccHandlers[ti][cc] = h
		}
	}
}

// RegisterChannelModeHandler registers h for a Channel Mode Message
// (controller numbers 120-127) on every timbre in timbreMask.
func (d *Dispatcher) RegisterChannelModeHandler(m ChannelModeNumber, timbreMask uint32, h func(SmallMessage)) {
	for ti := 0; ti < d.timbrality; ti++ {
		if timbreMask&(1<<uint(ti)) != 0 {
			d.ccHandlers[ti][m] = h
		}
	}
}

// RegisterRPNHandler registers h for rpn on every timbre in timbreMask.
func (d *Dispatcher) RegisterRPNHandler(rpn RPN, timbreMask uint32, h XRPNHandler) {
	if int(rpn) >= len(d.rpns) {
		return
	}
	for ti := 0; ti < d.timbrality; ti++ {
		if timbreMask&(1<<uint(ti)) != 0 {
			d.rpns[rpn].handlers[ti] = h
		}
	}
}

// RegisterNRPNHandler registers h for nrpn on every timbre in
// timbreMask.
func (d *Dispatcher) RegisterNRPNHandler(nrpn NRPN, timbreMask uint32, h XRPNHandler) {
	b, ok := d.nrpns[uint16(nrpn)]
	if !ok {
		b = newXRPNBundle(d.timbrality)
		d.nrpns[uint16(nrpn)] = b
	}
	for ti := 0; ti < d.timbrality; ti++ {
		if timbreMask&(1<<uint(ti)) != 0 {
			b.handlers[ti] = h
		}
	}
}

func (d *Dispatcher) handleCC(msg SmallMessage) {
	channel := msg.Channel()
	cc := msg.ControlNumber()
	timbres := d.layering.ChannelTimbres(int(channel))
	for ti := 0; ti < d.timbrality; ti++ {
		if timbres&(1<<uint(ti)) != 0 {
			if h := d.ccHandlers[ti][cc]; h != nil {
				h(msg)
			}
		}
	}
}

func (d *Dispatcher) handleDataEntryMSB(msg SmallMessage) {
	channel := msg.Channel()
	if xrpn, pn, ok := d.getXRPN(channel); ok {
		xrpn.values[channel].setMSB(msg.ControlValue())
		xrpn.broadcast(d.layering.ChannelTimbres(int(channel)), channel, pn)
	}
}

func (d *Dispatcher) handleDataEntryLSB(msg SmallMessage) {
	channel := msg.Channel()
	if xrpn, pn, ok := d.getXRPN(channel); ok {
		xrpn.values[channel].setLSB(msg.ControlValue())
		xrpn.broadcast(d.layering.ChannelTimbres(int(channel)), channel, pn)
	}
}

// handleDataIncrement implements MIDI RP-018: ignore the value byte;
// unless otherwise specified, inc/dec the LSB; RPN 0 (Pitch Bend
// Sensitivity) rolls over centesimally; RPNs 2-4 inc/dec the MSB only.
func (d *Dispatcher) handleDataIncrement(msg SmallMessage) {
	channel := msg.Channel()
	chan_ := &d.channels[channel]
	xrpn, pn, ok := d.getXRPN(channel)
	if !ok {
		return
	}
	value := &xrpn.values[channel]
	if !value.IsValid() {
		return
	}
	if chan_.state == xRPNRPNActive {
		switch RPN(pn.Number()) {
		case PitchBendSensitivity:
			value.incrementCentesimally()
		case CoarseTuning, TuningProgramSelect, TuningBankSelect:
			value.incrementMSB()
		default:
			value.incrementValue()
		}
	} else {
		value.incrementValue() // all NRPNs inc the LSB.
	}
	xrpn.broadcast(d.layering.ChannelTimbres(int(channel)), channel, pn)
}

func (d *Dispatcher) handleDataDecrement(msg SmallMessage) {
	channel := msg.Channel()
	chan_ := &d.channels[channel]
	xrpn, pn, ok := d.getXRPN(channel)
	if !ok {
		return
	}
	value := &xrpn.values[channel]
	if !value.IsValid() {
		return
	}
	if chan_.state == xRPNRPNActive {
		switch RPN(pn.Number()) {
		case PitchBendSensitivity:
			value.decrementCentesimally()
		case CoarseTuning, TuningProgramSelect, TuningBankSelect:
			value.decrementMSB()
		default:
			value.decrementValue()
		}
	} else {
		value.decrementValue()
	}
	xrpn.broadcast(d.layering.ChannelTimbres(int(channel)), channel, pn)
}

func (d *Dispatcher) handleRPNMSB(msg SmallMessage) {
	c := &d.channels[msg.Channel()]
	c.rpnMSB = msg.ControlValue()
	c.state = xRPNRPNActive
}
func (d *Dispatcher) handleRPNLSB(msg SmallMessage) {
	c := &d.channels[msg.Channel()]
	c.rpnLSB = msg.ControlValue()
	c.state = xRPNRPNActive
}
func (d *Dispatcher) handleNRPNMSB(msg SmallMessage) {
	c := &d.channels[msg.Channel()]
	c.nrpnMSB = msg.ControlValue()
	c.state = xRPNNRPNActive
}
func (d *Dispatcher) handleNRPNLSB(msg SmallMessage) {
	c := &d.channels[msg.Channel()]
	c.nrpnLSB = msg.ControlValue()
	c.state = xRPNNRPNActive
}

func (d *Dispatcher) getXRPN(channel byte) (*xRPNBundle, ParameterNumber, bool) {
	c := &d.channels[channel]
	switch c.state {
	case xRPNRPNActive:
		if c.rpnMSB == noByte || c.rpnLSB == noByte {
			return nil, ParameterNumber{}, false
		}
		pn := newParameterNumber(c.rpnMSB, c.rpnLSB)
		if int(pn.Number()) >= len(d.rpns) {
			return nil, ParameterNumber{}, false
		}
		return d.rpns[pn.Number()], pn, true
	case xRPNNRPNActive:
		if c.nrpnMSB == noByte || c.nrpnLSB == noByte {
			return nil, ParameterNumber{}, false
		}
		pn := newParameterNumber(c.nrpnMSB, c.nrpnLSB)
		b, ok := d.nrpns[pn.Number()]
		if !ok {
			return nil, ParameterNumber{}, false
		}
		return b, pn, true
	default:
		return nil, ParameterNumber{}, false
	}
}
