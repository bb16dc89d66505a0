package midi

import "fmt"

// parserState is the Parser's per-byte state machine (spec §4.8; names
// follow the teacher's byte-classification table directly).
type parserState byte

const (
	stateNone parserState = iota
	stateChannel21 // channel msg, 1 of 2 bytes
	stateChannel31 // channel msg, 1 of 3 bytes
	stateChannel32 // channel msg, 2 of 3 bytes
	stateSysex
	stateSystem1  // system msg, 1 byte
	stateSystem21 // system msg, 1 of 2 bytes
	stateSystem31 // system msg, 1 of 3 bytes
	stateSystem32 // system msg, 2 of 3 bytes
	stateSysexEnd
	stateRealTime
	stateUndefinedRealTime
)

// statusStateTable classifies status bytes 0x80-0xFF (indexed by the
// low 7 bits) by how many data bytes follow and whether they interrupt
// an in-progress message (spec §4.8, grounded on the teacher's 128-
// entry dispatch table).
var statusStateTable = func() [128]parserState {
	var t [128]parserState
	fill := func(lo, hi int, s parserState) {
		for i := lo; i <= hi; i++ {
			t[i] = s
		}
	}
	fill(0x00, 0x0F, stateChannel31) // Note Off
	fill(0x10, 0x1F, stateChannel31) // Note On
	fill(0x20, 0x2F, stateChannel31) // Poly Key Pressure
	fill(0x30, 0x3F, stateChannel31) // Control Change
	fill(0x40, 0x4F, stateChannel21) // Program Change
	fill(0x50, 0x5F, stateChannel21) // Channel Pressure
	fill(0x60, 0x6F, stateChannel31) // Pitch Bend
	t[0x70] = stateSysex             // System Exclusive      (0xF0)
	t[0x71] = stateSystem21          // MTC Quarter Frame     (0xF1)
	t[0x72] = stateSystem31          // Song Position         (0xF2)
	t[0x73] = stateSystem21          // Song Select           (0xF3)
	t[0x74] = stateNone              // undefined             (0xF4)
	t[0x75] = stateNone              // undefined             (0xF5)
	t[0x76] = stateSystem1           // Tune Request          (0xF6)
	t[0x77] = stateSysexEnd          // EOX                   (0xF7)
	t[0x78] = stateRealTime          // Timing Clock          (0xF8)
	t[0x79] = stateUndefinedRealTime // undefined             (0xF9)
	t[0x7A] = stateRealTime          // Start                 (0xFA)
	t[0x7B] = stateRealTime          // Continue              (0xFB)
	t[0x7C] = stateRealTime          // Stop                  (0xFC)
	t[0x7D] = stateUndefinedRealTime // undefined             (0xFD)
	t[0x7E] = stateRealTime          // Active Sensing        (0xFE)
	t[0x7F] = stateRealTime          // System Reset          (0xFF)
	return t
}()

// Parser turns a byte stream into SmallMessage/SysexMessage callbacks,
// implementing running status and real-time-message interleaving
// (spec §4.8, grounded on the teacher's byte-at-a-time state machine).
type Parser struct {
	SmallHandler func(SmallMessage)
	SysexHandler func(SysexMessage)

	state parserState
	msg    SmallMessage
	sysex  SysexMessage
}

// NewParser creates a Parser with no handlers registered; set
// SmallHandler/SysexHandler directly before feeding it bytes.
func NewParser() *Parser {
	return &Parser{state: stateNone}
}

// Reset clears in-progress message state. Call after any discontinuity
// in the byte stream (e.g. a dropped connection) to avoid
// misinterpreting unrelated bytes as a message's data bytes.
func (p *Parser) Reset() {
	p.state = stateNone
	p.msg = SmallMessage{}
	p.sysex.clear()
}

// ProcessByte feeds one byte into the parser.
func (p *Parser) ProcessByte(b byte) { p.parseByte(b) }

// ProcessBytes feeds a byte slice into the parser in order.
func (p *Parser) ProcessBytes(bytes []byte) {
	for _, b := range bytes {
		p.parseByte(b)
	}
}

// ProcessMessage parses a single complete message with no running
// status assumed, returning an error if msg isn't well-formed MIDI.
// Unlike ProcessByte/ProcessBytes, this never depends on or updates
// running status; it resets the parser's running-status state before
// returning.
func (p *Parser) ProcessMessage(msg []byte) error {
	defer p.Reset()
	if len(msg) == 0 || msg[0]&0x80 == 0 {
		return fmt.Errorf("midi: malformed message: no status byte")
	}
	state := statusStateTable[msg[0]&0x7F]
	switch {
	case len(msg) == 1:
		if state != stateSystem1 && state != stateRealTime {
			return fmt.Errorf("midi: malformed message: wrong length for status 0x%02X", msg[0])
		}
		p.emitSmall(newSmallMessage1(msg[0]))
	case len(msg) == 2:
		if state != stateChannel21 && state != stateSystem21 {
			return fmt.Errorf("midi: malformed message: wrong length for status 0x%02X", msg[0])
		}
		if msg[1]&0x80 != 0 {
			return fmt.Errorf("midi: malformed message: data byte has high bit set")
		}
		p.emitSmall(newSmallMessage2(msg[0], msg[1]))
	case len(msg) == 3:
		if state != stateChannel31 && state != stateSystem31 {
			return fmt.Errorf("midi: malformed message: wrong length for status 0x%02X", msg[0])
		}
		if msg[1]&0x80 != 0 || msg[2]&0x80 != 0 {
			return fmt.Errorf("midi: malformed message: data byte has high bit set")
		}
		p.emitSmall(newSmallMessage3(msg[0], msg[1], msg[2]))
	default:
		if state != stateSysex || msg[len(msg)-1] != byte(EOX) {
			return fmt.Errorf("midi: malformed message: expected a SysEx message ending in EOX")
		}
		var sx SysexMessage
		for i, b := range msg {
			if i > 0 && i < len(msg)-1 && b&0x80 != 0 {
				return fmt.Errorf("midi: malformed message: data byte has high bit set")
			}
			sx.append(b)
		}
		p.emitSysex(sx)
	}
	return nil
}

func (p *Parser) parseByte(c byte) {
	if c&0x80 != 0 {
		prev := p.state
		p.state = statusStateTable[c&0x7F]
		switch p.state {

		case stateRealTime:
			p.emitSmall(newSmallMessage1(c))
			fallthrough
		case stateUndefinedRealTime:
			p.state = prev
			return

		case stateSysex:
			p.sysex.clear()
			p.sysex.append(c)

		case stateSysexEnd:
			// An overlong SysEx message's extra bytes were never
			// accumulated; silently discard it instead of emitting a
			// truncated message.
			if prev == stateSysex && len(p.sysex.bytes) < MaxSysexSize {
				p.sysex.append(c)
				p.emitSysex(p.sysex)
			}
			p.state = stateNone

		case stateSystem1:
			p.msg = newSmallMessage1(c)
			p.emitSmall(p.msg)
			p.msg = SmallMessage{}
			p.state = stateNone

		case stateChannel21, stateChannel31, stateSystem21, stateSystem31:
			p.msg = newSmallMessage1(c)

		case stateNone:
			p.msg = SmallMessage{}

		default:
			panic(fmt.Sprintf("midi: impossible parser state %d after status byte 0x%02X", p.state, c))
		}
		return
	}

	switch p.state {

	case stateNone:

	case stateChannel31:
		p.msg.DataByte1 = c
		p.state = stateChannel32

	case stateChannel32:
		p.msg.DataByte2 = c
		p.emitSmall(p.msg)
		p.msg.DataByte1, p.msg.DataByte2 = noByte, noByte
		p.state = stateChannel31 // running status: stay ready for the next pair

	case stateChannel21:
		p.msg.DataByte1 = c
		p.emitSmall(p.msg)
		p.msg.DataByte1, p.msg.DataByte2 = noByte, noByte
		// running status: p.state unchanged

	case stateSysex:
		p.sysex.append(c)

	case stateSystem31:
		p.msg.DataByte1 = c
		p.state = stateSystem32

	case stateSystem32:
		p.msg.DataByte2 = c
		p.emitSmall(p.msg)
		p.msg = SmallMessage{}
		p.state = stateNone

	case stateSystem21:
		p.msg.DataByte1 = c
		p.emitSmall(p.msg)
		p.msg = SmallMessage{}
		p.state = stateNone

	default:
		panic(fmt.Sprintf("midi: impossible parser state %d for data byte 0x%02X", p.state, c))
	}
}

func (p *Parser) emitSmall(m SmallMessage) {
	if p.SmallHandler != nil {
		p.SmallHandler(m)
	}
}

func (p *Parser) emitSysex(m SysexMessage) {
	if p.SysexHandler != nil {
		cp := append([]byte(nil), m.bytes...)
		p.SysexHandler(SysexMessage{bytes: cp})
	}
}
