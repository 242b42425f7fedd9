// Package protocol implements the minimal subset of Telnet option
// negotiation this daemon needs: enough to suppress local echo, ask
// for a single-line no-go-ahead session, and refuse a fixed set of
// options outright. It is a byte-stream state machine with callbacks
// for application data and outbound bytes, grounded on the TELOPT
// table in original_source/booker/include/session.h.
//
// No option-negotiation library is available to this module, so this
// is a deliberately small hand-rolled implementation — see DESIGN.md.
package protocol

const (
	iac  = 255
	will = 251
	wont = 252
	do   = 253
	dont = 254
	sb   = 250
	se   = 240
)

// Telnet option codes this daemon negotiates, named after the
// TELOPT table in session.h.
const (
	OptECHO      = 1
	OptSGA       = 3
	OptTTYPE     = 24
	OptCOMPRESS2 = 86
	OptMSSP      = 70
	OptBINARY    = 0
	OptNAWS      = 31
	OptZMP       = 93
)

// parserState tracks where in an escape sequence Feed currently is.
type parserState int

const (
	stateData parserState = iota
	stateIAC
	stateNegotiate // saw IAC WILL/WONT/DO/DONT, waiting for the option byte
	stateSub       // inside an IAC SB ... IAC SE subnegotiation block, discarded
	stateSubIAC
)

// Protocol is a single connection's Telnet negotiation state machine.
// It is not safe for concurrent use — the session's receive loop is
// its only caller, matching the original's single-threaded telnet_recv.
type Protocol struct {
	state      parserState
	negotiated byte // pending WILL/WONT/DO/DONT awaiting its option byte

	// OnApplicationData is called with decoded application bytes (IAC
	// IAC collapsed to a single 0xFF) as they arrive.
	OnApplicationData func([]byte)
	// OnSend is called with raw bytes this protocol wants written to
	// the wire — option negotiation replies.
	OnSend func([]byte)
}

// New returns a Protocol ready to negotiate. Wire up OnApplicationData
// and OnSend before calling Start or Feed.
func New() *Protocol {
	return &Protocol{}
}

// Start emits the server's opening negotiation: suppress local echo
// and suppress go-ahead, matching
// CSession::start's explicit telnet_negotiate(WILL, ECHO) and
// telnet_negotiate(WILL, SGA) calls.
func (p *Protocol) Start() {
	p.send(will, OptECHO)
	p.send(will, OptSGA)
}

// Feed processes newly received bytes, invoking OnApplicationData for
// plain data and replying to option negotiation inline via OnSend.
func (p *Protocol) Feed(data []byte) {
	var appData []byte

	for _, b := range data {
		switch p.state {
		case stateData:
			if b == iac {
				p.state = stateIAC
				continue
			}
			appData = append(appData, b)

		case stateIAC:
			switch b {
			case iac:
				appData = append(appData, iac)
				p.state = stateData
			case will, wont, do, dont:
				p.negotiated = b
				p.state = stateNegotiate
			case sb:
				p.state = stateSub
			default:
				// Other two-byte IAC commands (NOP, AYT, ...): ignore.
				p.state = stateData
			}

		case stateNegotiate:
			p.handleNegotiation(p.negotiated, b)
			p.state = stateData

		case stateSub:
			if b == iac {
				p.state = stateSubIAC
			}

		case stateSubIAC:
			if b == se {
				p.state = stateData
			} else {
				p.state = stateSub
			}
		}
	}

	if len(appData) > 0 && p.OnApplicationData != nil {
		p.OnApplicationData(appData)
	}
}

// handleNegotiation replies to one IAC <cmd> <option> sequence. The
// decision table mirrors session.h's m_my_telopts: ECHO/SGA/TTYPE/
// BINARY/NAWS are accepted, COMPRESS2/ZMP/MSSP are always refused.
func (p *Protocol) handleNegotiation(cmd, opt byte) {
	refuse := opt == OptCOMPRESS2 || opt == OptZMP || opt == OptMSSP

	switch cmd {
	case do:
		if refuse {
			p.send(wont, opt)
		} else {
			p.send(will, opt)
		}
	case will:
		if refuse {
			p.send(dont, opt)
		} else {
			p.send(do, opt)
		}
	case wont, dont:
		// Peer is refusing or withdrawing an option; no reply needed.
	}
}

func (p *Protocol) send(cmd, opt byte) {
	if p.OnSend == nil {
		return
	}
	p.OnSend([]byte{iac, cmd, opt})
}

// Encode escapes application bytes for the wire (0xFF doubled), the
// send-side counterpart of Feed's IAC IAC collapse.
func Encode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b == iac {
			out = append(out, iac, iac)
		} else {
			out = append(out, b)
		}
	}
	return out
}
