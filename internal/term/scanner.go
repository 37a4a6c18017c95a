package term

import (
	"strconv"
	"strings"

	"github.com/user/tabterm/internal/theme"
)

// maxSeqLen bounds buffered OSC/CSI payloads. Anything longer is not a
// query we answer, so the remainder is consumed without buffering.
const maxSeqLen = 4096

type scanState int

const (
	stateGround scanState = iota
	stateEscape
	stateCSI
	stateOSC
	stateOSCEscape // saw ESC inside an OSC, expecting ST
	stateString    // DCS/PM/APC/SOS payload, consumed until ST
	stateStringEscape
)

// scanner extracts session events from the child's output stream. It is
// incremental: sequences may arrive split across arbitrary read chunks.
// Bytes are never consumed from the stream; the caller still feeds the
// full chunk to the grid.
type scanner struct {
	state scanState
	seq   []byte
	// csiPrefix holds a private-parameter marker ('?', '>', '=').
	csiPrefix byte
}

// scan processes one chunk and calls emit for each recognized event, in
// stream order.
func (s *scanner) scan(chunk []byte, emit func(Event)) {
	for _, b := range chunk {
		switch s.state {
		case stateGround:
			switch b {
			case 0x07:
				emit(Event{Kind: EventBell})
			case 0x1b:
				s.state = stateEscape
			}

		case stateEscape:
			switch b {
			case ']':
				s.state = stateOSC
				s.seq = s.seq[:0]
			case '[':
				s.state = stateCSI
				s.seq = s.seq[:0]
				s.csiPrefix = 0
			case 'P', '^', '_', 'X':
				s.state = stateString
			case 'c':
				// RIS resets all terminal state, title included.
				emit(Event{Kind: EventTitleReset})
				s.state = stateGround
			case 0x1b:
				// stay in escape
			default:
				s.state = stateGround
			}

		case stateCSI:
			switch {
			case b >= '0' && b <= '9' || b == ';' || b == ':' || b >= 0x20 && b <= 0x2f:
				if len(s.seq) < maxSeqLen {
					s.seq = append(s.seq, b)
				}
			case b == '?' || b == '>' || b == '=':
				s.csiPrefix = b
			case b >= 0x40 && b <= 0x7e:
				s.handleCSI(string(s.seq), s.csiPrefix, b, emit)
				s.state = stateGround
			case b == 0x1b:
				s.state = stateEscape
			case b == 0x18 || b == 0x1a: // CAN, SUB
				s.state = stateGround
			}

		case stateOSC:
			switch b {
			case 0x07:
				s.handleOSC(string(s.seq), "\a", emit)
				s.state = stateGround
			case 0x1b:
				s.state = stateOSCEscape
			default:
				if len(s.seq) < maxSeqLen {
					s.seq = append(s.seq, b)
				}
			}

		case stateOSCEscape:
			if b == '\\' {
				s.handleOSC(string(s.seq), "\x1b\\", emit)
				s.state = stateGround
			} else {
				// Not an ST; the OSC was aborted by a new sequence.
				s.state = stateEscape
				s.reprocess(b, emit)
			}

		case stateString:
			if b == 0x1b {
				s.state = stateStringEscape
			}

		case stateStringEscape:
			if b == '\\' {
				s.state = stateGround
			} else {
				s.state = stateEscape
				s.reprocess(b, emit)
			}
		}
	}
}

// reprocess re-dispatches a byte already consumed by a lookahead state.
func (s *scanner) reprocess(b byte, emit func(Event)) {
	s.scan([]byte{b}, emit)
}

func (s *scanner) handleOSC(payload, terminator string, emit func(Event)) {
	cmd, rest, _ := strings.Cut(payload, ";")
	switch cmd {
	case "0", "2":
		// Window title; the remainder is the literal title text.
		if rest == "" {
			emit(Event{Kind: EventTitleReset})
			return
		}
		emit(Event{Kind: EventTitleChanged, Title: rest})

	case "4":
		// Repeatable index;spec pairs. Only "?" specs are queries;
		// set operations pass through to the grid untouched.
		fields := strings.Split(rest, ";")
		for i := 0; i+1 < len(fields); i += 2 {
			if fields[i+1] != "?" {
				continue
			}
			index, err := strconv.Atoi(fields[i])
			if err != nil || index < 0 || index > 255 {
				continue
			}
			emit(Event{Kind: EventColorQuery, ColorIndex: index, Terminator: terminator})
		}

	case "10", "11", "12":
		if rest != "?" {
			return
		}
		index := theme.IndexForeground
		switch cmd {
		case "11":
			index = theme.IndexBackground
		case "12":
			index = theme.IndexCursor
		}
		emit(Event{Kind: EventColorQuery, ColorIndex: index, Terminator: terminator})
	}
}

func (s *scanner) handleCSI(params string, prefix, final byte, emit func(Event)) {
	switch final {
	case 't':
		if prefix == 0 && firstParam(params) == 18 {
			emit(Event{Kind: EventSizeQuery})
		}
	case 'c':
		switch prefix {
		case 0:
			if params == "" || params == "0" {
				emit(Event{Kind: EventRawWrite, Data: deviceAttrsReply})
			}
		case '>':
			emit(Event{Kind: EventRawWrite, Data: deviceAttrs2Reply})
		}
	case 'n':
		if prefix == 0 && firstParam(params) == 5 {
			emit(Event{Kind: EventRawWrite, Data: statusOKReply})
		}
	}
}

func firstParam(params string) int {
	head, _, _ := strings.Cut(params, ";")
	if head == "" {
		return 0
	}
	n, err := strconv.Atoi(head)
	if err != nil {
		return -1
	}
	return n
}
