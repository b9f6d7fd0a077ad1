package p9

import "fmt"

// MsgType is the wire code of a message. Requests are even, and each
// response is its request's code plus one.
type MsgType uint8

// Message type codes, named after the bodies that carry them.
const (
	MsgTversion MsgType = 100 + iota
	MsgRversion
	MsgTauth
	MsgRauth
	MsgTattach
	MsgRattach
	MsgTerror // 106, illegal, never sent
	MsgRerror
	MsgTflush
	MsgRflush
	MsgTwalk
	MsgRwalk
	MsgTopen
	MsgRopen
	MsgTcreate
	MsgRcreate
	MsgTread
	MsgRread
	MsgTwrite
	MsgRwrite
	MsgTclunk
	MsgRclunk
	MsgTremove
	MsgRremove
	MsgTstat
	MsgRstat
	MsgTwstat
	MsgRwstat
)

var msgTypeNames = [...]string{
	"Tversion", "Rversion", "Tauth", "Rauth", "Tattach", "Rattach",
	"Terror", "Rerror", "Tflush", "Rflush", "Twalk", "Rwalk",
	"Topen", "Ropen", "Tcreate", "Rcreate", "Tread", "Rread",
	"Twrite", "Rwrite", "Tclunk", "Rclunk", "Tremove", "Rremove",
	"Tstat", "Rstat", "Twstat", "Rwstat",
}

// ParseMsgType maps a wire code to a MsgType. Codes outside the catalog and
// the reserved Terror fail with ErrMalformed.
func ParseMsgType(code uint8) (MsgType, error) {
	t := MsgType(code)
	if t < MsgTversion || t > MsgRwstat || t == MsgTerror {
		return 0, fmt.Errorf("%w: unknown type %d", ErrMalformed, code)
	}
	return t, nil
}

// IsRequest reports whether t is a T-message.
func (t MsgType) IsRequest() bool {
	return t%2 == 0
}

// Response returns the R-message paired with request t.
func (t MsgType) Response() MsgType {
	if t.IsRequest() {
		return t + 1
	}
	return t
}

func (t MsgType) String() string {
	if t >= MsgTversion && t <= MsgRwstat {
		return msgTypeNames[t-MsgTversion]
	}
	return fmt.Sprintf("MsgType(%d)", uint8(t))
}
