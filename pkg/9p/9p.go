// Package p9 defines the 9P2000 message data model: the Fcall operation
// variants, the Msg envelope, Qid and Stat, and the flag vocabularies that
// give meaning to their bits. It also carries a reference wire codec and the
// small per-connection tables (tags, fids) a dispatcher builds on.
package p9

import "errors"

// --- Special Values ---

const (
	NOTAG uint16 = 0xFFFF
	NOFID uint32 = 0xFFFFFFFF
)

const (
	// Version is the only protocol version string this package speaks.
	Version = "9P2000"

	// IOHDRSZ is the room left in msize for the Twrite/Rread header.
	IOHDRSZ = 24

	// MaxWalkElem bounds the names in one Twalk and the qids in one Rwalk.
	MaxWalkElem = 16
)

// --- Open Modes ---

// OpenMode is the mode byte of Topen and Tcreate. It holds one base code in
// the low two bits, optionally OR'ed with modifier bits.
type OpenMode uint8

const (
	OREAD  OpenMode = 0x00 // open for read
	OWRITE OpenMode = 0x01 // write
	ORDWR  OpenMode = 0x02 // read and write
	OEXEC  OpenMode = 0x03 // execute, == read but check execute permission

	OTRUNC  OpenMode = 0x10 // or'ed in (except for exec), truncate file first
	OCEXEC  OpenMode = 0x20 // or'ed in, close on exec
	ORCLOSE OpenMode = 0x40 // or'ed in, remove on close
)

const omodifiers = OTRUNC | OCEXEC | ORCLOSE

// Base strips the modifier bits.
func (m OpenMode) Base() OpenMode {
	return m & 0x03
}

// Valid reports whether m uses only known bits.
func (m OpenMode) Valid() bool {
	return m&^(0x03|omodifiers) == 0
}

func (m OpenMode) String() string {
	s := [...]string{"OREAD", "OWRITE", "ORDWR", "OEXEC"}[m.Base()]
	if m&OTRUNC != 0 {
		s += "|OTRUNC"
	}
	if m&OCEXEC != 0 {
		s += "|OCEXEC"
	}
	if m&ORCLOSE != 0 {
		s += "|ORCLOSE"
	}
	return s
}

// --- Errors ---

var (
	// ErrMalformed marks bytes that do not decode to a valid message.
	ErrMalformed = errors.New("malformed message")

	ErrStringTooLong   = errors.New("string exceeds 65535 bytes")
	ErrTooManyElements = errors.New("too many walk elements")

	ErrTagInUse      = errors.New("tag in use")
	ErrTagsExhausted = errors.New("no free tags")
	ErrUnexpectedTag = errors.New("unexpected tag")
	ErrReplyMismatch = errors.New("reply does not match request")

	ErrUnknownFid = errors.New("unknown fid")
	ErrFidInUse   = errors.New("fid in use")
)
