// stat.go defines the Stat type for file metadata and the mode bits it
// carries.
package p9

import (
	"fmt"
	"math"
)

// Mode is the 32-bit permission word of a Stat. The high byte mirrors the
// QidType bits; the low nine bits are the owner/group/other permissions.
type Mode uint32

const (
	DMDIR    = Mode(QTDIR) << 24    // 0x80000000
	DMAPPEND = Mode(QTAPPEND) << 24 // 0x40000000
	DMEXCL   = Mode(QTEXCL) << 24   // 0x20000000
	DMMOUNT  = Mode(QTMOUNT) << 24  // 0x10000000
	DMAUTH   = Mode(QTAUTH) << 24   // 0x08000000
	DMTMP    = Mode(QTTMP) << 24    // 0x04000000

	DMREAD  Mode = 0x4
	DMWRITE Mode = 0x2
	DMEXEC  Mode = 0x1
)

// Type returns the high byte as Qid type bits.
func (m Mode) Type() QidType {
	return QidType(m >> 24)
}

// Perm returns the rwxrwxrwx permission bits.
func (m Mode) Perm() Mode {
	return m & 0777
}

func (m Mode) String() string {
	b := []byte("---------")
	for i := 0; i < 9; i++ {
		if m&(1<<uint(8-i)) != 0 {
			b[i] = "rwx"[i%3]
		}
	}
	prefix := "-"
	switch {
	case m&DMDIR != 0:
		prefix = "d"
	case m&DMAPPEND != 0:
		prefix = "a"
	case m&DMAUTH != 0:
		prefix = "A"
	}
	if m&DMEXCL != 0 {
		prefix += "l"
	}
	return prefix + string(b)
}

// statFixedSize is type[2] dev[4] qid[13] mode[4] atime[4] mtime[4] length[8].
const statFixedSize = 2 + 4 + 13 + 4 + 4 + 4 + 8

// Stat describes a file. Corresponds to the Plan 9 Dir structure.
type Stat struct {
	Type   uint16 `yaml:"type" json:"type"`
	Dev    uint32 `yaml:"dev" json:"dev"`
	Qid    Qid    `yaml:"qid" json:"qid"`
	Mode   Mode   `yaml:"mode" json:"mode"`
	Atime  uint32 `yaml:"atime" json:"atime"`
	Mtime  uint32 `yaml:"mtime" json:"mtime"`
	Length uint64 `yaml:"length" json:"length"`
	Name   string `yaml:"name" json:"name"`
	Uid    string `yaml:"uid" json:"uid"`
	Gid    string `yaml:"gid" json:"gid"`
	Muid   string `yaml:"muid" json:"muid"`
}

// Size returns the number of bytes following the size[2] field when s is
// framed on the wire.
func (s *Stat) Size() int {
	return statFixedSize +
		(2 + len(s.Name)) +
		(2 + len(s.Uid)) +
		(2 + len(s.Gid)) +
		(2 + len(s.Muid))
}

// Consistent reports whether the mode's type byte mirrors the qid type.
func (s *Stat) Consistent() bool {
	return s.Mode.Type() == s.Qid.Type
}

// Validate checks that s can be framed: every string and the record itself
// must fit a 16-bit length. It does not truncate.
func (s *Stat) Validate() error {
	for _, f := range []struct{ name, v string }{
		{"name", s.Name}, {"uid", s.Uid}, {"gid", s.Gid}, {"muid", s.Muid},
	} {
		if len(f.v) > math.MaxUint16 {
			return fmt.Errorf("stat %s: %w", f.name, ErrStringTooLong)
		}
	}
	if s.Size() > math.MaxUint16 {
		return fmt.Errorf("stat size %d: %w", s.Size(), ErrStringTooLong)
	}
	return nil
}

func (s *Stat) String() string {
	return fmt.Sprintf("'%s' '%s' '%s' '%s' q %v m %#o at %d mt %d l %d t %d d %d",
		s.Name, s.Uid, s.Gid, s.Muid, s.Qid, uint32(s.Mode), s.Atime, s.Mtime, s.Length, s.Type, s.Dev)
}

// Bytes encodes s into the wire format: size[2] + contents.
func (s *Stat) Bytes() ([]byte, error) {
	e := &encoder{b: make([]byte, 0, 2+s.Size())}
	e.stat(s)
	if e.err != nil {
		return nil, e.err
	}
	return e.b, nil
}

// UnmarshalStat decodes a single Stat from the buffer.
// Returns the Stat and the number of bytes consumed.
func UnmarshalStat(b []byte) (Stat, int, error) {
	d := &decoder{b: b}
	var s Stat
	d.stat(&s)
	if d.err != nil {
		return Stat{}, 0, d.err
	}
	return s, len(b) - len(d.b), nil
}

// UnmarshalStats decodes the concatenated stats of a directory read.
func UnmarshalStats(b []byte) ([]Stat, error) {
	var stats []Stat
	for len(b) > 0 {
		s, n, err := UnmarshalStat(b)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
		b = b[n:]
	}
	return stats, nil
}
