// qid.go defines the Qid type for unique file identification and the type
// bits it carries.
package p9

import "fmt"

// QidType is the file type byte of a Qid. The same bits appear in the high
// byte of a Stat Mode; see Mode and QidType.Mode.
type QidType uint8

const (
	QTDIR    QidType = 0x80 // directory
	QTAPPEND QidType = 0x40 // append only
	QTEXCL   QidType = 0x20 // exclusive use
	QTMOUNT  QidType = 0x10 // mounted channel
	QTAUTH   QidType = 0x08 // authentication file
	QTTMP    QidType = 0x04 // not backed up
	QTFILE   QidType = 0x00 // plain file
)

// Mode projects the type bits into the high byte of a 32-bit Stat mode.
func (t QidType) Mode() Mode {
	return Mode(t) << 24
}

func (t QidType) String() string {
	b := make([]byte, 0, 6)
	for _, f := range []struct {
		bit QidType
		c   byte
	}{{QTDIR, 'd'}, {QTAPPEND, 'a'}, {QTEXCL, 'l'}, {QTMOUNT, 'm'}, {QTAUTH, 'A'}, {QTTMP, 't'}} {
		if t&f.bit != 0 {
			b = append(b, f.c)
		}
	}
	return string(b)
}

// Qid represents a unique file ID on the server.
//
// Path is unique among the files of one hierarchy for its lifetime; Vers
// changes whenever the file is modified.
type Qid struct {
	Type QidType `yaml:"type" json:"type"`
	Vers uint32  `yaml:"vers" json:"vers"`
	Path uint64  `yaml:"path" json:"path"`
}

// IsDir reports whether the qid names a directory.
func (q Qid) IsDir() bool {
	return q.Type&QTDIR != 0
}

func (q Qid) String() string {
	return fmt.Sprintf("(%016x %d %s)", q.Path, q.Vers, q.Type)
}
