package p9

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Encode returns the wire format of m.
// Format: size[4] type[1] tag[2] body[...]
func Encode(m Msg) ([]byte, error) {
	if m.Body == nil {
		return nil, errors.New("encode: message has no body")
	}

	e := &encoder{b: make([]byte, 7, 64)}
	e.b[4] = uint8(m.Body.Type())
	binary.LittleEndian.PutUint16(e.b[5:7], m.Tag)
	m.Body.encode(e)
	if e.err != nil {
		return nil, fmt.Errorf("encode %v: %w", m.Body.Type(), e.err)
	}
	if uint64(len(e.b)) > math.MaxUint32 {
		return nil, fmt.Errorf("encode %v: message too large", m.Body.Type())
	}

	binary.LittleEndian.PutUint32(e.b[0:4], uint32(len(e.b)))
	return e.b, nil
}

// encoder appends little-endian fields to b. The first failure sticks.
type encoder struct {
	b   []byte
	err error
}

func (e *encoder) u8(v uint8) {
	e.b = append(e.b, v)
}

func (e *encoder) u16(v uint16) {
	e.b = binary.LittleEndian.AppendUint16(e.b, v)
}

func (e *encoder) u32(v uint32) {
	e.b = binary.LittleEndian.AppendUint32(e.b, v)
}

func (e *encoder) u64(v uint64) {
	e.b = binary.LittleEndian.AppendUint64(e.b, v)
}

func (e *encoder) str(s string) {
	if len(s) > math.MaxUint16 {
		if e.err == nil {
			e.err = ErrStringTooLong
		}
		return
	}
	e.u16(uint16(len(s)))
	e.b = append(e.b, s...)
}

func (e *encoder) qid(q Qid) {
	e.u8(uint8(q.Type))
	e.u32(q.Vers)
	e.u64(q.Path)
}

// stat writes size[2] followed by the record.
func (e *encoder) stat(s *Stat) {
	if err := s.Validate(); err != nil {
		if e.err == nil {
			e.err = err
		}
		return
	}
	e.u16(uint16(s.Size()))
	e.u16(s.Type)
	e.u32(s.Dev)
	e.qid(s.Qid)
	e.u32(uint32(s.Mode))
	e.u32(s.Atime)
	e.u32(s.Mtime)
	e.u64(s.Length)
	e.str(s.Name)
	e.str(s.Uid)
	e.str(s.Gid)
	e.str(s.Muid)
}

// wstat writes n[2] stat[n], the form Rstat and Twstat carry.
func (e *encoder) wstat(s *Stat) {
	if s.Size()+2 > math.MaxUint16 {
		if e.err == nil {
			e.err = fmt.Errorf("stat size %d: %w", s.Size(), ErrStringTooLong)
		}
		return
	}
	e.u16(uint16(s.Size() + 2))
	e.stat(s)
}

func (e *encoder) data(d Data) {
	if uint64(len(d)) > math.MaxUint32 {
		if e.err == nil {
			e.err = errors.New("data exceeds 4GB")
		}
		return
	}
	e.u32(uint32(len(d)))
	e.b = append(e.b, d...)
}

func (f *Tversion) encode(e *encoder) {
	e.u32(f.Msize)
	e.str(f.Version)
}

func (f *Rversion) encode(e *encoder) {
	e.u32(f.Msize)
	e.str(f.Version)
}

func (f *Tauth) encode(e *encoder) {
	e.u32(f.Afid)
	e.str(f.Uname)
	e.str(f.Aname)
}

func (f *Rauth) encode(e *encoder)  { e.qid(f.Aqid) }
func (f *Rerror) encode(e *encoder) { e.str(f.Ename) }
func (f *Tflush) encode(e *encoder) { e.u16(f.Oldtag) }
func (*Rflush) encode(*encoder)     {}

func (f *Tattach) encode(e *encoder) {
	e.u32(f.Fid)
	e.u32(f.Afid)
	e.str(f.Uname)
	e.str(f.Aname)
}

func (f *Rattach) encode(e *encoder) { e.qid(f.Qid) }

func (f *Twalk) encode(e *encoder) {
	if len(f.Wnames) > MaxWalkElem {
		e.err = ErrTooManyElements
		return
	}
	e.u32(f.Fid)
	e.u32(f.Newfid)
	e.u16(uint16(len(f.Wnames)))
	for _, w := range f.Wnames {
		e.str(w)
	}
}

func (f *Rwalk) encode(e *encoder) {
	if len(f.Wqids) > MaxWalkElem {
		e.err = ErrTooManyElements
		return
	}
	e.u16(uint16(len(f.Wqids)))
	for _, q := range f.Wqids {
		e.qid(q)
	}
}

func (f *Topen) encode(e *encoder) {
	e.u32(f.Fid)
	e.u8(uint8(f.Mode))
}

func (f *Ropen) encode(e *encoder) {
	e.qid(f.Qid)
	e.u32(f.Iounit)
}

func (f *Tcreate) encode(e *encoder) {
	e.u32(f.Fid)
	e.str(f.Name)
	e.u32(uint32(f.Perm))
	e.u8(uint8(f.Mode))
}

func (f *Rcreate) encode(e *encoder) {
	e.qid(f.Qid)
	e.u32(f.Iounit)
}

func (f *Tread) encode(e *encoder) {
	e.u32(f.Fid)
	e.u64(f.Offset)
	e.u32(f.Count)
}

func (f *Rread) encode(e *encoder) { e.data(f.Data) }

func (f *Twrite) encode(e *encoder) {
	e.u32(f.Fid)
	e.u64(f.Offset)
	e.data(f.Data)
}

func (f *Rwrite) encode(e *encoder)  { e.u32(f.Count) }
func (f *Tclunk) encode(e *encoder)  { e.u32(f.Fid) }
func (*Rclunk) encode(*encoder)      {}
func (f *Tremove) encode(e *encoder) { e.u32(f.Fid) }
func (*Rremove) encode(*encoder)     {}
func (f *Tstat) encode(e *encoder)   { e.u32(f.Fid) }
func (f *Rstat) encode(e *encoder)   { e.wstat(&f.Stat) }

func (f *Twstat) encode(e *encoder) {
	e.u32(f.Fid)
	e.wstat(&f.Stat)
}

func (*Rwstat) encode(*encoder) {}
