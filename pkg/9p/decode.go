package p9

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ReadMsg reads a single 9P message from r. Messages larger than msize are
// rejected; a zero msize accepts any size.
func ReadMsg(r io.Reader, msize uint32) (Msg, error) {
	sizeBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, sizeBuf); err != nil {
		return Msg{}, err
	}
	size := binary.LittleEndian.Uint32(sizeBuf)

	if size < 7 { // min size: size[4] + type[1] + tag[2]
		return Msg{}, fmt.Errorf("%w: message too short: %d", ErrMalformed, size)
	}
	if msize > 0 && size > msize {
		return Msg{}, fmt.Errorf("%w: message size %d exceeds msize %d", ErrMalformed, size, msize)
	}

	buf := make([]byte, size)
	copy(buf, sizeBuf)
	if _, err := io.ReadFull(r, buf[4:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Msg{}, err
	}

	return Decode(buf)
}

// Decode decodes one complete message, size field included. The type is
// read first and selects the body layout; the body must use every byte.
func Decode(b []byte) (Msg, error) {
	if len(b) < 7 {
		return Msg{}, fmt.Errorf("%w: buffer too short for header", ErrMalformed)
	}
	size := binary.LittleEndian.Uint32(b[0:4])
	if uint64(size) != uint64(len(b)) {
		return Msg{}, fmt.Errorf("%w: size %d does not match %d bytes", ErrMalformed, size, len(b))
	}

	t, err := ParseMsgType(b[4])
	if err != nil {
		return Msg{}, err
	}
	tag := binary.LittleEndian.Uint16(b[5:7])

	f := newFcall(t)
	d := &decoder{b: b[7:]}
	f.decode(d)
	if d.err != nil {
		return Msg{}, fmt.Errorf("decode %v: %w", t, d.err)
	}
	if len(d.b) != 0 {
		return Msg{}, fmt.Errorf("decode %v: %w: %d trailing bytes", t, ErrMalformed, len(d.b))
	}
	return Msg{Tag: tag, Body: f}, nil
}

// decoder consumes little-endian fields from b. The first failure sticks
// and later reads return zero values.
type decoder struct {
	b   []byte
	err error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
	}
}

func (d *decoder) take(n int, what string) []byte {
	if d.err != nil {
		return nil
	}
	if n > len(d.b) {
		d.fail("truncated %s: need %d bytes, have %d", what, n, len(d.b))
		return nil
	}
	v := d.b[:n]
	d.b = d.b[n:]
	return v
}

func (d *decoder) u8(what string) uint8 {
	if b := d.take(1, what); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16(what string) uint16 {
	if b := d.take(2, what); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32(what string) uint32 {
	if b := d.take(4, what); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64(what string) uint64 {
	if b := d.take(8, what); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) str(what string) string {
	n := d.u16(what + " length")
	return string(d.take(int(n), what))
}

func (d *decoder) qid() Qid {
	return Qid{
		Type: QidType(d.u8("qid type")),
		Vers: d.u32("qid version"),
		Path: d.u64("qid path"),
	}
}

// stat reads size[2] and exactly that many bytes of record.
func (d *decoder) stat(s *Stat) {
	size := d.u16("stat size")
	body := d.take(int(size), "stat")
	if d.err != nil {
		return
	}
	sd := &decoder{b: body}
	s.Type = sd.u16("stat type")
	s.Dev = sd.u32("stat dev")
	s.Qid = sd.qid()
	s.Mode = Mode(sd.u32("stat mode"))
	s.Atime = sd.u32("stat atime")
	s.Mtime = sd.u32("stat mtime")
	s.Length = sd.u64("stat length")
	s.Name = sd.str("stat name")
	s.Uid = sd.str("stat uid")
	s.Gid = sd.str("stat gid")
	s.Muid = sd.str("stat muid")
	if sd.err != nil {
		d.err = sd.err
		return
	}
	if len(sd.b) != 0 {
		d.fail("stat size %d leaves %d bytes unused", size, len(sd.b))
	}
}

// wstat reads the n[2] stat[n] form.
func (d *decoder) wstat(s *Stat) {
	n := d.u16("stat count")
	body := d.take(int(n), "stat")
	if d.err != nil {
		return
	}
	sd := &decoder{b: body}
	sd.stat(s)
	if sd.err != nil {
		d.err = sd.err
		return
	}
	if len(sd.b) != 0 {
		d.fail("stat count %d leaves %d bytes unused", n, len(sd.b))
	}
}

func (d *decoder) data() Data {
	n := d.u32("count")
	if d.err != nil {
		return nil
	}
	if uint64(n) > uint64(len(d.b)) {
		d.fail("truncated data: count %d, have %d", n, len(d.b))
		return nil
	}
	if n == 0 {
		return nil
	}
	v := make(Data, n)
	copy(v, d.take(int(n), "data"))
	return v
}

func (f *Tversion) decode(d *decoder) {
	f.Msize = d.u32("msize")
	f.Version = d.str("version")
}

func (f *Rversion) decode(d *decoder) {
	f.Msize = d.u32("msize")
	f.Version = d.str("version")
}

func (f *Tauth) decode(d *decoder) {
	f.Afid = d.u32("afid")
	f.Uname = d.str("uname")
	f.Aname = d.str("aname")
}

func (f *Rauth) decode(d *decoder)  { f.Aqid = d.qid() }
func (f *Rerror) decode(d *decoder) { f.Ename = d.str("ename") }
func (f *Tflush) decode(d *decoder) { f.Oldtag = d.u16("oldtag") }
func (*Rflush) decode(*decoder)     {}

func (f *Tattach) decode(d *decoder) {
	f.Fid = d.u32("fid")
	f.Afid = d.u32("afid")
	f.Uname = d.str("uname")
	f.Aname = d.str("aname")
}

func (f *Rattach) decode(d *decoder) { f.Qid = d.qid() }

func (f *Twalk) decode(d *decoder) {
	f.Fid = d.u32("fid")
	f.Newfid = d.u32("newfid")
	n := d.u16("nwname")
	if n > MaxWalkElem {
		d.fail("nwname %d exceeds %d", n, MaxWalkElem)
		return
	}
	if n == 0 || d.err != nil {
		return
	}
	f.Wnames = make([]string, n)
	for i := range f.Wnames {
		f.Wnames[i] = d.str("wname")
	}
}

func (f *Rwalk) decode(d *decoder) {
	n := d.u16("nwqid")
	if n > MaxWalkElem {
		d.fail("nwqid %d exceeds %d", n, MaxWalkElem)
		return
	}
	if n == 0 || d.err != nil {
		return
	}
	f.Wqids = make([]Qid, n)
	for i := range f.Wqids {
		f.Wqids[i] = d.qid()
	}
}

func (f *Topen) decode(d *decoder) {
	f.Fid = d.u32("fid")
	f.Mode = OpenMode(d.u8("mode"))
}

func (f *Ropen) decode(d *decoder) {
	f.Qid = d.qid()
	f.Iounit = d.u32("iounit")
}

func (f *Tcreate) decode(d *decoder) {
	f.Fid = d.u32("fid")
	f.Name = d.str("name")
	f.Perm = Mode(d.u32("perm"))
	f.Mode = OpenMode(d.u8("mode"))
}

func (f *Rcreate) decode(d *decoder) {
	f.Qid = d.qid()
	f.Iounit = d.u32("iounit")
}

func (f *Tread) decode(d *decoder) {
	f.Fid = d.u32("fid")
	f.Offset = d.u64("offset")
	f.Count = d.u32("count")
}

func (f *Rread) decode(d *decoder) { f.Data = d.data() }

func (f *Twrite) decode(d *decoder) {
	f.Fid = d.u32("fid")
	f.Offset = d.u64("offset")
	f.Data = d.data()
}

func (f *Rwrite) decode(d *decoder)  { f.Count = d.u32("count") }
func (f *Tclunk) decode(d *decoder)  { f.Fid = d.u32("fid") }
func (*Rclunk) decode(*decoder)      {}
func (f *Tremove) decode(d *decoder) { f.Fid = d.u32("fid") }
func (*Rremove) decode(*decoder)     {}
func (f *Tstat) decode(d *decoder)   { f.Fid = d.u32("fid") }
func (f *Rstat) decode(d *decoder)   { d.wstat(&f.Stat) }

func (f *Twstat) decode(d *decoder) {
	f.Fid = d.u32("fid")
	d.wstat(&f.Stat)
}

func (*Rwstat) decode(*decoder) {}
