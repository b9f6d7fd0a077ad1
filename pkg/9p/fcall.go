package p9

import "fmt"

// Fcall is the body of a 9P message: exactly one of the request or response
// types below. The set is closed; each variant knows its own wire code and
// field layout, so a Msg can never carry a type that disagrees with its body.
type Fcall interface {
	fmt.Stringer

	// Type returns the message type number.
	Type() MsgType

	encode(e *encoder)
	decode(d *decoder)
}

// Data is the opaque payload of Rread and Twrite. The message owns it.
// Empty and nil Data are the same on the wire and decode as nil; compare
// payloads by length, not by nil-ness.
type Data []byte

func (d Data) String() string {
	return fmt.Sprintf("%d bytes", len(d))
}

// Tversion negotiates the protocol version and the maximum message size.
type Tversion struct {
	Msize   uint32
	Version string
}

// Rversion carries the negotiated version and maximum message size.
type Rversion struct {
	Msize   uint32
	Version string
}

// Tauth requests an authentication file for Uname on Aname.
type Tauth struct {
	Afid  uint32
	Uname string
	Aname string
}

// Rauth returns the qid of the authentication file.
type Rauth struct {
	Aqid Qid
}

// Rerror reports that a request failed. It is an ordinary response, and also
// satisfies error so a dispatcher can hand it back as one.
type Rerror struct {
	Ename string
}

// Tflush asks the server to abandon the request tagged Oldtag.
type Tflush struct {
	Oldtag uint16
}

// Rflush acknowledges a flush, whether or not Oldtag was still pending.
type Rflush struct{}

// Tattach binds Fid to the root of the tree named by Aname.
type Tattach struct {
	Fid   uint32
	Afid  uint32
	Uname string
	Aname string
}

// Rattach returns the qid of the attached root.
type Rattach struct {
	Qid Qid
}

// Twalk walks Wnames from Fid and binds the result to Newfid.
// An empty Wnames clones Fid.
type Twalk struct {
	Fid    uint32
	Newfid uint32
	Wnames []string
}

// Rwalk holds one qid per name walked. Fewer qids than names means the walk
// stopped early and Newfid was not bound. An empty Wqids decodes as nil.
type Rwalk struct {
	Wqids []Qid
}

// Topen opens Fid for I/O.
type Topen struct {
	Fid  uint32
	Mode OpenMode
}

// Ropen returns the opened file's qid and preferred I/O size.
type Ropen struct {
	Qid    Qid
	Iounit uint32
}

// Tcreate creates Name in the directory Fid and opens it in its place.
type Tcreate struct {
	Fid  uint32
	Name string
	Perm Mode
	Mode OpenMode
}

// Rcreate returns the created file's qid and preferred I/O size.
type Rcreate struct {
	Qid    Qid
	Iounit uint32
}

// Tread reads up to Count bytes at Offset.
type Tread struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

// Rread returns the bytes read.
type Rread struct {
	Data Data
}

// Twrite writes Data at Offset.
type Twrite struct {
	Fid    uint32
	Offset uint64
	Data   Data
}

// Rwrite returns the number of bytes written.
type Rwrite struct {
	Count uint32
}

// Tclunk releases Fid.
type Tclunk struct {
	Fid uint32
}

type Rclunk struct{}

// Tremove removes the file and releases Fid, even if the remove fails.
type Tremove struct {
	Fid uint32
}

type Rremove struct{}

type Tstat struct {
	Fid uint32
}

type Rstat struct {
	Stat Stat
}

// Twstat applies the non-default fields of Stat to the file.
type Twstat struct {
	Fid  uint32
	Stat Stat
}

type Rwstat struct{}

func (*Tversion) Type() MsgType { return MsgTversion }
func (*Rversion) Type() MsgType { return MsgRversion }
func (*Tauth) Type() MsgType    { return MsgTauth }
func (*Rauth) Type() MsgType    { return MsgRauth }
func (*Rerror) Type() MsgType   { return MsgRerror }
func (*Tflush) Type() MsgType   { return MsgTflush }
func (*Rflush) Type() MsgType   { return MsgRflush }
func (*Tattach) Type() MsgType  { return MsgTattach }
func (*Rattach) Type() MsgType  { return MsgRattach }
func (*Twalk) Type() MsgType    { return MsgTwalk }
func (*Rwalk) Type() MsgType    { return MsgRwalk }
func (*Topen) Type() MsgType    { return MsgTopen }
func (*Ropen) Type() MsgType    { return MsgRopen }
func (*Tcreate) Type() MsgType  { return MsgTcreate }
func (*Rcreate) Type() MsgType  { return MsgRcreate }
func (*Tread) Type() MsgType    { return MsgTread }
func (*Rread) Type() MsgType    { return MsgRread }
func (*Twrite) Type() MsgType   { return MsgTwrite }
func (*Rwrite) Type() MsgType   { return MsgRwrite }
func (*Tclunk) Type() MsgType   { return MsgTclunk }
func (*Rclunk) Type() MsgType   { return MsgRclunk }
func (*Tremove) Type() MsgType  { return MsgTremove }
func (*Rremove) Type() MsgType  { return MsgRremove }
func (*Tstat) Type() MsgType    { return MsgTstat }
func (*Rstat) Type() MsgType    { return MsgRstat }
func (*Twstat) Type() MsgType   { return MsgTwstat }
func (*Rwstat) Type() MsgType   { return MsgRwstat }

func (r *Rerror) Error() string { return r.Ename }

// Complete reports whether the walk resolved all n requested names.
func (r *Rwalk) Complete(n int) bool {
	return len(r.Wqids) == n
}

// newFcall returns an empty body for t, ready to decode into.
func newFcall(t MsgType) Fcall {
	switch t {
	case MsgTversion:
		return &Tversion{}
	case MsgRversion:
		return &Rversion{}
	case MsgTauth:
		return &Tauth{}
	case MsgRauth:
		return &Rauth{}
	case MsgRerror:
		return &Rerror{}
	case MsgTflush:
		return &Tflush{}
	case MsgRflush:
		return &Rflush{}
	case MsgTattach:
		return &Tattach{}
	case MsgRattach:
		return &Rattach{}
	case MsgTwalk:
		return &Twalk{}
	case MsgRwalk:
		return &Rwalk{}
	case MsgTopen:
		return &Topen{}
	case MsgRopen:
		return &Ropen{}
	case MsgTcreate:
		return &Tcreate{}
	case MsgRcreate:
		return &Rcreate{}
	case MsgTread:
		return &Tread{}
	case MsgRread:
		return &Rread{}
	case MsgTwrite:
		return &Twrite{}
	case MsgRwrite:
		return &Rwrite{}
	case MsgTclunk:
		return &Tclunk{}
	case MsgRclunk:
		return &Rclunk{}
	case MsgTremove:
		return &Tremove{}
	case MsgRremove:
		return &Rremove{}
	case MsgTstat:
		return &Tstat{}
	case MsgRstat:
		return &Rstat{}
	case MsgTwstat:
		return &Twstat{}
	case MsgRwstat:
		return &Rwstat{}
	}
	return nil
}

// --- Accessors ---

// FidOf returns the fid a request operates on. Tauth, Tversion, Tflush and
// all responses have none.
func FidOf(f Fcall) (uint32, bool) {
	switch f := f.(type) {
	case *Tattach:
		return f.Fid, true
	case *Twalk:
		return f.Fid, true
	case *Topen:
		return f.Fid, true
	case *Tcreate:
		return f.Fid, true
	case *Tread:
		return f.Fid, true
	case *Twrite:
		return f.Fid, true
	case *Tclunk:
		return f.Fid, true
	case *Tremove:
		return f.Fid, true
	case *Tstat:
		return f.Fid, true
	case *Twstat:
		return f.Fid, true
	}
	return 0, false
}

// NewfidOf returns the destination fid of a Twalk.
func NewfidOf(f Fcall) (uint32, bool) {
	if w, ok := f.(*Twalk); ok {
		return w.Newfid, true
	}
	return 0, false
}

// QidOf returns the qid a response carries. For Rwalk that is the last qid
// walked, and nothing when the walk returned none.
func QidOf(f Fcall) (Qid, bool) {
	switch f := f.(type) {
	case *Rauth:
		return f.Aqid, true
	case *Rattach:
		return f.Qid, true
	case *Rwalk:
		if len(f.Wqids) == 0 {
			return Qid{}, false
		}
		return f.Wqids[len(f.Wqids)-1], true
	case *Ropen:
		return f.Qid, true
	case *Rcreate:
		return f.Qid, true
	}
	return Qid{}, false
}

// --- Strings ---

func (f *Tversion) String() string {
	return fmt.Sprintf("Tversion msize %d version '%s'", f.Msize, f.Version)
}

func (f *Rversion) String() string {
	return fmt.Sprintf("Rversion msize %d version '%s'", f.Msize, f.Version)
}

func (f *Tauth) String() string {
	return fmt.Sprintf("Tauth afid %d uname %s aname %s", int32(f.Afid), f.Uname, f.Aname)
}

func (f *Rauth) String() string  { return fmt.Sprintf("Rauth qid %v", f.Aqid) }
func (f *Rerror) String() string { return fmt.Sprintf("Rerror ename %s", f.Ename) }
func (f *Tflush) String() string { return fmt.Sprintf("Tflush oldtag %d", f.Oldtag) }
func (*Rflush) String() string   { return "Rflush" }

func (f *Tattach) String() string {
	return fmt.Sprintf("Tattach fid %d afid %d uname %s aname %s", f.Fid, int32(f.Afid), f.Uname, f.Aname)
}

func (f *Rattach) String() string { return fmt.Sprintf("Rattach qid %v", f.Qid) }

func (f *Twalk) String() string {
	return fmt.Sprintf("Twalk fid %d newfid %d nwname %d %q", f.Fid, f.Newfid, len(f.Wnames), f.Wnames)
}

func (f *Rwalk) String() string {
	return fmt.Sprintf("Rwalk nwqid %d %v", len(f.Wqids), f.Wqids)
}

func (f *Topen) String() string { return fmt.Sprintf("Topen fid %d mode %v", f.Fid, f.Mode) }

func (f *Ropen) String() string {
	return fmt.Sprintf("Ropen qid %v iounit %d", f.Qid, f.Iounit)
}

func (f *Tcreate) String() string {
	return fmt.Sprintf("Tcreate fid %d name %s perm %v mode %v", f.Fid, f.Name, f.Perm, f.Mode)
}

func (f *Rcreate) String() string {
	return fmt.Sprintf("Rcreate qid %v iounit %d", f.Qid, f.Iounit)
}

func (f *Tread) String() string {
	return fmt.Sprintf("Tread fid %d offset %d count %d", f.Fid, f.Offset, f.Count)
}

func (f *Rread) String() string { return fmt.Sprintf("Rread count %d", len(f.Data)) }

func (f *Twrite) String() string {
	return fmt.Sprintf("Twrite fid %d offset %d count %d", f.Fid, f.Offset, len(f.Data))
}

func (f *Rwrite) String() string  { return fmt.Sprintf("Rwrite count %d", f.Count) }
func (f *Tclunk) String() string  { return fmt.Sprintf("Tclunk fid %d", f.Fid) }
func (*Rclunk) String() string    { return "Rclunk" }
func (f *Tremove) String() string { return fmt.Sprintf("Tremove fid %d", f.Fid) }
func (*Rremove) String() string   { return "Rremove" }
func (f *Tstat) String() string   { return fmt.Sprintf("Tstat fid %d", f.Fid) }
func (f *Rstat) String() string   { return fmt.Sprintf("Rstat %v", &f.Stat) }

func (f *Twstat) String() string {
	return fmt.Sprintf("Twstat fid %d %v", f.Fid, &f.Stat)
}

func (*Rwstat) String() string { return "Rwstat" }
