package p9

import "fmt"

// Msg is one 9P message: a body and the tag that correlates a reply with its
// request. The wire type is always derived from the body.
type Msg struct {
	Tag  uint16
	Body Fcall
}

// NewMsg wraps body for sending with tag.
func NewMsg(tag uint16, body Fcall) Msg {
	return Msg{Tag: tag, Body: body}
}

// Type returns the wire code of the body, or 0 if there is none.
func (m Msg) Type() MsgType {
	if m.Body == nil {
		return 0
	}
	return m.Body.Type()
}

func (m Msg) String() string {
	if m.Body == nil {
		return fmt.Sprintf("tag %d <nil>", m.Tag)
	}
	return fmt.Sprintf("%v tag %d", m.Body, m.Tag)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m Msg) MarshalBinary() ([]byte, error) {
	return Encode(m)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Msg) UnmarshalBinary(b []byte) error {
	d, err := Decode(b)
	if err != nil {
		return err
	}
	*m = d
	return nil
}
