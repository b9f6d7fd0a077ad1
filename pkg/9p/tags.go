package p9

import (
	"fmt"
	"sync"
)

// Tags tracks the requests in flight on one connection by tag.
type Tags struct {
	mu      sync.Mutex
	last    uint16
	pending map[uint16]MsgType
}

// NewTags returns an empty table.
func NewTags() *Tags {
	return &Tags{pending: make(map[uint16]MsgType)}
}

// Alloc picks a free tag for req and marks it pending. Tversion always
// travels as NOTAG.
func (t *Tags) Alloc(req Fcall) (uint16, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if req.Type() == MsgTversion {
		return NOTAG, t.start(NOTAG, req)
	}
	if !req.Type().IsRequest() {
		return 0, fmt.Errorf("%v is not a request", req.Type())
	}
	for i := 0; i < int(NOTAG); i++ {
		t.last++
		if t.last == NOTAG { // Wrap around, NOTAG is reserved
			t.last = 0
		}
		if _, busy := t.pending[t.last]; !busy {
			t.pending[t.last] = req.Type()
			return t.last, nil
		}
	}
	return 0, ErrTagsExhausted
}

// Start marks a caller-chosen tag pending for req.
func (t *Tags) Start(tag uint16, req Fcall) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.start(tag, req)
}

func (t *Tags) start(tag uint16, req Fcall) error {
	if !req.Type().IsRequest() {
		return fmt.Errorf("tag %d: %v is not a request", tag, req.Type())
	}
	if (tag == NOTAG) != (req.Type() == MsgTversion) {
		return fmt.Errorf("tag %d: %v must use NOTAG iff it is Tversion", tag, req.Type())
	}
	if _, busy := t.pending[tag]; busy {
		return fmt.Errorf("tag %d: %w", tag, ErrTagInUse)
	}
	t.pending[tag] = req.Type()
	return nil
}

// Finish retires the request that reply answers. A reply whose tag is not
// pending is a stray and fails with ErrUnexpectedTag; one of the wrong type
// fails with ErrReplyMismatch. Either way the table is unchanged on error.
func (t *Tags) Finish(reply Msg) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	req, ok := t.pending[reply.Tag]
	if !ok {
		return fmt.Errorf("tag %d: %w", reply.Tag, ErrUnexpectedTag)
	}
	if rt := reply.Type(); rt != req.Response() && rt != MsgRerror {
		return fmt.Errorf("tag %d: %v answering %v: %w", reply.Tag, rt, req, ErrReplyMismatch)
	}
	delete(t.pending, reply.Tag)
	return nil
}

// Flush abandons oldtag. Flushing a tag that is unknown or already answered
// is a no-op; the reply is the same either way.
func (t *Tags) Flush(oldtag uint16) *Rflush {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, oldtag)
	return &Rflush{}
}

// Pending reports whether tag is awaiting a reply.
func (t *Tags) Pending(tag uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[tag]
	return ok
}

// Outstanding returns the number of pending tags.
func (t *Tags) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
