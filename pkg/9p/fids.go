package p9

import (
	"fmt"
	"sync"
)

// Fids tracks which fids a session has bound and the qid each refers to.
// It only looks at messages through FidOf, NewfidOf and QidOf, so it serves
// either end of a connection.
type Fids struct {
	mu   sync.Mutex
	qids map[uint32]Qid
}

// NewFids returns an empty table.
func NewFids() *Fids {
	return &Fids{qids: make(map[uint32]Qid)}
}

// Check rejects a request naming an unbound fid, or one that would bind a
// fid already in use.
func (t *Fids) Check(req Fcall) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch req := req.(type) {
	case *Tauth:
		return t.free(req.Afid)
	case *Tattach:
		if err := t.free(req.Fid); err != nil {
			return err
		}
		if req.Afid != NOFID {
			return t.bound(req.Afid)
		}
		return nil
	}

	fid, ok := FidOf(req)
	if !ok {
		return nil
	}
	if err := t.bound(fid); err != nil {
		return err
	}
	if newfid, ok := NewfidOf(req); ok && newfid != fid {
		return t.free(newfid)
	}
	return nil
}

func (t *Fids) bound(fid uint32) error {
	if _, ok := t.qids[fid]; !ok {
		return fmt.Errorf("fid %d: %w", fid, ErrUnknownFid)
	}
	return nil
}

func (t *Fids) free(fid uint32) error {
	if fid == NOFID {
		return fmt.Errorf("fid %d: %w", fid, ErrFidInUse)
	}
	if _, ok := t.qids[fid]; ok {
		return fmt.Errorf("fid %d: %w", fid, ErrFidInUse)
	}
	return nil
}

// Track applies the outcome of req to the table once its reply resp is known.
func (t *Fids) Track(req, resp Fcall) {
	if req == nil || resp == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fid, hasFid := FidOf(req)

	switch resp := resp.(type) {
	case *Rerror:
		// Remove clunks the fid whether or not it succeeds.
		if req.Type() == MsgTremove {
			delete(t.qids, fid)
		}
	case *Rauth:
		if a, ok := req.(*Tauth); ok {
			t.qids[a.Afid] = resp.Aqid
		}
	case *Rwalk:
		w, ok := req.(*Twalk)
		if !ok || !resp.Complete(len(w.Wnames)) {
			return
		}
		if q, ok := QidOf(resp); ok {
			t.qids[w.Newfid] = q
		} else if q, ok := t.qids[w.Fid]; ok {
			t.qids[w.Newfid] = q
		}
	case *Rattach, *Ropen, *Rcreate:
		if q, ok := QidOf(resp); ok && hasFid {
			t.qids[fid] = q
		}
	case *Rclunk, *Rremove:
		if hasFid {
			delete(t.qids, fid)
		}
	}
}

// Lookup returns the qid bound to fid.
func (t *Fids) Lookup(fid uint32) (Qid, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.qids[fid]
	return q, ok
}

// Len returns the number of bound fids.
func (t *Fids) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.qids)
}
