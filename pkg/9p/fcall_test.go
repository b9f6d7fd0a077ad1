package p9

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFidOf(t *testing.T) {
	withFid := map[MsgType]bool{
		MsgTattach: true, MsgTwalk: true, MsgTopen: true, MsgTcreate: true, MsgTread: true,
		MsgTwrite: true, MsgTclunk: true, MsgTremove: true, MsgTstat: true, MsgTwstat: true,
	}
	for _, body := range allBodies() {
		fid, ok := FidOf(body)
		assert.Equal(t, withFid[body.Type()], ok, "%v", body.Type())
		if !ok {
			assert.Zero(t, fid)
		}
	}

	fid, ok := FidOf(&Twstat{Fid: 42})
	assert.True(t, ok)
	assert.Equal(t, uint32(42), fid)

	_, ok = FidOf(&Tauth{Afid: 5})
	assert.False(t, ok)
}

func TestNewfidOf(t *testing.T) {
	for _, body := range allBodies() {
		newfid, ok := NewfidOf(body)
		if w, isWalk := body.(*Twalk); isWalk {
			assert.True(t, ok)
			assert.Equal(t, w.Newfid, newfid)
			continue
		}
		assert.False(t, ok, "%v", body.Type())
	}
}

func TestQidOf(t *testing.T) {
	q1 := Qid{Type: QTDIR, Vers: 1, Path: 1}
	q2 := Qid{Type: QTFILE, Vers: 2, Path: 2}

	tests := []struct {
		body Fcall
		want Qid
		ok   bool
	}{
		{&Rauth{Aqid: q1}, q1, true},
		{&Rattach{Qid: q1}, q1, true},
		{&Ropen{Qid: q2, Iounit: 10}, q2, true},
		{&Rcreate{Qid: q2}, q2, true},
		{&Rwalk{Wqids: []Qid{q1, q2}}, q2, true},
		{&Rwalk{Wqids: []Qid{q1}}, q1, true},
		{&Rwalk{}, Qid{}, false},
		{&Rstat{Stat: Stat{Qid: q1}}, Qid{}, false},
		{&Tattach{Fid: 1}, Qid{}, false},
		{&Rerror{Ename: "x"}, Qid{}, false},
	}
	for _, tt := range tests {
		got, ok := QidOf(tt.body)
		assert.Equal(t, tt.ok, ok, "%v", tt.body)
		assert.Equal(t, tt.want, got, "%v", tt.body)
	}
}

func TestRerror_IsError(t *testing.T) {
	var err error = &Rerror{Ename: "permission denied"}
	assert.EqualError(t, err, "permission denied")
}

func TestFcall_Strings(t *testing.T) {
	for _, body := range allBodies() {
		assert.Contains(t, body.String(), body.Type().String())
	}
	assert.Equal(t, "Tattach fid 1 afid -1 uname glenda aname ",
		(&Tattach{Fid: 1, Afid: NOFID, Uname: "glenda"}).String())
	assert.Equal(t, "Rread count 3", (&Rread{Data: Data("abc")}).String())
	assert.Equal(t, "3 bytes", Data("abc").String())
}
