package dump

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	p9 "github.com/keaganluttrell/ninep/pkg/9p"
	"github.com/keaganluttrell/ninep/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// trace is a read-only stream over captured bytes.
type trace struct{ io.Reader }

func (trace) Write(p []byte) (int, error) { return 0, errors.New("read-only trace") }
func (trace) Close() error                { return nil }

func session() []p9.Msg {
	root := p9.Qid{Type: p9.QTDIR, Path: 1}
	lib := p9.Qid{Type: p9.QTDIR, Path: 4}
	return []p9.Msg{
		p9.NewMsg(p9.NOTAG, &p9.Tversion{Msize: 8192, Version: p9.Version}),
		p9.NewMsg(p9.NOTAG, &p9.Rversion{Msize: 8192, Version: p9.Version}),
		p9.NewMsg(1, &p9.Tattach{Fid: 0, Afid: p9.NOFID, Uname: "glenda"}),
		p9.NewMsg(1, &p9.Rattach{Qid: root}),
		p9.NewMsg(2, &p9.Twalk{Fid: 0, Newfid: 1, Wnames: []string{"lib"}}),
		p9.NewMsg(2, &p9.Rwalk{Wqids: []p9.Qid{lib}}),
		p9.NewMsg(3, &p9.Tread{Fid: 1, Count: 100}),
		p9.NewMsg(4, &p9.Tflush{Oldtag: 3}),
		p9.NewMsg(4, &p9.Rflush{}),
		p9.NewMsg(5, &p9.Tstat{Fid: 1}),
		p9.NewMsg(5, &p9.Rerror{Ename: "permission denied"}),
		p9.NewMsg(9, &p9.Rclunk{}),
		p9.NewMsg(6, &p9.Topen{Fid: 1, Mode: p9.OREAD}),
	}
}

func encodeAll(t *testing.T, msgs []p9.Msg) []byte {
	var buf bytes.Buffer
	for _, m := range msgs {
		b, err := p9.Encode(m)
		require.NoError(t, err)
		buf.Write(b)
	}
	return buf.Bytes()
}

func run(t *testing.T, format string, raw []byte) (string, Summary, error) {
	var out bytes.Buffer
	d, err := New(&out, format)
	require.NoError(t, err)
	src := transport.NewStream(trace{bytes.NewReader(raw)}, 0)
	sum, err := d.Run(context.Background(), src)
	return out.String(), sum, err
}

func TestRun_Text(t *testing.T) {
	raw := encodeAll(t, session())
	out, sum, err := run(t, "text", raw)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 13)
	assert.Equal(t, "Tversion msize 8192 version '9P2000' tag 65535", lines[0])
	assert.Contains(t, out, "Twalk fid 0 newfid 1")

	assert.Equal(t, 13, sum.Messages)
	assert.Equal(t, uint64(len(raw)), sum.Bytes)
	assert.Equal(t, 1, sum.Counts[p9.MsgTversion])
	assert.Equal(t, 1, sum.Counts[p9.MsgRerror])
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 1, sum.Strays)
	assert.Equal(t, []uint16{6}, sum.Unanswered)
	assert.Equal(t, 2, sum.Fids)
}

func TestRun_JSON(t *testing.T) {
	out, _, err := run(t, "json", encodeAll(t, session()))
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var recs []map[string]any
	for dec.More() {
		var r map[string]any
		require.NoError(t, dec.Decode(&r))
		recs = append(recs, r)
	}
	require.Len(t, recs, 13)
	assert.Equal(t, "Tversion", recs[0]["type"])
	assert.Equal(t, float64(p9.NOTAG), recs[0]["tag"])
	assert.Equal(t, "Rflush", recs[8]["type"])
	assert.NotContains(t, recs[8], "body")
}

func TestRun_YAML(t *testing.T) {
	out, _, err := run(t, "yaml", encodeAll(t, session()))
	require.NoError(t, err)

	dec := yaml.NewDecoder(strings.NewReader(out))
	var recs []Record
	for {
		var r Record
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		recs = append(recs, r)
	}
	require.Len(t, recs, 13)
	assert.Equal(t, "Rattach", recs[3].Type)
	assert.Equal(t, 4, recs[3].Seq)
}

func TestRun_Malformed(t *testing.T) {
	raw := encodeAll(t, session()[:2])
	raw = append(raw, 7, 0, 0, 0, 99, 1, 0)

	_, sum, err := run(t, "text", raw)
	assert.ErrorIs(t, err, p9.ErrMalformed)
	assert.Equal(t, 2, sum.Messages)
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(io.Discard, "xml")
	assert.Error(t, err)
}

func TestWriteSummary(t *testing.T) {
	_, sum, err := run(t, "text", encodeAll(t, session()))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, WriteSummary(&out, sum))
	s := out.String()
	assert.Contains(t, s, "13 messages")
	assert.Contains(t, s, "Tversion")
	assert.Contains(t, s, "errors 1, strays 1, fids bound 2")
	assert.Contains(t, s, "unanswered tags [6]")
}
