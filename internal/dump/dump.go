// Package dump decodes a stream of 9P messages and prints each one,
// tracking tags and fids the way a dispatcher would.
package dump

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/keaganluttrell/ninep/internal/logger"
	p9 "github.com/keaganluttrell/ninep/pkg/9p"
	"github.com/keaganluttrell/ninep/pkg/transport"
	"gopkg.in/yaml.v3"
)

// Record is the structured form of one message.
type Record struct {
	Seq  int    `yaml:"seq" json:"seq"`
	Tag  uint16 `yaml:"tag" json:"tag"`
	Type string `yaml:"type" json:"type"`
	Body any    `yaml:"body,omitempty" json:"body,omitempty"`
}

// Summary describes a finished trace.
type Summary struct {
	Messages   int
	Bytes      uint64
	Counts     map[p9.MsgType]int
	Errors     int      // Rerror replies
	Strays     int      // replies to no pending request
	Unanswered []uint16 // requests still pending at the end
	Fids       int      // fids left bound at the end
}

// Dumper prints messages in one format.
type Dumper struct {
	w      io.Writer
	format string
	json   *json.Encoder
	yaml   *yaml.Encoder

	tags     *p9.Tags
	fids     *p9.Fids
	requests map[uint16]p9.Fcall
	sum      Summary
}

// New returns a Dumper writing format ("text", "yaml" or "json") to w.
func New(w io.Writer, format string) (*Dumper, error) {
	d := &Dumper{
		w:        w,
		format:   format,
		tags:     p9.NewTags(),
		fids:     p9.NewFids(),
		requests: make(map[uint16]p9.Fcall),
		sum:      Summary{Counts: make(map[p9.MsgType]int)},
	}
	switch format {
	case "text":
	case "json":
		d.json = json.NewEncoder(w)
	case "yaml":
		d.yaml = yaml.NewEncoder(w)
		d.yaml.SetIndent(2)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return d, nil
}

// Run prints every message read from src until it ends. A clean end of
// stream is not an error.
func (d *Dumper) Run(ctx context.Context, src transport.Conn) (Summary, error) {
	for {
		m, err := src.ReadMsg(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return d.Summary(), fmt.Errorf("message %d: %w", d.sum.Messages+1, err)
		}
		if err := d.Add(m); err != nil {
			return d.Summary(), err
		}
	}
	if d.yaml != nil {
		if err := d.yaml.Close(); err != nil {
			return d.Summary(), err
		}
	}
	return d.Summary(), nil
}

// Add records and prints one message.
func (d *Dumper) Add(m p9.Msg) error {
	b, err := p9.Encode(m)
	if err != nil {
		return err
	}
	d.sum.Messages++
	d.sum.Bytes += uint64(len(b))
	d.sum.Counts[m.Type()]++
	d.track(m)

	switch d.format {
	case "json":
		return d.json.Encode(d.record(m))
	case "yaml":
		return d.yaml.Encode(d.record(m))
	}
	_, err = fmt.Fprintln(d.w, m)
	return err
}

func (d *Dumper) record(m p9.Msg) Record {
	r := Record{Seq: d.sum.Messages, Tag: m.Tag, Type: m.Type().String()}
	switch m.Body.(type) {
	case *p9.Rflush, *p9.Rclunk, *p9.Rremove, *p9.Rwstat:
	default:
		r.Body = m.Body
	}
	return r
}

func (d *Dumper) track(m p9.Msg) {
	if m.Type().IsRequest() {
		if err := d.tags.Start(m.Tag, m.Body); err != nil {
			logger.Warn("%v: %v", m, err)
			return
		}
		d.requests[m.Tag] = m.Body
		if err := d.fids.Check(m.Body); err != nil {
			logger.Debug("%v: %v", m, err)
		}
		return
	}

	if m.Type() == p9.MsgRerror {
		d.sum.Errors++
	}
	if err := d.tags.Finish(m); err != nil {
		logger.Warn("%v: %v", m, err)
		if errors.Is(err, p9.ErrUnexpectedTag) {
			d.sum.Strays++
		}
		return
	}
	req := d.requests[m.Tag]
	delete(d.requests, m.Tag)

	if f, ok := req.(*p9.Tflush); ok {
		d.tags.Flush(f.Oldtag)
		delete(d.requests, f.Oldtag)
	}
	d.fids.Track(req, m.Body)
}

// Summary returns the totals so far.
func (d *Dumper) Summary() Summary {
	s := d.sum
	s.Counts = make(map[p9.MsgType]int, len(d.sum.Counts))
	for t, n := range d.sum.Counts {
		s.Counts[t] = n
	}
	s.Unanswered = nil
	for tag := range d.requests {
		s.Unanswered = append(s.Unanswered, tag)
	}
	sort.Slice(s.Unanswered, func(i, j int) bool { return s.Unanswered[i] < s.Unanswered[j] })
	s.Fids = d.fids.Len()
	return s
}

// WriteSummary prints s for a human.
func WriteSummary(w io.Writer, s Summary) error {
	types := make([]p9.MsgType, 0, len(s.Counts))
	for t := range s.Counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	if _, err := fmt.Fprintf(w, "%d messages, %s\n", s.Messages, humanize.Bytes(s.Bytes)); err != nil {
		return err
	}
	for _, t := range types {
		fmt.Fprintf(w, "\t%-8v %d\n", t, s.Counts[t])
	}
	fmt.Fprintf(w, "errors %d, strays %d, fids bound %d\n", s.Errors, s.Strays, s.Fids)
	if len(s.Unanswered) > 0 {
		_, err := fmt.Fprintf(w, "unanswered tags %v\n", s.Unanswered)
		return err
	}
	return nil
}
