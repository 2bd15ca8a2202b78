package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/xwire/internal/logging"
	"github.com/danmuck/xwire/internal/protocol/frame"
	"github.com/danmuck/xwire/internal/protocol/message"
	"github.com/danmuck/xwire/internal/protocol/wire"
	"github.com/danmuck/xwire/internal/xproto"
)

type record struct {
	File     string         `toml:"file"`
	Index    int            `toml:"index"`
	Class    string         `toml:"class"`
	Message  string         `toml:"message,omitempty"`
	Sequence *uint16        `toml:"sequence,omitempty"`
	Bytes    int            `toml:"bytes"`
	Fields   map[string]any `toml:"fields,omitempty"`
	Value    string         `toml:"value,omitempty"`
}

type decodeReport struct {
	Messages []record `toml:"message"`
}

type decodeOptions struct {
	server bool
	reply  string
	hex    bool
}

func (e *env) decode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	direction := fs.String("direction", "client", "stream direction: client|server")
	reply := fs.String("reply", "", "reply definition for server replies")
	hexInput := fs.Bool("hex", false, "inputs are hex text")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	opts := decodeOptions{reply: *reply, hex: *hexInput}
	switch *direction {
	case "client":
	case "server":
		opts.server = true
	default:
		return fmt.Errorf("decode: unknown direction %q", *direction)
	}
	files := fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}

	results := make([][]record, len(files))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(e.cfg.Workers)
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			recs, err := e.decodeFile(ctx, name, opts)
			if err != nil {
				return fmt.Errorf("decode: %s: %w", name, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var out decodeReport
	for _, recs := range results {
		out.Messages = append(out.Messages, recs...)
	}
	return toml.NewEncoder(e.stdout).Encode(out)
}

func (e *env) open(name string, hexInput bool) (io.Reader, func() error, error) {
	var r io.Reader = e.stdin
	closer := func() error { return nil }
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, nil, err
		}
		r, closer = f, f.Close
	}
	if !hexInput {
		return bufio.NewReader(r), closer, nil
	}
	text, err := io.ReadAll(r)
	if err != nil {
		closer()
		return nil, nil, err
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(string(text)), ""))
	if err != nil {
		closer()
		return nil, nil, err
	}
	return bytes.NewReader(data), closer, nil
}

func (e *env) decodeFile(ctx context.Context, name string, opts decodeOptions) ([]record, error) {
	r, closer, err := e.open(name, opts.hex)
	if err != nil {
		return nil, err
	}
	defer closer()

	limits := e.cfg.Limits()
	next := func(r io.Reader) ([]byte, error) { return frame.ReadRequest(r, limits) }
	if opts.server {
		var sizes frame.EventSizer = xproto.EventSizes{}
		if e.catalog != nil {
			sizes = e.catalog
		}
		next = func(r io.Reader) ([]byte, error) { return frame.ReadServer(r, sizes, limits) }
	}

	var recs []record
	err = frame.Split(r, next, func(i int, msg []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := record{File: name, Index: i, Bytes: len(msg)}
		var err error
		if opts.server {
			err = e.decodeServer(&rec, msg, opts.reply, limits)
		} else {
			err = e.decodeRequest(&rec, msg, limits)
		}
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		recs = append(recs, rec)
		return nil
	})
	logging.Logger().Debug().Str("file", name).Int("messages", len(recs)).Err(err).Msg("stream decoded")
	return recs, err
}

func (e *env) decodeRequest(rec *record, msg []byte, limits wire.Limits) error {
	rec.Class = "request"
	if e.catalog != nil {
		v, err := e.catalog.DecodeRequest(msg, limits)
		if err != nil {
			return err
		}
		rec.Message, rec.Fields = v.Definition().Name, v.Fields()
		return nil
	}
	req, ok := xproto.NewRequest(msg[0])
	if !ok {
		return fmt.Errorf("unknown request opcode %d", msg[0])
	}
	if err := message.ReadRequest(wire.NewReader(msg), req, limits); err != nil {
		return err
	}
	rec.Message, rec.Value = typeName(req), fmt.Sprintf("%+v", req)
	return nil
}

func (e *env) decodeServer(rec *record, msg []byte, reply string, limits wire.Limits) error {
	h, err := message.Peek(msg)
	if err != nil {
		return err
	}
	rec.Class = h.Class.String()
	rec.Sequence = &h.Sequence
	switch {
	case h.Class == message.ClassError:
		rec.Value = fmt.Sprintf("code=%d", h.Metabyte)
		return nil
	case h.Class == message.ClassReply && reply == "":
		// Without a definition only the header is known.
		return nil
	case e.catalog != nil:
		v, err := e.catalog.DecodeServer(msg, reply, limits)
		if err != nil {
			return err
		}
		rec.Message, rec.Fields = v.Definition().Name, v.Fields()
		return nil
	case h.Class == message.ClassReply:
		return fmt.Errorf("reply %s: %w", reply, errNoCatalog)
	}
	ev, ok := xproto.NewEvent(h.Code)
	if !ok {
		return fmt.Errorf("unknown event code %d", h.Code)
	}
	if err := message.ReadEvent(wire.NewReader(msg), ev, limits); err != nil {
		return err
	}
	rec.Message, rec.Value = typeName(ev), fmt.Sprintf("%+v", ev)
	return nil
}

func typeName(v any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*xproto.")
}
