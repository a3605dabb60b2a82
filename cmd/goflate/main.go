// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Command goflate encodes and decodes DEFLATE and gzip streams from
// stdin to stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"cloudeng.io/errors"
	"github.com/mbarrett/goflate"
	"github.com/schollz/progressbar/v2"
	"golang.org/x/crypto/ssh/terminal"
)

type noFlags struct{}

var cmdSet *subcmd.CommandSet

func init() {
	encodeCmd := subcmd.NewCommand("deflate-encode",
		subcmd.MustRegisterFlagStruct(&noFlags{}, nil, nil),
		deflateEncode, subcmd.ExactlyNumArguments(0))
	encodeCmd.Document(`read raw bytes from stdin and write a stored-block-only DEFLATE stream to stdout.`)

	decodeCmd := subcmd.NewCommand("deflate-decode",
		subcmd.MustRegisterFlagStruct(&noFlags{}, nil, nil),
		deflateDecode, subcmd.ExactlyNumArguments(0))
	decodeCmd.Document(`read a DEFLATE stream from stdin and write the decoded bytes to stdout.`)

	gzipCmd := subcmd.NewCommand("gzip-decode",
		subcmd.MustRegisterFlagStruct(&noFlags{}, nil, nil),
		gzipDecode, subcmd.ExactlyNumArguments(0))
	gzipCmd.Document(`read one or more concatenated gzip members from stdin and write the decoded bytes to stdout.`)

	cmdSet = subcmd.NewCommandSet(encodeCmd, decodeCmd, gzipCmd)
	cmdSet.Document(`encode and decode DEFLATE and gzip streams over stdin/stdout.`)
}

func main() {
	cmdSet.MustDispatch(context.Background())
}

// ctxReader makes os.Stdin cooperatively cancelable: a SIGINT observed by
// cmdutil.HandleSignals cancels ctx, which unwinds the decoder or encoder
// loop on its next read instead of blocking forever on stdin.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-c.ctx.Done():
		return 0, c.ctx.Err()
	default:
	}
	return c.r.Read(p)
}

// progressWriter forwards writes to w while driving an indeterminate
// byte-count spinner, used only when stderr is a terminal so piping
// stdout to a file or another process never sees spinner output mixed
// into the codec's own output.
type progressWriter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		p.bar.Add(n)
	}
	return n, err
}

// Flush lets DeflateDecoder/GzipDecoder's final-block flush reach the
// wrapped sink, if it supports flushing.
func (p *progressWriter) Flush() error {
	if f, ok := p.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func withProgress(w io.Writer) (io.Writer, func()) {
	if !terminal.IsTerminal(int(os.Stderr.Fd())) {
		return w, func() {}
	}
	bar := progressbar.NewOptions64(-1, progressbar.OptionSetWriter(os.Stderr))
	return &progressWriter{w: w, bar: bar}, func() { fmt.Fprintln(os.Stderr) }
}

func deflateEncode(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt)

	in := &ctxReader{ctx: ctx, r: os.Stdin}
	pw, cleanup := withProgress(os.Stdout)
	defer cleanup()

	return goflate.NewDeflateEncoder().Encode(in, goflate.NewBitWriter(pw))
}

func deflateDecode(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt)

	br := goflate.NewBitReader(&ctxReader{ctx: ctx, r: os.Stdin})
	pw, cleanup := withProgress(os.Stdout)
	defer cleanup()

	return goflate.NewDeflateDecoder().Decode(br, pw)
}

func gzipDecode(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt)

	br := goflate.NewBitReader(&ctxReader{ctx: ctx, r: os.Stdin})
	pw, cleanup := withProgress(os.Stdout)
	defer cleanup()

	errs := &errors.M{}
	errs.Append(goflate.NewGzipDecoder().Decode(br, pw))
	return errs.Err()
}
