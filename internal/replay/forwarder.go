// Package replay claims accepted flows and streams their requests to the
// shadow server.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// Stage names where a replay stopped.
type Stage string

const (
	StageConnect Stage = "connect"
	StageSend    Stage = "send"
	StageReceive Stage = "receive"
	StageOutput  Stage = "output"
	StageDone    Stage = "done"
)

// Result describes one replay.
type Result struct {
	Artifact  Artifact      `json:"artifact"`
	Connected bool          `json:"connected"`
	Sent      int64         `json:"sent"`
	Bytes     int64         `json:"bytes"` // shadow response bytes captured
	Duration  time.Duration `json:"duration"`
	Stage     Stage         `json:"stage"`
}

// Replayer forwards one claimed artifact.
type Replayer interface {
	Forward(ctx context.Context, a Artifact) (Result, error)
}

// ForwarderConfig configures a Forwarder.
type ForwarderConfig struct {
	Addr           string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ReadBuffer     int
}

// Forwarder streams request bytes to the shadow server over plain TCP and
// captures whatever comes back.
type Forwarder struct {
	cfg    ForwarderConfig
	dialer net.Dialer
}

// NewForwarder creates a forwarder. A non-positive ReadBuffer means 1024.
func NewForwarder(cfg ForwarderConfig) *Forwarder {
	if cfg.ReadBuffer <= 0 {
		cfg.ReadBuffer = 1024
	}
	return &Forwarder{
		cfg:    cfg,
		dialer: net.Dialer{Timeout: cfg.ConnectTimeout},
	}
}

// Addr returns the shadow server address.
func (f *Forwarder) Addr() string {
	return f.cfg.Addr
}

// Forward connects to the shadow server, sends the archived request verbatim
// and appends every received chunk to a.ShadowResponse. Reading stops when
// the peer closes or no data arrives within ReadTimeout; both end the
// replay normally. The shadow file is only created once connected.
func (f *Forwarder) Forward(ctx context.Context, a Artifact) (Result, error) {
	start := time.Now()
	res := Result{Artifact: a, Stage: StageConnect}

	conn, err := f.dialer.DialContext(ctx, "tcp", f.cfg.Addr)
	if err != nil {
		res.Duration = time.Since(start)
		return res, fmt.Errorf("connecting to %s: %w", f.cfg.Addr, err)
	}
	defer conn.Close()
	res.Connected = true

	res.Stage = StageOutput
	out, err := createShadowFile(a.ShadowResponse)
	if err != nil {
		res.Duration = time.Since(start)
		return res, fmt.Errorf("creating shadow response: %w", err)
	}
	defer out.Close()

	res.Stage = StageSend
	res.Sent, err = f.send(conn, a.Request)
	if err != nil {
		res.Duration = time.Since(start)
		return res, err
	}

	res.Stage = StageReceive
	res.Bytes, err = f.receive(conn, out)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	res.Stage = StageDone
	return res, nil
}

func (f *Forwarder) send(conn net.Conn, path string) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening request: %w", err)
	}
	defer in.Close()

	var sent int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			conn.SetWriteDeadline(time.Now().Add(f.cfg.ReadTimeout))
			w, werr := conn.Write(buf[:n])
			sent += int64(w)
			if werr != nil {
				return sent, fmt.Errorf("sending request: %w", werr)
			}
		}
		if rerr == io.EOF {
			return sent, nil
		}
		if rerr != nil {
			return sent, fmt.Errorf("reading request: %w", rerr)
		}
	}
}

func (f *Forwarder) receive(conn net.Conn, out io.Writer) (int64, error) {
	var total int64
	buf := make([]byte, f.cfg.ReadBuffer)
	for {
		conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			w, werr := out.Write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, fmt.Errorf("writing shadow response: %w", werr)
			}
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrDeadlineExceeded):
			return total, nil
		default:
			return total, fmt.Errorf("receiving response: %w", err)
		}
	}
}
