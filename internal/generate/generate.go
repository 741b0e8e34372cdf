// Package generate writes synthetic tcpflow-style capture files for smoke
// tests and demos.
package generate

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
)

// DefaultPaths is the request path pool used when Options.Paths is empty.
var DefaultPaths = []string{
	"/api/users",
	"/api/data",
	"/api/search?q=go",
	"/static/app.js",
	"/health",
}

var methods = []string{"GET", "GET", "GET", "POST", "PUT"}

// Options controls what Captures writes.
type Options struct {
	Dir     string
	Listen  capture.Endpoint
	Count   int // complete request/response pairs
	OneWay  int // request files with no response peer
	Foreign int // pairs between two endpoints other than Listen
	Paths   []string
	Seed    int64
	// Age backdates every file's mtime relative to Now so the files are
	// settled immediately. Zero leaves them fresh.
	Age time.Duration
	Now time.Time
}

// DefaultOptions returns defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		Count: 10,
		Age:   time.Minute,
	}
}

// Result lists the files written, by base name.
type Result struct {
	Pairs   []capture.Name // request direction of each pair
	OneWay  []capture.Name
	Foreign []capture.Name
	Files   []string
}

// Captures writes the requested files into opts.Dir. Existing files are
// never overwritten.
func Captures(opts Options) (Result, error) {
	if opts.Count < 0 || opts.OneWay < 0 || opts.Foreign < 0 {
		return Result{}, fmt.Errorf("counts must not be negative")
	}
	if opts.Count+opts.OneWay+opts.Foreign == 0 {
		return Result{}, fmt.Errorf("nothing to generate")
	}
	if opts.Count+opts.OneWay+opts.Foreign > 250*250 {
		return Result{}, fmt.Errorf("too many flows requested")
	}
	if !opts.Listen.Routable() {
		return Result{}, fmt.Errorf("listen endpoint %s is not routable", opts.Listen)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if len(opts.Paths) == 0 {
		opts.Paths = DefaultPaths
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Seed == 0 {
		opts.Seed = opts.Now.UnixNano()
	}

	g := &generator{
		opts:  opts,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		mtime: opts.Now.Add(-opts.Age),
	}

	var res Result
	for i := 0; i < opts.Count; i++ {
		req := capture.Name{Src: g.client(), Dst: opts.Listen}
		if err := g.pair(req, &res); err != nil {
			return res, err
		}
		res.Pairs = append(res.Pairs, req)
	}
	for i := 0; i < opts.OneWay; i++ {
		req := capture.Name{Src: g.client(), Dst: opts.Listen}
		if err := g.write(req, g.request(), &res); err != nil {
			return res, err
		}
		res.OneWay = append(res.OneWay, req)
	}
	for i := 0; i < opts.Foreign; i++ {
		other := capture.Endpoint{Addr: [4]uint16{192, 168, 77, uint16(1 + i%250)}, Port: 8080}
		if other == opts.Listen {
			other.Port++
		}
		req := capture.Name{Src: g.client(), Dst: other}
		if err := g.pair(req, &res); err != nil {
			return res, err
		}
		res.Foreign = append(res.Foreign, req)
	}
	return res, nil
}

type generator struct {
	opts  Options
	rng   *rand.Rand
	mtime time.Time
	next  int
}

// client returns a distinct client endpoint per call.
func (g *generator) client() capture.Endpoint {
	i := g.next
	g.next++
	return capture.Endpoint{
		Addr: [4]uint16{10, 99, uint16(i / 250), uint16(1 + i%250)},
		Port: uint32(1024 + g.rng.Intn(64000)),
	}
}

func (g *generator) request() []byte {
	method := methods[g.rng.Intn(len(methods))]
	path := g.opts.Paths[g.rng.Intn(len(g.opts.Paths))]
	body := ""
	if method != "GET" {
		body = fmt.Sprintf(`{"n":%d}`, g.rng.Intn(1000))
	}
	return []byte(fmt.Sprintf("%s %s HTTP/1.1\r\nHost: %s\r\nUser-Agent: httpcopy-generate\r\nContent-Length: %d\r\n\r\n%s",
		method, path, g.opts.Listen.IP(), len(body), body))
}

func (g *generator) response() []byte {
	body := fmt.Sprintf(`{"ok":true,"id":%d}`, g.rng.Intn(100000))
	return []byte(fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body))
}

func (g *generator) pair(req capture.Name, res *Result) error {
	if err := g.write(req, g.request(), res); err != nil {
		return err
	}
	return g.write(req.Peer(), g.response(), res)
}

func (g *generator) write(n capture.Name, data []byte, res *Result) error {
	name := n.String()
	path := filepath.Join(g.opts.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if g.opts.Age > 0 {
		if err := os.Chtimes(path, g.mtime, g.mtime); err != nil {
			return err
		}
	}
	res.Files = append(res.Files, name)
	return nil
}
