package framing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/flow"
)

// Verdict is the classification outcome for a pair.
type Verdict int

const (
	// Accept means the pair is a request/response exchange passing the prefix filter.
	Accept Verdict = iota
	// RejectEmpty means one of the files has no content.
	RejectEmpty
	// RejectFraming means neither or both role orderings matched.
	RejectFraming
	// RejectURL means the request target was filtered out by prefix.
	RejectURL
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case RejectEmpty:
		return "empty"
	case RejectFraming:
		return "framing"
	case RejectURL:
		return "url"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// PrefixFilter keeps requests whose target starts with Prefix.
// The zero value matches everything.
type PrefixFilter struct {
	Prefix string
}

// Match reports whether target passes the filter.
func (f PrefixFilter) Match(target string) bool {
	return f.Prefix == "" || strings.HasPrefix(target, f.Prefix)
}

// Result is a classified pair.
type Result struct {
	Verdict  Verdict
	Request  capture.File
	Response capture.File
	Line     RequestLine
}

// Classifier resolves roles of a flow pair.
type Classifier struct {
	Filter PrefixFilter
}

// Classify reads the first line of both files and decides the pair's fate.
// An error means a file could not be read right now (it vanished or is
// unreadable); the caller should leave the pair for the next cycle.
// Request and Response are only meaningful when Verdict is Accept or
// RejectURL; otherwise they carry A and B in order.
func (c Classifier) Classify(p flow.Pair) (Result, error) {
	res := Result{Verdict: RejectFraming, Request: p.A, Response: p.B}

	lineA, errA := ReadFirstLine(p.A.Path)
	lineB, errB := ReadFirstLine(p.B.Path)
	for _, err := range []error{errA, errB} {
		if err != nil && !errors.Is(err, ErrEmpty) {
			return res, err
		}
	}
	if errA != nil || errB != nil {
		res.Verdict = RejectEmpty
		return res, nil
	}

	reqA, okReqA := ParseRequestLine(lineA)
	reqB, okReqB := ParseRequestLine(lineB)
	forward := okReqA && IsStatusLine(lineB)
	backward := okReqB && IsStatusLine(lineA)

	switch {
	case forward && !backward:
		res.Line = reqA
	case backward && !forward:
		res.Request, res.Response = p.B, p.A
		res.Line = reqB
	default:
		return res, nil
	}

	if !c.Filter.Match(res.Line.Target) {
		res.Verdict = RejectURL
		return res, nil
	}
	res.Verdict = Accept
	return res, nil
}
