package engine

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/flow"
	"github.com/SmitUplenchwar2687/httpcopy/internal/framing"
	"github.com/SmitUplenchwar2687/httpcopy/internal/fsmove"
	"github.com/SmitUplenchwar2687/httpcopy/internal/recorder"
	"github.com/SmitUplenchwar2687/httpcopy/internal/replay"
	"github.com/SmitUplenchwar2687/httpcopy/internal/triage"
)

// Report counts what one cycle did.
type Report struct {
	Scanned     int
	Skipped     int
	Quarantined map[triage.Category]int // files moved, by category
	Deferred    int
	Active      int
	Forwarded   int // flows claimed and dispatched
	Failed      int // files left in place after a read or move failure
}

// Touched is the number of files moved or left in place because of an error.
func (r Report) Touched() int {
	n := r.Forwarded*2 + r.Failed
	for _, c := range r.Quarantined {
		n += c
	}
	return n
}

// Fields renders the report for logging.
func (r Report) Fields() log.Fields {
	f := log.Fields{
		"scanned":   r.Scanned,
		"deferred":  r.Deferred,
		"active":    r.Active,
		"forwarded": r.Forwarded,
		"failed":    r.Failed,
	}
	for c, n := range r.Quarantined {
		f[string(c)] = n
	}
	return f
}

// Cycle runs one scan over the working directory. Per-file and per-flow
// failures are logged and counted; the only error returned is failure to
// list the directory.
func (e *Engine) Cycle(ctx context.Context) (Report, error) {
	rep := Report{Quarantined: make(map[triage.Category]int)}

	scan, err := e.catalog.Scan()
	if err != nil {
		return rep, err
	}
	rep.Scanned = len(scan.Valid) + len(scan.Foreign)
	rep.Skipped = scan.Skipped

	for _, f := range scan.Foreign {
		e.quarantine(&rep, triage.InvalidServer, f)
	}

	plan := e.pairer.Plan(scan.Valid, e.clock.Now())
	rep.Active = len(plan.Active)
	rep.Deferred = len(plan.Deferred)
	for _, f := range plan.Deferred {
		log.WithField("file", f.Base()).Debug("peer still active, deferring")
	}
	for _, f := range plan.OneWay {
		e.quarantine(&rep, triage.InvalidOneWay, f)
	}

	for _, p := range plan.Pairs {
		if ctx.Err() != nil {
			break
		}
		e.settle(&rep, p)
	}
	return rep, nil
}

func (e *Engine) settle(rep *Report, p flow.Pair) {
	res, err := e.classifier.Classify(p)
	if err != nil {
		log.WithError(err).WithField("file", p.A.Base()).Warn("reading flow, retrying next cycle")
		rep.Failed += 2
		return
	}

	switch res.Verdict {
	case framing.Accept:
		e.forward(rep, res)
	case framing.RejectURL:
		e.quarantine(rep, triage.InvalidURL, res.Request, res.Response)
	default:
		e.quarantine(rep, triage.Invalid, p.A, p.B)
	}
}

// quarantine moves files into category c as a unit: if any move fails the
// earlier ones are moved back and the whole group stays for the next cycle.
func (e *Engine) quarantine(rep *Report, c triage.Category, files ...capture.File) {
	dests := make([]string, 0, len(files))
	for _, f := range files {
		dest, err := e.sink.Quarantine(f, c)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"file": f.Base(), "category": c}).Error("quarantine failed")
			for i, moved := range dests {
				if rerr := fsmove.Rename(moved, files[i].Path); rerr != nil {
					log.WithError(rerr).WithField("file", files[i].Base()).Error("restoring quarantined file")
				}
			}
			rep.Failed += len(files)
			return
		}
		dests = append(dests, dest)
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Base()
		log.WithFields(log.Fields{"file": names[i], "category": c}).Info("quarantined")
	}
	rep.Quarantined[c] += len(files)

	ev := recorder.NewEvent(recorder.KindQuarantined, e.clock.Now())
	ev.Category = string(c)
	ev.Files = names
	ev.Dest = dests
	ev.Flow = files[0].Name.Describe()
	ev.Conn = files[0].Name.ConnKey()
	e.emit(ev)
}

func (e *Engine) forward(rep *Report, res framing.Result) {
	art, err := e.archive.Claim(res, e.clock.Now())
	if err != nil {
		log.WithError(err).WithField("file", res.Request.Base()).Error("claim failed, retrying next cycle")
		rep.Failed += 2
		return
	}

	log.WithFields(log.Fields{
		"request": art.RequestLine,
		"file":    res.Request.Base(),
	}).Info("forwarding")
	rep.Forwarded++

	ev := recorder.NewEvent(recorder.KindForwarded, art.ClaimedAt)
	ev.Files = []string{res.Request.Base(), res.Response.Base()}
	ev.Dest = []string{art.Request, art.Response}
	ev.Flow = res.Request.Name.Describe()
	ev.Conn = art.Conn
	ev.RequestLine = art.RequestLine
	ev.Artifact = art.ID.String()
	ev.Shadow = e.shadow
	e.emit(ev)

	e.dispatcher.Submit(art)
}

// completed runs on the replay goroutine.
func (e *Engine) completed(c replay.Completion) {
	art := c.Result.Artifact
	kind := recorder.KindReplayed
	if c.Err != nil {
		kind = recorder.KindReplayFailed
	}

	ev := recorder.NewEvent(kind, e.clock.Now())
	ev.Dest = []string{art.ShadowResponse}
	ev.Conn = art.Conn
	ev.RequestLine = art.RequestLine
	ev.Artifact = art.ID.String()
	ev.Shadow = e.shadow
	ev.Bytes = c.Result.Bytes
	ev.Duration = c.Result.Duration

	fields := log.Fields{
		"request":  art.RequestLine,
		"shadow":   e.shadow,
		"bytes":    c.Result.Bytes,
		"duration": c.Result.Duration,
	}
	if c.Err != nil {
		ev.Error = c.Err.Error()
		log.WithError(c.Err).WithFields(fields).WithField("stage", c.Result.Stage).Warn("replay failed")
	} else {
		log.WithFields(fields).Info("replayed")
	}
	e.emit(ev)
}
