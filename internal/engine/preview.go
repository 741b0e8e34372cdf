package engine

import (
	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/flow"
	"github.com/SmitUplenchwar2687/httpcopy/internal/framing"
)

// Preview is what a cycle would do right now, without moving anything.
type Preview struct {
	Skipped    int
	Foreign    []capture.File
	Active     []capture.File
	Deferred   []capture.File
	OneWay     []capture.File
	Classified []framing.Result
	Unreadable []flow.Pair
}

// Preview runs catalog, pairing and classification read-only.
func (e *Engine) Preview() (Preview, error) {
	scan, err := e.catalog.Scan()
	if err != nil {
		return Preview{}, err
	}
	plan := e.pairer.Plan(scan.Valid, e.clock.Now())

	pv := Preview{
		Skipped:  scan.Skipped,
		Foreign:  scan.Foreign,
		Active:   plan.Active,
		Deferred: plan.Deferred,
		OneWay:   plan.OneWay,
	}
	for _, p := range plan.Pairs {
		res, err := e.classifier.Classify(p)
		if err != nil {
			pv.Unreadable = append(pv.Unreadable, p)
			continue
		}
		pv.Classified = append(pv.Classified, res)
	}
	return pv, nil
}
