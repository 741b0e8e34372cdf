package flow

import (
	"sort"
	"time"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
)

// Pair is the two directions of one settled flow, in no particular role
// order. A always sorts before B by name.
type Pair struct {
	A capture.File
	B capture.File
}

// Files returns both members of the pair.
func (p Pair) Files() []capture.File {
	return []capture.File{p.A, p.B}
}

// Plan is the pairing decision for one scan cycle. Every input file lands
// in exactly one of Pairs, Deferred, OneWay or Active.
type Plan struct {
	// Pairs are settled flows with both directions present.
	Pairs []Pair
	// Deferred files are settled but their peer is still being written.
	Deferred []capture.File
	// OneWay files are settled and have no peer at all.
	OneWay []capture.File
	// Active files are not settled yet.
	Active []capture.File
}

// Pairer groups capture files into flows.
type Pairer struct {
	policy Settlement
}

// NewPairer creates a pairer using the given settlement policy.
func NewPairer(policy Settlement) *Pairer {
	return &Pairer{policy: policy}
}

// Plan pairs files as of now. Files are visited in name order and each name
// is considered at most once, so a peer consumed by an earlier pair is
// never counted twice. Plan does not touch the filesystem.
func (p *Pairer) Plan(files []capture.File, now time.Time) Plan {
	sorted := make([]capture.File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name.String() < sorted[j].Name.String()
	})

	all := make(map[capture.Name]capture.File, len(sorted))
	settled := make(map[capture.Name]bool, len(sorted))
	for _, f := range sorted {
		all[f.Name] = f
		settled[f.Name] = p.policy.Settled(f, now)
	}

	var plan Plan
	consumed := make(map[capture.Name]bool, len(sorted))
	for _, f := range sorted {
		if consumed[f.Name] {
			continue
		}
		if !settled[f.Name] {
			plan.Active = append(plan.Active, f)
			continue
		}

		peerName := f.Name.Peer()
		peer, exists := all[peerName]
		switch {
		case peerName == f.Name:
			// src == dst: a stream cannot be its own reverse.
			plan.OneWay = append(plan.OneWay, f)
		case exists && settled[peerName]:
			consumed[f.Name] = true
			consumed[peerName] = true
			plan.Pairs = append(plan.Pairs, Pair{A: f, B: peer})
		case exists:
			plan.Deferred = append(plan.Deferred, f)
		default:
			plan.OneWay = append(plan.OneWay, f)
		}
	}
	return plan
}
