// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package pagescan

import (
	"context"
	"log/slog"
	"strings"

	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/platform"
)

// Scanner extracts indicators from page text and resolves them against
// every configured platform. A platform that cannot answer degrades to
// "not found" for its share; it never aborts the scan.
type Scanner struct {
	caller bridge.Caller
	snap   *platform.Snapshot
	dict   *Dictionary
	log    *slog.Logger
}

// NewScanner wires a scanner. A nil dictionary falls back to the built-in
// technique seed, a nil logger discards.
func NewScanner(caller bridge.Caller, snap *platform.Snapshot, dict *Dictionary, log *slog.Logger) *Scanner {
	if snap == nil {
		snap = platform.EmptySnapshot()
	}
	if dict == nil {
		dict = NewDictionary(DefaultTechniques())
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scanner{caller: caller, snap: snap, dict: dict, log: log}
}

// Techniques returns the technique mentions found in text, for seeding
// scenario drafts.
func (s *Scanner) Techniques(text string) []Technique {
	return s.dict.Find(text)
}

// Scan extracts candidates from text and asks each platform which of them
// it knows. Every candidate appears in the batch at least once; platform
// answers add found detections on top, and correlation merges the two.
func (s *Scanner) Scan(ctx context.Context, text string) correlate.Batch {
	candidates := Extract(text)
	techniques := s.dict.Find(text)
	s.log.Info("page scanned", "candidates", len(candidates), "techniques", len(techniques))

	var batch correlate.Batch
	for _, c := range candidates {
		det := correlate.Detection{Type: c.Type, Name: c.Value, Value: c.Value}
		if c.Algo != "" {
			det.Data = map[string]any{"hash_algorithm": c.Algo}
		}
		if c.Type == TypeVulnerability {
			batch.Vulnerabilities = append(batch.Vulnerabilities, det)
		} else {
			batch.Observables = append(batch.Observables, det)
		}
	}
	for _, tq := range techniques {
		batch.Objects = append(batch.Objects, correlate.Detection{
			Type:  "Attack-Pattern",
			Name:  tq.Name,
			Value: tq.ID,
		})
	}

	terms := searchTerms(candidates, techniques)
	if len(terms) == 0 {
		return batch
	}
	for _, pl := range s.snap.All() {
		for _, det := range s.lookup(ctx, pl, terms) {
			appendByCategory(&batch, pl.Kind, det)
		}
	}
	return batch
}

func searchTerms(candidates []Candidate, techniques []Technique) []string {
	terms := make([]string, 0, len(candidates)+2*len(techniques))
	for _, c := range candidates {
		terms = append(terms, c.Value)
	}
	for _, tq := range techniques {
		terms = append(terms, tq.ID)
		if tq.Name != "" {
			terms = append(terms, tq.Name)
		}
	}
	return terms
}

// lookup asks one platform about all terms in a single call.
func (s *Scanner) lookup(ctx context.Context, pl platform.Platform, terms []string) []correlate.Detection {
	reqType := bridge.SearchIntel
	if pl.Kind == platform.KindSim {
		reqType = bridge.SearchSim
	}
	resp, err := s.caller.Call(ctx, bridge.Request{
		Type:       reqType,
		PlatformID: pl.ID,
		Payload:    map[string]any{"terms": terms},
	})
	if err != nil {
		s.log.Warn("platform unreachable during scan", "platform", pl.ID, "err", err)
		return nil
	}
	if err := resp.Err(); err != nil {
		s.log.Warn("platform rejected scan lookup", "platform", pl.ID, "err", err)
		return nil
	}
	entities, err := resp.DecodeEntities()
	if err != nil {
		s.log.Warn("unreadable scan reply", "platform", pl.ID, "err", err)
		return nil
	}

	out := make([]correlate.Detection, 0, len(entities))
	for _, e := range entities {
		name := e.Name()
		if name == "" && e.ID() == "" {
			continue
		}
		out = append(out, correlate.Detection{
			Type:       e.EntityType(),
			Name:       name,
			Value:      e.First("observable_value", "value"),
			Found:      true,
			EntityID:   e.ID(),
			PlatformID: pl.ID,
			Kind:       pl.Kind,
			Data:       e.Map(),
		})
	}
	return out
}

func appendByCategory(batch *correlate.Batch, kind platform.Kind, det correlate.Detection) {
	switch {
	case kind == platform.KindSim:
		batch.SimEntities = append(batch.SimEntities, det)
	case strings.EqualFold(det.Type, TypeVulnerability) ||
		strings.HasPrefix(strings.ToUpper(det.Ident()), "CVE-"):
		batch.Vulnerabilities = append(batch.Vulnerabilities, det)
	case isObservableType(det.Type):
		batch.Observables = append(batch.Observables, det)
	default:
		batch.Objects = append(batch.Objects, det)
	}
}

func isObservableType(t string) bool {
	switch t {
	case TypeIPv4, TypeIPv6, TypeDomain, TypeURL, TypeEmail, TypeFile:
		return true
	}
	return strings.HasSuffix(t, "-Addr")
}
