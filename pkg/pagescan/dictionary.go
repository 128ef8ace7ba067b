// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package pagescan

import (
	"fmt"
	"os"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"gopkg.in/yaml.v3"
)

// Technique is one ATT&CK technique the dictionary recognizes, by external
// ID and by name.
type Technique struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Dictionary finds technique mentions in page text with a single
// Aho-Corasick automaton over every surface form.
type Dictionary struct {
	ac      ahocorasick.AhoCorasick
	toEntry []int
	entries []Technique
}

// NewDictionary compiles a dictionary from technique entries. Both the
// external ID and the name become patterns; entries without an ID are
// skipped.
func NewDictionary(entries []Technique) *Dictionary {
	d := &Dictionary{}
	var patterns []string
	index := make(map[string]int)

	addPattern := func(surface string, entry int) {
		key := strings.ToLower(strings.TrimSpace(surface))
		if key == "" {
			return
		}
		if _, exists := index[key]; exists {
			return
		}
		index[key] = len(patterns)
		patterns = append(patterns, key)
		d.toEntry = append(d.toEntry, entry)
	}

	for _, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			continue
		}
		idx := len(d.entries)
		d.entries = append(d.entries, e)
		addPattern(e.ID, idx)
		addPattern(e.Name, idx)
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	d.ac = builder.Build(patterns)
	return d
}

// LoadDictionary reads a technique list from a YAML file:
//
//	techniques:
//	  - id: T1059
//	    name: Command and Scripting Interpreter
func LoadDictionary(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading technique dictionary: %w", err)
	}
	var doc struct {
		Techniques []Technique `yaml:"techniques"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing technique dictionary %s: %w", path, err)
	}
	if len(doc.Techniques) == 0 {
		return nil, fmt.Errorf("technique dictionary %s lists no techniques", path)
	}
	return NewDictionary(doc.Techniques), nil
}

// Find returns the techniques mentioned in text, deduplicated in order of
// first appearance.
func (d *Dictionary) Find(text string) []Technique {
	matches := d.ac.FindAll(strings.ToLower(text))
	var out []Technique
	seen := make(map[int]bool)
	for _, m := range matches {
		entry := d.toEntry[m.Pattern()]
		if seen[entry] {
			continue
		}
		seen[entry] = true
		out = append(out, d.entries[entry])
	}
	return out
}

// Len reports how many techniques the dictionary knows.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// DefaultTechniques is the built-in seed used when no dictionary file is
// configured. It covers the techniques most often called out in public
// threat reporting.
func DefaultTechniques() []Technique {
	return []Technique{
		{ID: "T1003", Name: "OS Credential Dumping"},
		{ID: "T1005", Name: "Data from Local System"},
		{ID: "T1021", Name: "Remote Services"},
		{ID: "T1027", Name: "Obfuscated Files or Information"},
		{ID: "T1036", Name: "Masquerading"},
		{ID: "T1041", Name: "Exfiltration Over C2 Channel"},
		{ID: "T1047", Name: "Windows Management Instrumentation"},
		{ID: "T1053", Name: "Scheduled Task/Job"},
		{ID: "T1055", Name: "Process Injection"},
		{ID: "T1056", Name: "Input Capture"},
		{ID: "T1059", Name: "Command and Scripting Interpreter"},
		{ID: "T1068", Name: "Exploitation for Privilege Escalation"},
		{ID: "T1070", Name: "Indicator Removal"},
		{ID: "T1071", Name: "Application Layer Protocol"},
		{ID: "T1078", Name: "Valid Accounts"},
		{ID: "T1082", Name: "System Information Discovery"},
		{ID: "T1083", Name: "File and Directory Discovery"},
		{ID: "T1090", Name: "Proxy"},
		{ID: "T1105", Name: "Ingress Tool Transfer"},
		{ID: "T1110", Name: "Brute Force"},
		{ID: "T1112", Name: "Modify Registry"},
		{ID: "T1133", Name: "External Remote Services"},
		{ID: "T1190", Name: "Exploit Public-Facing Application"},
		{ID: "T1204", Name: "User Execution"},
		{ID: "T1486", Name: "Data Encrypted for Impact"},
		{ID: "T1490", Name: "Inhibit System Recovery"},
		{ID: "T1547", Name: "Boot or Logon Autostart Execution"},
		{ID: "T1548", Name: "Abuse Elevation Control Mechanism"},
		{ID: "T1566", Name: "Phishing"},
		{ID: "T1570", Name: "Lateral Tool Transfer"},
	}
}
