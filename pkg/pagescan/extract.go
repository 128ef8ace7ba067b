// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package pagescan turns page text into detections: it extracts indicator
// candidates and ATT&CK technique mentions, asks every configured platform
// which of them it knows, and assembles the answers into a batch for
// correlation.
package pagescan

import (
	"regexp"
	"strings"
)

// Candidate is one indicator lifted from page text.
type Candidate struct {
	Type  string
	Value string
	// Algo is set for StixFile candidates (MD5, SHA-1, SHA-256).
	Algo string
}

// Observable type names follow the STIX cyber-observable vocabulary so
// candidates line up with what intel platforms return.
const (
	TypeIPv4          = "IPv4-Addr"
	TypeIPv6          = "IPv6-Addr"
	TypeDomain        = "Domain-Name"
	TypeURL           = "Url"
	TypeEmail         = "Email-Addr"
	TypeFile          = "StixFile"
	TypeVulnerability = "Vulnerability"
)

// maxCandidates bounds extraction on pathological pages.
const maxCandidates = 400

var (
	reHxxps = regexp.MustCompile(`(?i)\bhxxps://`)
	reHxxp  = regexp.MustCompile(`(?i)\bhxxp://`)

	defangDots = strings.NewReplacer(
		"[.]", ".", "(.)", ".", "{.}", ".",
		"[:]", ":", "[at]", "@", "(at)", "@", "[@]", "@",
	)

	reIPv4   = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`)
	reIPv6   = regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){2,7}[0-9a-fA-F]{1,4}\b`)
	reURL    = regexp.MustCompile(`\bhttps?://[^\s"'<>)\]}]+`)
	reEmail  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	reDomain = regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\b`)
	reSHA256 = regexp.MustCompile(`\b[a-fA-F0-9]{64}\b`)
	reSHA1   = regexp.MustCompile(`\b[a-fA-F0-9]{40}\b`)
	reMD5    = regexp.MustCompile(`\b[a-fA-F0-9]{32}\b`)
	reCVE    = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,7}\b`)
)

// fileExtensions are trailing labels that mark a domain-shaped token as a
// filename.
var fileExtensions = map[string]bool{
	"exe": true, "dll": true, "bat": true, "ps1": true, "sh": true,
	"py": true, "js": true, "css": true, "html": true, "htm": true,
	"php": true, "jpg": true, "jpeg": true, "png": true, "gif": true,
	"svg": true, "ico": true, "pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true, "zip": true, "rar": true, "tar": true,
	"gz": true, "txt": true, "log": true, "yaml": true, "yml": true,
	"json": true, "xml": true, "md": true, "bin": true, "dat": true,
	"tmp": true, "cfg": true, "conf": true, "ini": true, "msi": true,
	"iso": true, "dmg": true, "sys": true,
}

// Refang undoes the standard defanging conventions threat reports use so
// the extraction regexes see live indicators.
func Refang(text string) string {
	text = reHxxps.ReplaceAllString(text, "https://")
	text = reHxxp.ReplaceAllString(text, "http://")
	return defangDots.Replace(text)
}

// Extract pulls indicator candidates out of page text. Values are
// deduplicated case-insensitively per type, in order of first appearance.
func Extract(text string) []Candidate {
	text = Refang(text)

	var out []Candidate
	seen := make(map[string]bool)
	add := func(c Candidate) {
		if len(out) >= maxCandidates {
			return
		}
		key := c.Type + "\x00" + strings.ToLower(c.Value)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, c)
	}

	for _, v := range reURL.FindAllString(text, -1) {
		add(Candidate{Type: TypeURL, Value: strings.TrimRight(v, ".,;")})
	}
	for _, v := range reEmail.FindAllString(text, -1) {
		add(Candidate{Type: TypeEmail, Value: v})
	}
	for _, v := range reDomain.FindAllString(text, -1) {
		if isFilename(v) {
			continue
		}
		add(Candidate{Type: TypeDomain, Value: v})
	}
	for _, v := range reIPv4.FindAllString(text, -1) {
		add(Candidate{Type: TypeIPv4, Value: v})
	}
	for _, v := range reIPv6.FindAllString(text, -1) {
		add(Candidate{Type: TypeIPv6, Value: v})
	}
	for _, v := range reSHA256.FindAllString(text, -1) {
		add(Candidate{Type: TypeFile, Value: strings.ToLower(v), Algo: "SHA-256"})
	}
	for _, v := range reSHA1.FindAllString(text, -1) {
		add(Candidate{Type: TypeFile, Value: strings.ToLower(v), Algo: "SHA-1"})
	}
	for _, v := range reMD5.FindAllString(text, -1) {
		add(Candidate{Type: TypeFile, Value: strings.ToLower(v), Algo: "MD5"})
	}
	for _, v := range reCVE.FindAllString(text, -1) {
		add(Candidate{Type: TypeVulnerability, Value: strings.ToUpper(v)})
	}
	return out
}

func isFilename(v string) bool {
	i := strings.LastIndexByte(v, '.')
	if i < 0 {
		return false
	}
	return fileExtensions[strings.ToLower(v[i+1:])]
}
