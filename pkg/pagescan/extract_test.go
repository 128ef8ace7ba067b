// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package pagescan

import (
	"testing"
)

func hasCandidate(cands []Candidate, typ, value string) bool {
	for _, c := range cands {
		if c.Type == typ && c.Value == value {
			return true
		}
	}
	return false
}

func TestRefang(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"scheme", "hxxp://evil.com/drop", "http://evil.com/drop"},
		{"tls scheme", "hxxps://evil.com", "https://evil.com"},
		{"mixed case scheme", "hXXps://evil.com", "https://evil.com"},
		{"bracket dot", "evil[.]com", "evil.com"},
		{"paren dot", "evil(.)com", "evil.com"},
		{"brace dot", "evil{.}com", "evil.com"},
		{"bracket at", "admin[at]corp.example", "admin@corp.example"},
		{"combined", "hxxp://phish[.]example[.]org/login", "http://phish.example.org/login"},
		{"untouched", "plain http://ok.example.com text", "plain http://ok.example.com text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Refang(tt.in); got != tt.want {
				t.Errorf("Refang(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractByType(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantType  string
		wantValue string
	}{
		{"ipv4", "beaconing to 203.0.113.7 every hour", TypeIPv4, "203.0.113.7"},
		{"defanged ipv4", "contacted 198.51.100[.]23 over 443", TypeIPv4, "198.51.100.23"},
		{"ipv6", "listener on 2001:db8:85a3:0:0:8a2e:370:7334 port 8080", TypeIPv6, "2001:db8:85a3:0:0:8a2e:370:7334"},
		{"domain", "resolves through cdn.badsite.example", TypeDomain, "cdn.badsite.example"},
		{"defanged domain", "staging host evil[.]com rotated daily", TypeDomain, "evil.com"},
		{"url keeps path", "payload at https://evil.example.com/a/b.bin stage two", TypeURL, "https://evil.example.com/a/b.bin"},
		{"defanged url", "hxxps://phish[.]example[.]org/login captured", TypeURL, "https://phish.example.org/login"},
		{"email", "registrant was throwaway@mailbox.example", TypeEmail, "throwaway@mailbox.example"},
		{"md5", "sample md5 d41d8cd98f00b204e9800998ecf8427e", TypeFile, "d41d8cd98f00b204e9800998ecf8427e"},
		{"sha1 uppercase folds", "DA39A3EE5E6B4B0D3255BFEF95601890AFD80709 matched", TypeFile, "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"sha256", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855 dropped", TypeFile, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"cve lowercased input", "patch cve-2021-44228 now", TypeVulnerability, "CVE-2021-44228"},
		{"url trailing punctuation trimmed", "see https://evil.example.com/path.", TypeURL, "https://evil.example.com/path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := Extract(tt.text)
			if !hasCandidate(cands, tt.wantType, tt.wantValue) {
				t.Errorf("Extract(%q) = %v, want %s %q", tt.text, cands, tt.wantType, tt.wantValue)
			}
		})
	}
}

func TestExtractRejectsJunk(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		banType string
	}{
		{"overflowed octet", "build 999.1.2.3 shipped", TypeIPv4},
		{"filename is not a domain", "dropped invoice.exe on disk", TypeDomain},
		{"config file is not a domain", "edit settings.yaml to enable", TypeDomain},
		{"short hex is not a hash", "commit abc123 deployed", TypeFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, c := range Extract(tt.text) {
				if c.Type == tt.banType {
					t.Errorf("Extract(%q) produced unwanted %s %q", tt.text, c.Type, c.Value)
				}
			}
		})
	}
}

func TestExtractHashAlgorithms(t *testing.T) {
	text := "md5 d41d8cd98f00b204e9800998ecf8427e sha256 e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	var algos []string
	for _, c := range Extract(text) {
		if c.Type == TypeFile {
			algos = append(algos, c.Algo)
		}
	}
	if len(algos) != 2 {
		t.Fatalf("file candidates = %d, want 2", len(algos))
	}
	if algos[0] != "SHA-256" || algos[1] != "MD5" {
		t.Errorf("algos = %v, want SHA-256 then MD5", algos)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	text := "1.2.3.4 contacted, then 1.2.3.4 again, and EVIL.example then evil.example"
	cands := Extract(text)

	var ips, domains int
	for _, c := range cands {
		switch c.Type {
		case TypeIPv4:
			ips++
		case TypeDomain:
			domains++
		}
	}
	if ips != 1 {
		t.Errorf("ipv4 candidates = %d, want 1", ips)
	}
	if domains != 1 {
		t.Errorf("domain candidates = %d, want case-insensitive dedup to 1", domains)
	}
}

func TestExtractKeepsFirstSeenOrder(t *testing.T) {
	cands := Extract("first.example then second.example then first.example")
	var domains []string
	for _, c := range cands {
		if c.Type == TypeDomain {
			domains = append(domains, c.Value)
		}
	}
	if len(domains) != 2 || domains[0] != "first.example" || domains[1] != "second.example" {
		t.Errorf("domains = %v, want first-seen order", domains)
	}
}
