// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package query provides a simple query language for filtering correlated
// scan results.
//
// Query Syntax:
//
//	field=value           Exact match (case-insensitive, * wildcard)
//	field!=value          Not equal
//	field~=pattern        Regex match
//	field=value1,value2   IN list (comma-separated)
//
// Operators:
//
//	AND                   Both conditions must match (default)
//	OR                    Either condition must match
//
// Fields:
//
//	type                  Display entity type (IPv4-Addr, Malware, sim-Endpoint, ...)
//	name                  Entity name
//	value                 Observable value
//	key                   Canonical group key
//	found                 Whether any platform knows the entity (true/false/yes/no)
//	platform              Comma-joined contributing platform ids; use ~= to match one
//	ai                    Whether the entity was AI-discovered
//
// Examples:
//
//	type=Malware
//	found=false AND type=IPv4-Addr
//	type=Malware OR type=Intrusion-Set
//	name~=apt.* AND found=true
//	platform~=octi
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Operator represents a logical operator between conditions
type Operator string

const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// Comparator represents how to compare field values
type Comparator string

const (
	CmpEqual    Comparator = "="
	CmpNotEqual Comparator = "!="
	CmpRegex    Comparator = "~="
	CmpIn       Comparator = "IN"
)

// Condition represents a single query condition
type Condition struct {
	Field      string
	Comparator Comparator
	Value      string
	Values     []string       // For IN comparator
	Regex      *regexp.Regexp // Compiled regex for ~= comparator
}

// Query represents a parsed query with conditions and operators
type Query struct {
	Conditions []Condition
	Operators  []Operator // Operators between conditions (len = len(Conditions) - 1)
}

// Parse parses a query string into a Query struct
func Parse(input string) (*Query, error) {
	if input == "" {
		return &Query{}, nil
	}

	q := &Query{
		Conditions: []Condition{},
		Operators:  []Operator{},
	}

	tokens := tokenize(input)

	for i, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		upper := strings.ToUpper(token)
		if upper == "AND" || upper == "OR" {
			if len(q.Conditions) == 0 {
				return nil, fmt.Errorf("operator %s without preceding condition", token)
			}
			q.Operators = append(q.Operators, Operator(upper))
			continue
		}

		cond, err := parseCondition(token)
		if err != nil {
			return nil, fmt.Errorf("invalid condition at position %d: %w", i, err)
		}
		q.Conditions = append(q.Conditions, cond)
	}

	// Fill missing operators with AND (default)
	if len(q.Conditions) > 0 && len(q.Operators) != len(q.Conditions)-1 {
		for len(q.Operators) < len(q.Conditions)-1 {
			q.Operators = append(q.Operators, OpAnd)
		}
	}

	return q, nil
}

// tokenize splits the query string into tokens (conditions and operators)
func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder

	words := strings.Fields(input)
	for _, word := range words {
		upper := strings.ToUpper(word)
		if upper == "AND" || upper == "OR" {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, upper)
		} else {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(word)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// parseCondition parses a single condition like "field=value"
func parseCondition(s string) (Condition, error) {
	if idx := strings.Index(s, "~="); idx > 0 {
		field := strings.TrimSpace(s[:idx])
		value := strings.TrimSpace(s[idx+2:])
		re, err := regexp.Compile(value)
		if err != nil {
			return Condition{}, fmt.Errorf("invalid regex %q: %w", value, err)
		}
		return Condition{
			Field:      field,
			Comparator: CmpRegex,
			Value:      value,
			Regex:      re,
		}, nil
	}

	if idx := strings.Index(s, "!="); idx > 0 {
		field := strings.TrimSpace(s[:idx])
		value := strings.TrimSpace(s[idx+2:])
		return Condition{
			Field:      field,
			Comparator: CmpNotEqual,
			Value:      value,
		}, nil
	}

	if idx := strings.Index(s, "="); idx > 0 {
		field := strings.TrimSpace(s[:idx])
		value := strings.TrimSpace(s[idx+1:])

		if strings.Contains(value, ",") {
			values := strings.Split(value, ",")
			for i := range values {
				values[i] = strings.TrimSpace(values[i])
			}
			return Condition{
				Field:      field,
				Comparator: CmpIn,
				Values:     values,
			}, nil
		}

		return Condition{
			Field:      field,
			Comparator: CmpEqual,
			Value:      value,
		}, nil
	}

	return Condition{}, fmt.Errorf("invalid condition syntax: %q (expected field=value)", s)
}

// Matchable is implemented by rows the query can filter; correlated scan
// entities expose their fields through it.
type Matchable interface {
	GetField(field string) (string, bool)
}

// Matches evaluates the query against a Matchable row
func (q *Query) Matches(row Matchable) bool {
	if len(q.Conditions) == 0 {
		return true
	}

	result := q.evalCondition(q.Conditions[0], row)

	for i, op := range q.Operators {
		nextResult := q.evalCondition(q.Conditions[i+1], row)
		switch op {
		case OpAnd:
			result = result && nextResult
		case OpOr:
			result = result || nextResult
		}
	}

	return result
}

// evalCondition evaluates a single condition against a row
func (q *Query) evalCondition(cond Condition, row Matchable) bool {
	value, exists := row.GetField(cond.Field)

	switch cond.Comparator {
	case CmpEqual:
		if !exists {
			return false
		}
		// Support wildcard matching with *
		if strings.Contains(cond.Value, "*") {
			pattern := "^" + strings.ReplaceAll(regexp.QuoteMeta(cond.Value), `\*`, ".*") + "$"
			re, err := regexp.Compile(pattern)
			if err != nil {
				return value == cond.Value
			}
			return re.MatchString(value)
		}
		return equalValues(value, cond.Value)

	case CmpNotEqual:
		if !exists {
			return true // Non-existent field is not equal to anything
		}
		return !equalValues(value, cond.Value)

	case CmpRegex:
		if !exists {
			return false
		}
		return cond.Regex.MatchString(value)

	case CmpIn:
		if !exists {
			return false
		}
		for _, v := range cond.Values {
			if equalValues(value, v) {
				return true
			}
		}
		return false
	}

	return false
}

// equalValues compares case-insensitively. When both sides spell a boolean,
// the spellings are unified so found=yes matches a "true" field.
func equalValues(a, b string) bool {
	if ab, aok := parseBool(a); aok {
		if bb, bok := parseBool(b); bok {
			return ab == bb
		}
	}
	return strings.EqualFold(a, b)
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "yes":
		return true, true
	case "no":
		return false, true
	}
	b, err := strconv.ParseBool(s)
	return b, err == nil
}

// String returns the query as a string representation
func (q *Query) String() string {
	if len(q.Conditions) == 0 {
		return ""
	}

	var parts []string
	for i, cond := range q.Conditions {
		parts = append(parts, cond.String())
		if i < len(q.Operators) {
			parts = append(parts, string(q.Operators[i]))
		}
	}
	return strings.Join(parts, " ")
}

// String returns the condition as a string representation
func (c Condition) String() string {
	switch c.Comparator {
	case CmpIn:
		return fmt.Sprintf("%s=%s", c.Field, strings.Join(c.Values, ","))
	case CmpRegex:
		return fmt.Sprintf("%s~=%s", c.Field, c.Value)
	case CmpNotEqual:
		return fmt.Sprintf("%s!=%s", c.Field, c.Value)
	default:
		return fmt.Sprintf("%s=%s", c.Field, c.Value)
	}
}
