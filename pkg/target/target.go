// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of s3touch.
//
// s3touch is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package target decides where a bucket's synthetic events are delivered.
package target

import (
	"github.com/jeremyhahn/s3touch/pkg/common"
)

// Kind is the type of a notification destination.
type Kind int

const (
	// KindTopic is an SNS topic, identified by ARN.
	KindTopic Kind = iota + 1
	// KindFunction is a Lambda function, identified by name or ARN.
	KindFunction
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTopic:
		return "topic"
	case KindFunction:
		return "lambda"
	default:
		return "unknown"
	}
}

// Target is exactly one resolved destination.
type Target struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// Topic returns a topic target.
func Topic(arn string) Target {
	return Target{Kind: KindTopic, ID: arn}
}

// Function returns a function target.
func Function(name string) Target {
	return Target{Kind: KindFunction, ID: name}
}

// IsZero reports whether no target is set.
func (t Target) IsZero() bool {
	return t.Kind == 0 && t.ID == ""
}

func (t Target) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Kind.String() + ":" + t.ID
}

// Override carries the explicit destinations given by the caller.
type Override struct {
	Topic    string
	Function string
}

// Validate rejects an override naming both a topic and a function.
func (o Override) Validate() error {
	if o.Topic != "" && o.Function != "" {
		return common.ErrConflictingTargets
	}
	return nil
}

// Target returns the explicit target, if any.
func (o Override) Target() (Target, bool) {
	switch {
	case o.Topic != "":
		return Topic(o.Topic), true
	case o.Function != "":
		return Function(o.Function), true
	default:
		return Target{}, false
	}
}
