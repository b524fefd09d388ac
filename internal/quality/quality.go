// Package quality decides whether a model answer is trustworthy enough
// to accept. The gate is a pure function of a single result; it has no
// memory of prior attempts.
package quality

import (
	"fmt"

	"github.com/fiscalia-labs/casetriage/internal/models"
)

// ConfidenceThreshold is the minimum confidence an answer needs to be
// accepted without a retry.
const ConfidenceThreshold = 0.7

// Decision is the gate's verdict on one dispatch result.
type Decision int

const (
	Accept Decision = iota
	Retry
)

func (d Decision) String() string {
	if d == Accept {
		return "accept"
	}
	return "retry"
}

// Retry reasons, in evaluation order. Low-confidence reasons carry the
// observed value, e.g. "low-confidence:0.65".
const (
	ReasonTransportOrParse = "transport-or-parse-failure"
	ReasonVerdictMissing   = "verdict-missing"
	reasonLowConfidence    = "low-confidence:%.2f"
)

// Evaluate classifies a dispatch result. Rules are checked in order and
// the first match wins:
//  1. the attempt failed at the transport or parse level
//  2. the verdict field is null or absent
//  3. the confidence score is numeric and below the threshold
//
// Anything else is accepted.
func Evaluate(res *models.Result) (Decision, string) {
	if res == nil || !res.Success {
		return Retry, ReasonTransportOrParse
	}
	if res.Response.Verdict() == nil {
		return Retry, ReasonVerdictMissing
	}
	if c, ok := res.Response.Confidence(); ok && c < ConfidenceThreshold {
		return Retry, fmt.Sprintf(reasonLowConfidence, c)
	}
	return Accept, ""
}
