// Package approval parses operator approval commands of the form
// "GO REPAIR: 1,3-5,7" into a bounded set of plan step indices.
// Parsing is pure; applying the result to a case happens in exactly
// one guarded method (workcase.Case.ActivateLock).
package approval

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrNotApproval is returned when the input does not start with the
// approval keyword at all. Such input belongs to the conversation,
// not to the execution gate.
var ErrNotApproval = errors.New("not an approval command")

// SyntaxError is returned when the approval keyword is present but
// the step list does not match the grammar. A syntax error must never
// partially apply: the caller gets no steps at all.
type SyntaxError struct {
	Input  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid approval command %q: %s (expected e.g. \"GO REPAIR: 1,3-5,7\")", e.Input, e.Reason)
}

// maxSteps bounds the total number of approved steps so an absurd
// range like 1-1000000 cannot allocate unbounded memory.
const maxSteps = 256

var keywordRe = regexp.MustCompile(`(?i)^\s*go\s+repair\s*:\s*(.*?)\s*$`)

// Parse extracts the approved step indices from an operator command.
// It returns ErrNotApproval when the keyword is absent, a SyntaxError
// when the keyword is present but the list is malformed, and the
// ordered, de-duplicated step indices otherwise.
func Parse(input string) ([]int, error) {
	normalized := norm.NFC.String(input)

	m := keywordRe.FindStringSubmatch(normalized)
	if m == nil {
		return nil, ErrNotApproval
	}

	list := m[1]
	if list == "" {
		return nil, &SyntaxError{Input: input, Reason: "missing step list"}
	}

	seen := make(map[int]struct{})
	var steps []int
	appendStep := func(step int) error {
		if _, dup := seen[step]; dup {
			return nil
		}
		if len(steps) >= maxSteps {
			return &SyntaxError{Input: input, Reason: fmt.Sprintf("more than %d steps", maxSteps)}
		}
		seen[step] = struct{}{}
		steps = append(steps, step)
		return nil
	}

	for _, token := range strings.Split(list, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, &SyntaxError{Input: input, Reason: "empty list element"}
		}

		lo, hi, err := parseToken(token)
		if err != nil {
			return nil, &SyntaxError{Input: input, Reason: err.Error()}
		}
		for step := lo; step <= hi; step++ {
			if err := appendStep(step); err != nil {
				return nil, err
			}
		}
	}

	return steps, nil
}

// parseToken parses a single list element: either a positive integer
// or an inclusive range "a-b" with a <= b.
func parseToken(token string) (int, int, error) {
	if lo, hi, isRange := strings.Cut(token, "-"); isRange {
		start, err := parseStep(strings.TrimSpace(lo))
		if err != nil {
			return 0, 0, err
		}
		end, err := parseStep(strings.TrimSpace(hi))
		if err != nil {
			return 0, 0, err
		}
		if end < start {
			return 0, 0, fmt.Errorf("descending range %q", token)
		}
		return start, end, nil
	}

	step, err := parseStep(token)
	if err != nil {
		return 0, 0, err
	}
	return step, step, nil
}

func parseStep(s string) (int, error) {
	step, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a step number: %q", s)
	}
	if step <= 0 {
		return 0, fmt.Errorf("step number must be positive: %d", step)
	}
	return step, nil
}
