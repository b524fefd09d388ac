// Package parse turns raw model output into a structured answer,
// tolerating markdown-fenced JSON. Retry is the caller's concern; the
// parser either succeeds or fails with a *ParseError.
package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/fiscalia-labs/casetriage/internal/models"
)

// ParseError reports that response text was not valid JSON even after
// fenced-block extraction. Both texts are kept for postmortems.
type ParseError struct {
	Raw       string
	Extracted string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON response: %v (original: %q, extracted: %q)", e.Err, e.Raw, e.Extracted)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Response decodes raw model output into an Answer. It first attempts a
// strict decode of the full text, then falls back to the interior of the
// first fenced code block.
func Response(raw string) (models.Answer, error) {
	var answer models.Answer
	if err := json.Unmarshal([]byte(raw), &answer); err == nil {
		return answer, nil
	}

	extracted := extractCandidate(raw)
	if err := json.Unmarshal([]byte(extracted), &answer); err != nil {
		return nil, &ParseError{Raw: raw, Extracted: extracted, Err: err}
	}
	return answer, nil
}

// extractCandidate returns the interior of the first fenced code block,
// or the trimmed input when no fence is present.
func extractCandidate(raw string) string {
	if block, ok := FencedBlock(raw, ""); ok {
		return strings.TrimSpace(block)
	}
	return strings.TrimSpace(raw)
}

// FencedBlock returns the content of the first fenced code block in a
// markdown document. When lang is non-empty only blocks tagged with that
// language hint match.
func FencedBlock(doc string, lang string) (string, bool) {
	source := []byte(doc)
	root := goldmark.New().Parser().Parse(gmtext.NewReader(source))

	var buf bytes.Buffer
	found := false
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if lang != "" && string(fcb.Language(source)) != lang {
			return ast.WalkContinue, nil
		}
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(source[seg.Start:seg.Stop])
		}
		found = true
		return ast.WalkStop, nil
	})

	if !found {
		return "", false
	}
	return buf.String(), true
}
