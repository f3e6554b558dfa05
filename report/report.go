// Package report converts run results into the records handed to the
// external problem reporter and encodes them as CBOR.
package report

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/Troppydash/plang-interpreter-sub000/vm"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Stage says which half of the pipeline produced a report.
type Stage uint8

const (
	StageCompile Stage = iota + 1
	StageRuntime
)

func (s Stage) String() string {
	switch s {
	case StageCompile:
		return "compile"
	case StageRuntime:
		return "runtime"
	}
	return "unknown"
}

// Location is a source span in wire form.
type Location struct {
	File        string `cbor:"1,keyasint"`
	StartLine   int    `cbor:"2,keyasint"`
	StartColumn int    `cbor:"3,keyasint"`
	EndLine     int    `cbor:"4,keyasint"`
	EndColumn   int    `cbor:"5,keyasint"`
}

// Problem is one diagnostic in wire form.
type Problem struct {
	Code     string    `cbor:"1,keyasint"`
	Message  string    `cbor:"2,keyasint"`
	Hint     string    `cbor:"3,keyasint"`
	Location *Location `cbor:"4,keyasint,omitempty"`
}

// Frame is one trace entry in wire form.
type Frame struct {
	Name     string    `cbor:"1,keyasint"`
	Location *Location `cbor:"2,keyasint,omitempty"`
}

// Report is everything the problem reporter needs about one run. Frames
// are ordered most-recent-last, the order they are displayed in.
type Report struct {
	RunID       uuid.UUID `cbor:"1,keyasint"`
	Stage       Stage     `cbor:"2,keyasint"`
	ProgramHash [32]byte  `cbor:"3,keyasint"`
	Problems    []Problem `cbor:"4,keyasint"`
	Frames      []Frame   `cbor:"5,keyasint,omitempty"`
	Created     int64     `cbor:"6,keyasint"` // unix milliseconds
}

// HasProblems reports whether the report carries any diagnostics.
func (r *Report) HasProblems() bool {
	return len(r.Problems) > 0
}

// ProgramHash identifies a program by the SHA-256 of its dump.
func ProgramHash(p *vm.Program) [32]byte {
	if p == nil {
		return [32]byte{}
	}
	return sha256.Sum256([]byte(p.Dump()))
}

// FromProblems builds a compile-stage report.
func FromProblems(p *vm.Program, problems []vm.Problem) *Report {
	return &Report{
		RunID:       uuid.New(),
		Stage:       StageCompile,
		ProgramHash: ProgramHash(p),
		Problems:    convertProblems(problems),
		Created:     time.Now().UnixMilli(),
	}
}

// FromResult builds a runtime-stage report from an execution result.
func FromResult(p *vm.Program, res vm.Result) *Report {
	r := &Report{
		RunID:       uuid.New(),
		Stage:       StageRuntime,
		ProgramHash: ProgramHash(p),
		Problems:    convertProblems(res.Problems),
		Created:     time.Now().UnixMilli(),
	}
	for _, f := range res.Trace.MostRecentLast() {
		r.Frames = append(r.Frames, Frame{Name: f.Name, Location: location(f.Span)})
	}
	return r
}

func convertProblems(problems []vm.Problem) []Problem {
	out := make([]Problem, len(problems))
	for i, p := range problems {
		out[i] = Problem{
			Code:     p.Code,
			Message:  p.Message,
			Hint:     string(p.Hint),
			Location: location(p.Span),
		}
	}
	return out
}

func location(s *vm.Span) *Location {
	if s == nil {
		return nil
	}
	return &Location{
		File:        s.File,
		StartLine:   s.Start.Line,
		StartColumn: s.Start.Column,
		EndLine:     s.End.Line,
		EndColumn:   s.End.Column,
	}
}

// Marshal serializes a Report to CBOR bytes.
func Marshal(r *Report) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// Unmarshal deserializes a Report from CBOR bytes.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: unmarshal: %w", err)
	}
	return &r, nil
}

// Render formats the report as plain text: one line per problem followed
// by the trace.
func Render(r *Report) string {
	var sb strings.Builder
	for _, p := range r.Problems {
		if p.Location != nil {
			fmt.Fprintf(&sb, "%s:%d:%d: ", p.Location.File, p.Location.StartLine, p.Location.StartColumn)
		}
		fmt.Fprintf(&sb, "%s error[%s]: %s (%s)\n", r.Stage, p.Code, p.Message, p.Hint)
	}
	for _, f := range r.Frames {
		if f.Location != nil {
			fmt.Fprintf(&sb, "  in %s at %s:%d:%d\n", f.Name, f.Location.File, f.Location.StartLine, f.Location.StartColumn)
		} else {
			fmt.Fprintf(&sb, "  in %s\n", f.Name)
		}
	}
	return sb.String()
}
