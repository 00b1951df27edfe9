// Package tracing records what a generator does, step by step.
package tracing

import (
	"strconv"

	"github.com/sarchlab/middlesquare/generator"
	"github.com/sarchlab/middlesquare/hooking"
)

// StepRecord is the flat form of a generator step that trace writers store.
type StepRecord struct {
	ID        string
	Generator string
	Index     int
	Seed      string
	Square    string
	Offset    int
	Extracted string
	Result    string
	Bits      string
	Short     bool
	Zero      bool
}

// NewStepRecord flattens a step produced by the named generator.
func NewStepRecord(generatorName string, step generator.Step) StepRecord {
	return StepRecord{
		ID:        generatorName + "." + strconv.Itoa(step.Index),
		Generator: generatorName,
		Index:     step.Index,
		Seed:      step.Seed.String(),
		Square:    step.SquareDigits,
		Offset:    step.Offset,
		Extracted: step.Extracted,
		Result:    step.Result.String(),
		Bits:      step.Bits,
		Short:     step.Short,
		Zero:      step.Zero,
	}
}

// TraceWriter stores step records.
type TraceWriter interface {
	Init()
	Write(record StepRecord)
	Flush()
}

// StepTracer is a hook that sends every generator step to a TraceWriter.
type StepTracer struct {
	writer TraceWriter
}

// NewStepTracer creates a StepTracer that writes to writer. The writer must be
// initialized by the caller.
func NewStepTracer(writer TraceWriter) *StepTracer {
	return &StepTracer{writer: writer}
}

// Func writes the step carried by the hook context.
func (t *StepTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != generator.HookPosStep {
		return
	}

	step, ok := ctx.Item.(generator.Step)
	if !ok {
		return
	}

	t.writer.Write(NewStepRecord(ctx.Domain.Name(), step))
}
