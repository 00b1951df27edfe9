package tracing

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter is a trace writer that stores step records in a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	records    []StepRecord
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. The ".csv" extension is
// appended to path.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the path of the CSV file, without the extension. It is only
// final after Init.
func (t *CSVTraceWriter) Path() string {
	return t.path
}

// Init creates the CSV file. It panics if the file already exists.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "msq_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file,
		"ID,Generator,Index,Seed,Square,Offset,Extracted,Result,Bits,Short,Zero\n")

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Write buffers a record and flushes when the buffer is full.
func (t *CSVTraceWriter) Write(record StepRecord) {
	t.records = append(t.records, record)
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered records to the CSV file.
func (t *CSVTraceWriter) Flush() {
	for _, r := range t.records {
		_, err := fmt.Fprintf(t.file, "%s,%s,%d,%s,%s,%d,%s,%s,%s,%t,%t\n",
			r.ID,
			r.Generator,
			r.Index,
			r.Seed,
			r.Square,
			r.Offset,
			r.Extracted,
			r.Result,
			r.Bits,
			r.Short,
			r.Zero,
		)
		if err != nil {
			panic(err)
		}
	}

	t.records = nil
}
