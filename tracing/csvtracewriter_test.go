package tracing

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CSVTraceWriter", func() {
	var (
		path   string
		writer *CSVTraceWriter
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "trace")
		writer = NewCSVTraceWriter(path)
		writer.Init()
	})

	It("should write a header and the flushed records", func() {
		writer.Write(StepRecord{
			ID: "Gen.0", Generator: "Gen", Index: 0,
			Seed: "1000", Square: "1000000", Offset: 1,
			Extracted: "0000", Result: "0", Bits: "0", Zero: true,
		})
		writer.Flush()

		content, err := os.ReadFile(path + ".csv")
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(string(content)), "\n")
		Expect(lines).To(Equal([]string{
			"ID,Generator,Index,Seed,Square,Offset,Extracted,Result,Bits,Short,Zero",
			"Gen.0,Gen,0,1000,1000000,1,0000,0,0,false,true",
		}))
	})

	It("should keep records buffered until flushed", func() {
		writer.Write(StepRecord{ID: "Gen.0"})

		content, err := os.ReadFile(path + ".csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(string(content), "\n")).To(Equal(1))
	})

	It("should refuse to overwrite an existing trace", func() {
		other := NewCSVTraceWriter(path)

		Expect(func() { other.Init() }).To(Panic())
	})
})
