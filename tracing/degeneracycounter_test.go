package tracing

import (
	"context"
	"io"
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/middlesquare/generator"
)

var _ = Describe("DegeneracyCounter", func() {
	It("should count every hook position", func() {
		counter := NewDegeneracyCounter()

		g, err := generator.MakeBuilder().
			WithSeed(big.NewInt(1000)).
			WithIterations(5).
			WithHook(counter).
			Build("Gen")
		Expect(err).NotTo(HaveOccurred())

		err = g.Run(context.Background(), io.Discard)
		Expect(err).NotTo(HaveOccurred())

		Expect(counter.Count(generator.HookPosStep)).To(Equal(uint64(5)))
		Expect(counter.Count(generator.HookPosShortExtraction)).
			To(Equal(uint64(4)))
		Expect(counter.Count(generator.HookPosZeroLock)).To(Equal(uint64(1)))
		Expect(counter.Names()).To(Equal([]string{
			generator.HookPosStep.Name,
			generator.HookPosZeroLock.Name,
			generator.HookPosShortExtraction.Name,
		}))
	})

	It("should report zero for positions never seen", func() {
		counter := NewDegeneracyCounter()

		g, err := generator.MakeBuilder().
			WithSeed(big.NewInt(121)).
			WithIterations(3).
			WithHook(counter).
			Build("Gen")
		Expect(err).NotTo(HaveOccurred())

		err = g.Run(context.Background(), io.Discard)
		Expect(err).NotTo(HaveOccurred())

		Expect(counter.Count(generator.HookPosZeroLock)).To(BeZero())
		Expect(counter.Names()).To(ConsistOf(generator.HookPosStep.Name))
	})
})
