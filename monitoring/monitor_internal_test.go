package monitoring

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/middlesquare/generator"
)

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
		g *generator.Generator
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		m.router().ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		var err error

		m = NewMonitor()
		g, err = generator.MakeBuilder().
			WithSeed(big.NewInt(1000)).
			WithIterations(4).
			Build("Gen")
		Expect(err).NotTo(HaveOccurred())

		m.RegisterGenerator(g)
	})

	It("should track the latest step of a generator", func() {
		err := g.Run(context.Background(), io.Discard)
		Expect(err).NotTo(HaveOccurred())

		snapshot, ok := m.Snapshot("Gen")
		Expect(ok).To(BeTrue())
		Expect(snapshot).To(Equal(GeneratorSnapshot{
			Name:       "Gen",
			Digits:     4,
			Iterations: 4,
			Completed:  4,
			Seed:       "0",
			LastBits:   "0",
			ShortSteps: 3,
			ZeroLocked: true,
		}))
	})

	It("should list registered generators", func() {
		rec := get("/api/generators")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`["Gen"]`))
	})

	It("should report progress", func() {
		_, err := g.Next()
		Expect(err).NotTo(HaveOccurred())

		rec := get("/api/progress")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var bars []progressBarView
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Gen"))
		Expect(bars[0].Total).To(Equal(uint64(4)))
		Expect(bars[0].Finished).To(Equal(uint64(1)))
	})

	It("should serialize a generator snapshot", func() {
		rec := get("/api/generator/Gen")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Gen"))
	})

	It("should return 404 for an unknown generator", func() {
		rec := get("/api/generator/Other")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should report resource usage", func() {
		rec := get("/api/resource")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should return a CPU profile", func() {
		rec := get("/api/profile?duration=50ms")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).
			To(Equal("application/json"))

		var prof map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &prof)).To(Succeed())
		Expect(prof).To(HaveKey("SampleType"))
		Expect(prof).To(HaveKey("DurationNanos"))
	})

	It("should reject a malformed profile duration", func() {
		Expect(get("/api/profile?duration=soon").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/profile?duration=-1s").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should ignore privileged port numbers", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(80).listenAddress()).To(Equal(":0"))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should listen on every accepted port number", func() {
		Expect(m.WithPortNumber(0).listenAddress()).To(Equal(":0"))
		Expect(m.WithPortNumber(1000).listenAddress()).To(Equal(":1000"))
		Expect(m.WithPortNumber(8080).listenAddress()).To(Equal(":8080"))
	})

	It("should serve over HTTP until stopped", func() {
		url, err := m.StartServer()
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(m.StopServer()).To(Succeed()) }()

		rsp, err := http.Get(url + "/api/generators")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(MatchJSON(`["Gen"]`))
	})
})
