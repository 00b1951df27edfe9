// Package monitoring serves the progress and state of running generators
// over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/middlesquare/generator"
	"github.com/sarchlab/middlesquare/hooking"
	"github.com/sarchlab/middlesquare/idgen"
)

// Monitor turns a generator run into a server that can be inspected from a
// browser or with curl.
type Monitor struct {
	portNumber int
	server     *http.Server

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	snapshotsLock sync.Mutex
	snapshotNames []string
	snapshots     map[string]*GeneratorSnapshot
}

// GeneratorSnapshot is the state of a generator after its latest step.
type GeneratorSnapshot struct {
	Name       string
	Digits     int
	Iterations int
	Completed  int
	Seed       string
	LastBits   string
	ShortSteps int
	ZeroLocked bool
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		snapshots: make(map[string]*GeneratorSnapshot),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterGenerator attaches the monitor to a generator. It must be called
// before the generator runs.
func (m *Monitor) RegisterGenerator(g *generator.Generator) {
	bar := m.CreateProgressBar(g.Name(), uint64(g.Iterations()))

	m.snapshotsLock.Lock()
	m.snapshotNames = append(m.snapshotNames, g.Name())
	m.snapshots[g.Name()] = &GeneratorSnapshot{
		Name:       g.Name(),
		Digits:     g.Digits(),
		Iterations: g.Iterations(),
		Completed:  g.Completed(),
		Seed:       g.Seed().String(),
	}
	m.snapshotsLock.Unlock()

	g.AcceptHook(&generatorHook{monitor: m, bar: bar})
}

type generatorHook struct {
	monitor *Monitor
	bar     *ProgressBar
}

func (h *generatorHook) Func(ctx hooking.HookCtx) {
	step, ok := ctx.Item.(generator.Step)
	if !ok {
		return
	}

	name := ctx.Domain.Name()

	switch ctx.Pos {
	case generator.HookPosStep:
		h.bar.IncrementFinished(1)
		h.monitor.updateSnapshot(name, func(s *GeneratorSnapshot) {
			s.Completed = step.Index + 1
			s.Seed = step.Result.String()
			s.LastBits = step.Bits
		})
	case generator.HookPosShortExtraction:
		h.monitor.updateSnapshot(name, func(s *GeneratorSnapshot) {
			s.ShortSteps++
		})
	case generator.HookPosZeroLock:
		h.monitor.updateSnapshot(name, func(s *GeneratorSnapshot) {
			s.ZeroLocked = true
		})
	}
}

func (m *Monitor) updateSnapshot(name string, update func(*GeneratorSnapshot)) {
	m.snapshotsLock.Lock()
	defer m.snapshotsLock.Unlock()

	s, ok := m.snapshots[name]
	if !ok {
		return
	}

	update(s)
}

// Snapshot returns a copy of the latest state of the named generator.
func (m *Monitor) Snapshot(name string) (GeneratorSnapshot, bool) {
	m.snapshotsLock.Lock()
	defer m.snapshotsLock.Unlock()

	s, ok := m.snapshots[name]
	if !ok {
		return GeneratorSnapshot{}, false
	}

	return *s, true
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        idgen.Next().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/generators", m.listGenerators)
	r.HandleFunc("/api/generator/{name}", m.generatorDetails)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", m.listenAddress())
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring generators with %s\n", url)

	m.server = &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			dieOnErr(err)
		}
	}()

	return url, nil
}

func (m *Monitor) listenAddress() string {
	if m.portNumber >= 1000 {
		return ":" + strconv.Itoa(m.portNumber)
	}

	return ":0"
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

// OpenInBrowser opens url with the default browser.
func OpenInBrowser(url string) error {
	return browser.OpenURL(url)
}

func (m *Monitor) listGenerators(w http.ResponseWriter, _ *http.Request) {
	m.snapshotsLock.Lock()
	names := make([]string, len(m.snapshotNames))
	copy(names, m.snapshotNames)
	m.snapshotsLock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) generatorDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	snapshot, ok := m.Snapshot(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Generator not found"))
		dieOnErr(err)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	views := make([]progressBarView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		views = append(views, b.view())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, views)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

// defaultProfileDuration is how long /api/profile samples the CPU unless the
// request sets ?duration=.
const defaultProfileDuration = time.Second

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := defaultProfileDuration
	if d := r.URL.Query().Get("duration"); d != "" {
		parsed, err := time.ParseDuration(d)
		if err != nil || parsed <= 0 {
			http.Error(w, "bad duration "+strconv.Quote(d),
				http.StatusBadRequest)
			return
		}

		duration = parsed
	}

	var buf bytes.Buffer

	// Only one CPU profile can run per process.
	if err := pprof.StartCPUProfile(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	select {
	case <-time.After(duration):
	case <-r.Context().Done():
	}

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
