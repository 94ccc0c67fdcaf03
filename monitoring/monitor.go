// Package monitoring serves the progress and state of a running simulation
// over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/monitoring/web"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
)

// DefaultSnapshotInterval is the number of records between two cache state
// snapshots.
const DefaultSnapshotInterval = 4096

// Monitor observes a simulator and serves what it sees. The hook runs on the
// simulation goroutine; HTTP handlers only read copies guarded by mu.
type Monitor struct {
	portNumber       int
	snapshotInterval uint64
	profileDuration  time.Duration

	progress *ProgressBar
	metrics  *metrics

	mu       sync.Mutex
	config   cache.Config
	stats    simulation.Stats
	state    cache.State
	finished bool

	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		snapshotInterval: DefaultSnapshotInterval,
		profileDuration:  time.Second,
		progress:         NewProgressBar("Records", 0),
		metrics:          newMetrics(),
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

// WithSnapshotInterval sets how many records pass between two cache state
// snapshots.
func (m *Monitor) WithSnapshotInterval(n uint64) *Monitor {
	if n == 0 {
		panic("snapshot interval must be positive")
	}

	m.snapshotInterval = n

	return m
}

// WithTotalRecords sets the expected number of records, for progress
// reporting.
func (m *Monitor) WithTotalRecords(total uint64) *Monitor {
	m.progress.Lock()
	m.progress.Total = total
	m.progress.Unlock()

	return m
}

// WithProfileDuration sets how long /api/profile samples the CPU.
func (m *Monitor) WithProfileDuration(d time.Duration) *Monitor {
	m.profileDuration = d
	return m
}

// Attach starts observing the simulator.
func (m *Monitor) Attach(sim *simulation.Simulator) {
	m.mu.Lock()
	m.config = sim.Cache().Config()
	m.state = sim.Cache().State()
	m.mu.Unlock()

	sim.AcceptHook(m)
}

// Func updates the monitor after each record and at the end of the run.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	sim := ctx.Domain.(*simulation.Simulator)

	switch ctx.Pos {
	case simulation.HookPosRecordProcessed:
		detail := ctx.Detail.(simulation.RecordDetail)
		m.progress.IncrementFinished(1)
		m.metrics.observe(detail.Outcomes)

		var state *cache.State
		if detail.Seq%m.snapshotInterval == 0 {
			s := sim.Cache().State()
			state = &s
		}

		m.update(sim.Stats(), state, false)
	case simulation.HookPosRunEnd:
		s := sim.Cache().State()
		m.progress.MarkDone()
		m.update(ctx.Item.(simulation.Stats), &s, true)
	}
}

func (m *Monitor) update(stats simulation.Stats, state *cache.State, done bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats = stats
	if state != nil {
		m.state = *state
	}

	m.finished = m.finished || done
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/progress", m.listProgress)
	r.HandleFunc("/api/stats", m.reportStats)
	r.HandleFunc("/api/cache", m.reportCacheState)
	r.HandleFunc("/api/cache/set/{index}", m.reportSet)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.Handle("/metrics", promhttp.HandlerFor(
		m.metrics.registry, promhttp.HandlerOpts{}))
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":" + strconv.Itoa(m.portNumber)

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	m.listener = listener
	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	router := m.Router()

	go func() {
		err := http.Serve(listener, router)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			fmt.Fprintf(os.Stderr, "Monitoring server stopped: %v\n", err)
		}
	}()

	return url, nil
}

// StopServer closes the listener started by StartServer.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

// OpenInBrowser opens the monitor page in the default browser.
func OpenInBrowser(url string) error {
	return browser.OpenURL(url)
}

type statsRsp struct {
	Config       string  `json:"config"`
	Records      uint64  `json:"records"`
	TotalRecords uint64  `json:"total_records"`
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	Evictions    uint64  `json:"evictions"`
	HitRate      float64 `json:"hit_rate"`
	Occupancy    int     `json:"occupancy"`
	Finished     bool    `json:"finished"`
}

func (m *Monitor) reportStats(w http.ResponseWriter, _ *http.Request) {
	progress := m.progress.snapshot()

	m.mu.Lock()
	rsp := statsRsp{
		Config:       m.config.String(),
		Records:      progress.Finished,
		TotalRecords: progress.Total,
		Hits:         m.stats.Hits,
		Misses:       m.stats.Misses,
		Evictions:    m.stats.Evictions,
		HitRate:      m.stats.HitRate(),
		Occupancy:    occupancy(m.state),
		Finished:     m.finished,
	}
	m.mu.Unlock()

	writeJSON(w, rsp)
}

func (m *Monitor) listProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, []progressRsp{m.progress.snapshot()})
}

func (m *Monitor) reportCacheState(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&state)
	serializer.SetMaxDepth(3)

	buf := bytes.NewBuffer(nil)
	if err := serializer.Serialize(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

type setRsp struct {
	Index int      `json:"index"`
	Tags  []string `json:"tags"`
}

func (m *Monitor) reportSet(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "set index must be an integer", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	sets := m.state.Sets
	m.mu.Unlock()

	if index < 0 || index >= len(sets) {
		http.Error(w, "set not found", http.StatusNotFound)
		return
	}

	rsp := setRsp{Index: index, Tags: make([]string, len(sets[index]))}
	for i, tag := range sets[index] {
		rsp.Tags[i] = fmt.Sprintf("0x%x", tag)
	}

	writeJSON(w, rsp)
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

	memorySize, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func occupancy(state cache.State) int {
	n := 0
	for _, tags := range state.Sets {
		n += len(tags)
	}

	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(bytes)
}
