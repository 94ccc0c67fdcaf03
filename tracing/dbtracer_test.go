package tracing

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/simulation"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockDataRecorder
		sim      *simulation.Simulator
		tracer   *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockDataRecorder(mockCtrl)

		backend.EXPECT().CreateTable(AccessTable, AccessEntry{})
		backend.EXPECT().CreateTable(SummaryTable, SummaryEntry{})

		sim = simulation.MakeBuilder().
			WithCacheConfig(cache.Config{SetBits: 0, Associativity: 1, BlockBits: 4}).
			Build()
		tracer = NewDBTracer(backend)
		tracer.Attach(sim)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record every access and the summary", func() {
		gomock.InOrder(
			backend.EXPECT().InsertData(AccessTable, AccessEntry{
				RunID:     sim.ID(),
				Seq:       0,
				RecordSeq: 1,
				Address:   "0x10",
				SetIndex:  0,
				Tag:       "0x1",
				Outcome:   "miss",
			}),
			backend.EXPECT().InsertData(AccessTable, AccessEntry{
				RunID:      sim.ID(),
				Seq:        1,
				RecordSeq:  3,
				Address:    "0x20",
				SetIndex:   0,
				Tag:        "0x2",
				Outcome:    "miss eviction",
				EvictedTag: "0x1",
			}),
			backend.EXPECT().InsertData(AccessTable, AccessEntry{
				RunID:     sim.ID(),
				Seq:       2,
				RecordSeq: 3,
				Address:   "0x20",
				SetIndex:  0,
				Tag:       "0x2",
				Outcome:   "hit",
			}),
			backend.EXPECT().InsertData(SummaryTable, SummaryEntry{
				RunID:         sim.ID(),
				SetBits:       0,
				Associativity: 1,
				BlockBits:     4,
				Records:       3,
				Hits:          1,
				Misses:        2,
				Evictions:     1,
			}),
			backend.EXPECT().Flush(),
		)

		err := sim.Run(trace.NewSliceSource([]trace.Record{
			{Kind: trace.Load, Address: 0x10},
			{Kind: trace.Instruction, Address: 0x400},
			{Kind: trace.Modify, Address: 0x20},
		}))

		Expect(err).NotTo(HaveOccurred())
		Expect(tracer.NumEntries()).To(Equal(uint64(3)))
	})

	It("should only record accesses inside the window", func() {
		tracer.WithWindow(1, 2)

		backend.EXPECT().InsertData(AccessTable, gomock.Any()).
			Do(func(_ string, entry any) {
				Expect(entry.(AccessEntry).Seq).To(Equal(uint64(1)))
			})
		backend.EXPECT().InsertData(SummaryTable, gomock.Any())
		backend.EXPECT().Flush()

		Expect(sim.Run(trace.NewSliceSource([]trace.Record{
			{Kind: trace.Load, Address: 0x10},
			{Kind: trace.Load, Address: 0x10},
			{Kind: trace.Load, Address: 0x10},
		}))).To(Succeed())
	})

	It("should record only the summary when accesses are disabled", func() {
		tracer.WithoutAccesses()

		backend.EXPECT().InsertData(SummaryTable, gomock.Any())
		backend.EXPECT().Flush()

		Expect(sim.Run(trace.NewSliceSource([]trace.Record{
			{Kind: trace.Load, Address: 0x10},
		}))).To(Succeed())
		Expect(tracer.NumEntries()).To(BeZero())
	})

	It("should panic on an empty window", func() {
		Expect(func() { tracer.WithWindow(5, 5) }).To(Panic())
	})
})

var _ = Describe("DBTracer with SQLite", func() {
	It("should store data that can be read back", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		writer := datarecording.NewSQLiteWriter(path)
		writer.Init()

		sim := simulation.MakeBuilder().
			WithCacheConfig(cache.Config{SetBits: 1, Associativity: 2, BlockBits: 2}).
			Build()
		NewDBTracer(writer).Attach(sim)

		Expect(sim.Run(trace.NewSliceSource([]trace.Record{
			{Kind: trace.Load, Address: 0xffffffffffffff00},
			{Kind: trace.Store, Address: 0xffffffffffffff00},
		}))).To(Succeed())
		Expect(writer.Close()).To(Succeed())

		reader, err := datarecording.NewReader(writer.FileName())
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(AccessTable, AccessEntry{})
		reader.MapTable(SummaryTable, SummaryEntry{})

		accesses, total, err := reader.Query(context.Background(), AccessTable,
			datarecording.QueryParams{OrderBy: "Seq"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(2))
		Expect(accesses[0].(*AccessEntry).Address).To(Equal("0xffffffffffffff00"))
		Expect(accesses[1].(*AccessEntry).Outcome).To(Equal("hit"))

		runs, _, err := reader.Query(context.Background(), SummaryTable,
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(1))
		Expect(*runs[0].(*SummaryEntry)).To(Equal(SummaryEntry{
			RunID:         sim.ID(),
			SetBits:       1,
			Associativity: 2,
			BlockBits:     2,
			Records:       2,
			Hits:          1,
			Misses:        1,
		}))
	})
})
