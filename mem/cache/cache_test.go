package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

var _ = Describe("Cache", func() {
	var (
		mockCtrl *gomock.Controller
		c        *cache.Cache
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		c = cache.MakeBuilder().
			WithSetBits(1).
			WithWayAssociativity(2).
			WithBlockBits(4).
			Build("Cache")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should allocate 2^s empty sets", func() {
		Expect(c.Name()).To(Equal("Cache"))
		Expect(c.NumSets()).To(Equal(2))
		Expect(c.Occupancy()).To(Equal(0))
		Expect(c.State().Sets).To(Equal([][]uint64{{}, {}}))
	})

	It("should miss then hit in the same block", func() {
		Expect(c.Access(0x40)).To(Equal(cache.Miss))
		Expect(c.Access(0x4f)).To(Equal(cache.Hit))
		Expect(c.Contains(0x48)).To(BeTrue())
	})

	It("should route addresses to their sets", func() {
		c.Access(0x00)
		c.Access(0x10)

		Expect(c.SetTags(0)).To(Equal([]uint64{0}))
		Expect(c.SetTags(1)).To(Equal([]uint64{0}))
	})

	It("should evict the least recently used block of a full set", func() {
		Expect(c.Access(0x000)).To(Equal(cache.Miss))
		Expect(c.Access(0x020)).To(Equal(cache.Miss))
		Expect(c.Access(0x000)).To(Equal(cache.Hit))
		Expect(c.Access(0x040)).To(Equal(cache.MissEvict))

		Expect(c.Contains(0x020)).To(BeFalse())
		Expect(c.SetTags(0)).To(Equal([]uint64{2, 0}))
	})

	It("should not change state on Contains", func() {
		c.Access(0x000)
		c.Access(0x020)

		c.Contains(0x000)

		Expect(c.SetTags(0)).To(Equal([]uint64{1, 0}))
	})

	It("should invoke hooks with the access detail", func() {
		hook := cache.NewMockHook(mockCtrl)
		c.AcceptHook(hook)

		c.Access(0x000)
		c.Access(0x020)

		hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(cache.HookPosAccess))
			Expect(ctx.Domain).To(BeIdenticalTo(c))
			Expect(ctx.Item).To(Equal(uint64(0x45)))

			detail := ctx.Detail.(cache.AccessDetail)
			Expect(detail.Outcome).To(Equal(cache.MissEvict))
			Expect(detail.SetIndex).To(Equal(uint64(0)))
			Expect(detail.Tag).To(Equal(uint64(2)))
			Expect(detail.EvictedTag).To(Equal(uint64(0)))
		})

		c.Access(0x45)
	})

	It("should panic when built with no ways", func() {
		Expect(func() {
			cache.MakeBuilder().WithWayAssociativity(0).Build("Cache")
		}).To(Panic())
	})

	It("should panic with an unknown replacement policy", func() {
		Expect(func() {
			cache.MakeBuilder().WithReplaceStrategy("fifo").Build("Cache")
		}).To(Panic())
	})
})

var _ = Describe("Outcome", func() {
	It("should classify outcomes", func() {
		Expect(cache.Hit.IsHit()).To(BeTrue())
		Expect(cache.Hit.IsMiss()).To(BeFalse())
		Expect(cache.Miss.IsMiss()).To(BeTrue())
		Expect(cache.Miss.IsEviction()).To(BeFalse())
		Expect(cache.MissEvict.IsMiss()).To(BeTrue())
		Expect(cache.MissEvict.IsEviction()).To(BeTrue())
	})

	It("should print like the reference simulator", func() {
		Expect(cache.Hit.String()).To(Equal("hit"))
		Expect(cache.Miss.String()).To(Equal("miss"))
		Expect(cache.MissEvict.String()).To(Equal("miss eviction"))
	})
})

var _ = Describe("Config", func() {
	DescribeTable("validation",
		func(config cache.Config, expected error) {
			err := config.Validate()
			if expected == nil {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(expected))
			}
		},
		Entry("smallest cache", cache.Config{SetBits: 0, Associativity: 1, BlockBits: 0}, nil),
		Entry("typical cache", cache.Config{SetBits: 4, Associativity: 2, BlockBits: 4}, nil),
		Entry("no ways", cache.Config{SetBits: 4, Associativity: 0, BlockBits: 4}, cache.ErrInvalidConfig),
		Entry("negative set bits", cache.Config{SetBits: -1, Associativity: 1, BlockBits: 4}, cache.ErrInvalidConfig),
		Entry("wider than an address", cache.Config{SetBits: 10, Associativity: 1, BlockBits: 60}, cache.ErrInvalidConfig),
		Entry("as many sets as allowed", cache.Config{SetBits: cache.MaxSetBits, Associativity: 1, BlockBits: 0}, nil),
		Entry("as many blocks as allowed", cache.Config{SetBits: 10, Associativity: cache.MaxBlocks >> 10, BlockBits: 4}, nil),
		Entry("too many sets", cache.Config{SetBits: cache.MaxSetBits + 1, Associativity: 1, BlockBits: 0}, cache.ErrCacheTooLarge),
		Entry("one block too many", cache.Config{SetBits: 10, Associativity: cache.MaxBlocks>>10 + 1, BlockBits: 4}, cache.ErrCacheTooLarge),
		Entry("too many ways for the sets", cache.Config{SetBits: 20, Associativity: 2, BlockBits: 0}, cache.ErrCacheTooLarge),
		Entry("block count wrapping to zero", cache.Config{SetBits: 10, Associativity: 1 << 54, BlockBits: 0}, cache.ErrCacheTooLarge),
		Entry("block count wrapping past zero", cache.Config{SetBits: 20, Associativity: 1<<44 + 1, BlockBits: 0}, cache.ErrCacheTooLarge),
		Entry("huge set count and ways", cache.Config{SetBits: 30, Associativity: 1 << 34, BlockBits: 34}, cache.ErrCacheTooLarge),
	)

	It("should report sizes", func() {
		config := cache.Config{SetBits: 4, Associativity: 2, BlockBits: 6}

		Expect(config.NumSets()).To(Equal(uint64(16)))
		Expect(config.BlockSize()).To(Equal(uint64(64)))
		Expect(config.TotalSize()).To(Equal(uint64(2048)))
		Expect(config.String()).To(Equal("s=4 E=2 b=6"))
	})

	It("should refuse to build an invalid cache", func() {
		c, err := cache.NewCache(cache.Config{SetBits: 1, Associativity: 0, BlockBits: 1})

		Expect(c).To(BeNil())
		Expect(err).To(MatchError(cache.ErrInvalidConfig))
	})

	It("should refuse a cache whose block count wraps around", func() {
		c, err := cache.NewCache(cache.Config{SetBits: 30, Associativity: 1 << 34, BlockBits: 34})

		Expect(c).To(BeNil())
		Expect(err).To(MatchError(cache.ErrCacheTooLarge))
	})

	It("should build a valid cache", func() {
		c, err := cache.NewCache(cache.Config{SetBits: 2, Associativity: 3, BlockBits: 1})

		Expect(err).NotTo(HaveOccurred())
		Expect(c.NumSets()).To(Equal(4))
		Expect(c.Config().Associativity).To(Equal(3))
	})
})
