package physics_test

import (
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physbox/internal/physics"
)

func pairIDs(pairs [][2]*physics.Body) [][2]uint64 {
	out := make([][2]uint64, 0, len(pairs))
	for _, p := range pairs {
		a, b := p[0].ID, p[1].ID
		if a > b {
			a, b = b, a
		}
		out = append(out, [2]uint64{a, b})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

var _ = Describe("Broadphase", func() {
	It("resolves names", func() {
		bp, err := physics.NewBroadphase("naive")
		Expect(err).NotTo(HaveOccurred())
		Expect(bp.Name()).To(Equal("naive"))

		bp, err = physics.NewBroadphase("")
		Expect(err).NotTo(HaveOccurred())
		Expect(bp.Name()).To(Equal("sap"))
	})

	It("finds the same pairs with sweep and prune as with all-pairs", func() {
		rng := rand.New(rand.NewSource(7))
		bodies := []*physics.Body{newFloor()}
		for i := 0; i < 40; i++ {
			pos := mgl64.Vec3{(rng.Float64() - 0.5) * 4, rng.Float64() * 3, (rng.Float64() - 0.5) * 4}
			if i%2 == 0 {
				bodies = append(bodies, newSphere(rng.Float64()*0.5, pos))
			} else {
				bodies = append(bodies, newBox(mgl64.Vec3{rng.Float64() / 2, rng.Float64() / 2, rng.Float64() / 2}, pos))
			}
		}

		sap, _ := physics.NewBroadphase("sap")
		naive, _ := physics.NewBroadphase("naive")
		got := pairIDs(sap.Pairs(bodies))
		Expect(got).NotTo(BeEmpty())
		Expect(got).To(Equal(pairIDs(naive.Pairs(bodies))))
	})

	It("skips pairs where neither body can move", func() {
		floor := newFloor()
		s := newSphere(0.5, mgl64.Vec3{0, 0.4, 0})
		s.Sleep()
		naive, _ := physics.NewBroadphase("naive")
		Expect(naive.Pairs([]*physics.Body{floor, s})).To(BeEmpty())

		s.WakeUp()
		Expect(naive.Pairs([]*physics.Body{floor, s})).To(HaveLen(1))
	})
})
