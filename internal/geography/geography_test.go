package geography

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/sociokernel/internal/region"
)

func TestPlace_ZeroRegionsIsEmpty(t *testing.T) {
	assert.Empty(t, Place(0, 1))
}

func TestPlace_CoordinatesStayWithinUnitSquare(t *testing.T) {
	placements := Place(37, 5)
	assert.Len(t, placements, 37)
	for _, p := range placements {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 1.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 1.0)
		assert.GreaterOrEqual(t, p.Climate, -1.0)
		assert.LessOrEqual(t, p.Climate, 1.0)
	}
}

func TestPlace_DeterministicForSameSeed(t *testing.T) {
	a := Place(20, 9)
	b := Place(20, 9)
	assert.Equal(t, a, b)
}

func TestEndowment_HasOnePrimaryAndOneScarceGood(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := Placement{X: 0.5, Y: 0.5, Climate: 0.5, Fertility: 0.5}
	e := Endowment(p, rng)

	maxVal, minVal := e[0], e[0]
	for _, v := range e {
		if v > maxVal {
			maxVal = v
		}
		if v < minVal {
			minVal = v
		}
	}
	assert.Greater(t, maxVal, minVal)
	for g := 0; g < region.NumGoods; g++ {
		assert.GreaterOrEqual(t, e[g], 0.0)
	}
}
