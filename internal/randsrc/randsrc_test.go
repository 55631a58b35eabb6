package randsrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstream_DeterministicForSameMasterAndSalt(t *testing.T) {
	a := Substream(42, HealthSalt)
	b := Substream(42, HealthSalt)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestSubstream_DifferentSaltsDiverge(t *testing.T) {
	health := Substream(42, HealthSalt)
	psych := Substream(42, PsychologySalt)
	assert.NotEqual(t, health.Float64(), psych.Float64())
}

func TestSubstream_DifferentMastersDiverge(t *testing.T) {
	a := Substream(1, HealthSalt)
	b := Substream(2, HealthSalt)
	assert.NotEqual(t, a.Float64(), b.Float64())
}
