package flags

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitsAreDistinct(t *testing.T) {
	var all Mask
	for _, n := range names {
		assert.Zero(t, all&n.bit, "bit %s reused", n.name)
		all |= n.bit
	}
	assert.Len(t, Names(), 18)
}

func TestSanitize(t *testing.T) {
	m := Invalid | Cloud | CloudSure | ClearLand
	assert.Equal(t, Invalid, m.Sanitize())

	valid := Cloud | CloudSure | Land
	assert.Equal(t, valid, valid.Sanitize())
}

func TestMaskWithAndString(t *testing.T) {
	var m Mask
	m = m.With(Cloud, true).With(CloudSure, true).With(Land, true)
	assert.True(t, m.Has(Cloud|CloudSure))
	assert.False(t, m.Has(Cloud|CloudAmbiguous))
	assert.True(t, m.Any(CloudAmbiguous|CloudSure))
	assert.Equal(t, "CLOUD|CLOUD_SURE|LAND", m.String())

	m = m.With(CloudSure, false)
	assert.False(t, m.Has(CloudSure))
	assert.Equal(t, "NONE", Mask(0).String())
}

func TestByName(t *testing.T) {
	b, ok := ByName("cloud_buffer")
	assert.True(t, ok)
	assert.Equal(t, CloudBuffer, b)

	b, ok = ByName("SNOW_ICE")
	assert.True(t, ok)
	assert.Equal(t, ClearSnow, b)

	_, ok = ByName("RAINBOW")
	assert.False(t, ok)
}

func TestRasterAccessors(t *testing.T) {
	r := NewRaster(3, 2)
	r.Set(1, 1, Cloud|CloudSure)
	r.Set(2, 0, Invalid)

	assert.True(t, r.IsCloud(1, 1))
	assert.False(t, r.IsCloud(0, 0))
	assert.True(t, r.IsInvalid(2, 0))
	assert.Equal(t, 1, r.Count(Cloud))
	assert.Equal(t, []bool{false, false, false, false, true, false}, r.Bit(Cloud))

	c := r.Clone()
	assert.True(t, c.Equal(r))
	c.Set(0, 0, Water)
	assert.False(t, c.Equal(r))

	dst := NewRaster(3, 2)
	dst.CopyRect(r, image.Rect(1, 1, 3, 2))
	assert.Equal(t, Cloud|CloudSure, dst.At(1, 1))
	assert.Equal(t, Mask(0), dst.At(2, 0))
}
