package mpo_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wader/mpowiggle/internal/mpo"
)

func encodeJPEG(t *testing.T, c color.Color) []byte {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			m.Set(x, y, c)
		}
	}
	b := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(b, m, nil))
	return b.Bytes()
}

func TestSplit(t *testing.T) {
	synthetic := make([]byte, 100)
	copy(synthetic[10:], []byte{0xff, 0xda})
	copy(synthetic[60:], []byte{0xff, 0xd8})

	// SOI like pair before SOS must be ignored
	early := make([]byte, 40)
	copy(early[2:], []byte{0xff, 0xd8})
	copy(early[20:], []byte{0xff, 0xda})
	copy(early[30:], []byte{0xff, 0xd8})

	testCases := []struct {
		b        []byte
		expected mpo.Halves
		err      bool
	}{
		{b: synthetic, expected: mpo.Halves{Left: mpo.Range{Start: 0, End: 60}, Right: mpo.Range{Start: 60, End: 100}}},
		{b: early, expected: mpo.Halves{Left: mpo.Range{Start: 0, End: 30}, Right: mpo.Range{Start: 30, End: 40}}},
		{b: []byte{}, err: true},
		{b: []byte{0xff, 0xd8, 0xff, 0xd8, 0x00}, err: true},
		{b: []byte{0xff, 0xd8, 0xff, 0xda, 0x00, 0xff}, err: true},
		{b: []byte{0xff, 0xda, 0xff, 0xd8}, expected: mpo.Halves{Left: mpo.Range{Start: 0, End: 2}, Right: mpo.Range{Start: 2, End: 4}}},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			actual, err := mpo.Split(tC.b)
			if tC.err {
				assert.True(t, errors.Is(err, mpo.ErrMalformedContainer), "expected ErrMalformedContainer, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tC.expected, actual)
			assert.Equal(t, len(tC.b), actual.Left.Len()+actual.Right.Len())
		})
	}
}

func TestSplitConcatenatedJPEGs(t *testing.T) {
	left := encodeJPEG(t, color.RGBA{R: 255, A: 255})
	right := encodeJPEG(t, color.RGBA{B: 255, A: 255})
	b := append(append([]byte{}, left...), right...)

	h, err := mpo.Split(b)
	require.NoError(t, err)
	assert.Equal(t, left, h.Left.Bytes(b))
	assert.Equal(t, right, h.Right.Bytes(b))
}

func TestSplitNoSOIAfterSOS(t *testing.T) {
	left := encodeJPEG(t, color.Black)
	_, err := mpo.Split(left)
	assert.ErrorIs(t, err, mpo.ErrMalformedContainer)
}

func TestInspect(t *testing.T) {
	info, err := mpo.Inspect(encodeJPEG(t, color.White))
	require.NoError(t, err)

	var names []string
	for _, s := range info.Segments {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"DQT", "SOF0", "DHT", "SOS"}, names)
	assert.Equal(t, uint32(0), info.MPFImages)
}

// mpfSegment builds an APP2 MPF index segment with two entries
func mpfSegment(sizes [2]uint32, offset2 uint32) []byte {
	le := binary.LittleEndian
	d := []byte("MPF\x00")
	d = append(d, 'I', 'I', 42, 0)
	d = le.AppendUint32(d, 8)
	d = le.AppendUint16(d, 2)
	// MPFNumberOfImages LONG 1
	d = le.AppendUint16(d, 0xb001)
	d = le.AppendUint16(d, 4)
	d = le.AppendUint32(d, 1)
	d = le.AppendUint32(d, 2)
	// MPFEntry UNDEFINED 32, data after next IFD offset
	d = le.AppendUint16(d, 0xb002)
	d = le.AppendUint16(d, 7)
	d = le.AppendUint32(d, 32)
	d = le.AppendUint32(d, 8+2+2*12+4)
	d = le.AppendUint32(d, 0)
	for i, size := range sizes {
		d = le.AppendUint32(d, 0)
		d = le.AppendUint32(d, size)
		if i == 0 {
			d = le.AppendUint32(d, 0)
		} else {
			d = le.AppendUint32(d, offset2)
		}
		d = le.AppendUint32(d, 0)
	}

	seg := []byte{0xff, 0xe2, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(d)+2))
	return append(seg, d...)
}

func TestInspectMPF(t *testing.T) {
	left := encodeJPEG(t, color.White)
	right := encodeJPEG(t, color.Black)

	seg := mpfSegment([2]uint32{0, 0}, 0)
	// SOI + APP2 header and length + "MPF\0"
	mpfOffset := uint32(2 + 4 + 4)
	leftLen := uint32(len(left) + len(seg))
	seg = mpfSegment([2]uint32{leftLen, uint32(len(right))}, leftLen-mpfOffset)

	b := append([]byte{}, left[:2]...)
	b = append(b, seg...)
	b = append(b, left[2:]...)
	b = append(b, right...)

	info, err := mpo.Inspect(b)
	require.NoError(t, err)
	assert.Equal(t, "APP2", info.Segments[0].Name)
	assert.Equal(t, uint32(2), info.MPFImages)
	assert.Equal(t, []mpo.Entry{
		{Offset: 0, Size: leftLen},
		{Offset: leftLen, Size: uint32(len(right))},
	}, info.Entries)

	h, err := mpo.Split(b)
	require.NoError(t, err)
	assert.Equal(t, int(leftLen), h.Right.Start)
}

func TestInspectNotJPEG(t *testing.T) {
	_, err := mpo.Inspect([]byte("not a jpeg"))
	assert.ErrorIs(t, err, mpo.ErrMalformedContainer)
}
