package main

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wader/mpowiggle/internal/wiggle"
)

func TestApplyKey(t *testing.T) {
	a := wiggle.Alignment{Offset: 5, Mode: wiggle.Crop}
	p := wiggle.Playback{Speed: 4}

	testCases := []struct {
		key      byte
		expected command
	}{
		{key: '+', expected: command{alignment: a, playback: wiggle.Playback{Speed: 5}, changed: true}},
		{key: '-', expected: command{alignment: a, playback: wiggle.Playback{Speed: 3.2}, changed: true}},
		{key: ']', expected: command{alignment: wiggle.Alignment{Offset: 6, Mode: wiggle.Crop}, playback: p, changed: true}},
		{key: '[', expected: command{alignment: wiggle.Alignment{Offset: 4, Mode: wiggle.Crop}, playback: p, changed: true}},
		{key: '}', expected: command{alignment: wiggle.Alignment{Offset: 15, Mode: wiggle.Crop}, playback: p, changed: true}},
		{key: '{', expected: command{alignment: wiggle.Alignment{Offset: 0, Mode: wiggle.Crop}, playback: p, changed: true}},
		{key: 'm', expected: command{alignment: wiggle.Alignment{Offset: 5, Mode: wiggle.Pad}, playback: p, changed: true}},
		{key: 'g', expected: command{alignment: a, playback: p, export: "gif"}},
		{key: 'v', expected: command{alignment: a, playback: p, export: "webm"}},
		{key: 'j', expected: command{alignment: a, playback: p, export: "avi"}},
		{key: 'q', expected: command{alignment: a, playback: p, quit: true}},
		{key: 3, expected: command{alignment: a, playback: p, quit: true}},
		{key: 'z', expected: command{alignment: a, playback: p}},
	}
	for _, tC := range testCases {
		t.Run(strconv.Quote(string(tC.key)), func(t *testing.T) {
			assert.Equal(t, tC.expected, applyKey(tC.key, a, p))
		})
	}
}

func TestApplyKeyOffsetAtZero(t *testing.T) {
	a := wiggle.Alignment{Offset: 0, Mode: wiggle.Pad}
	c := applyKey('[', a, wiggle.Playback{Speed: 1})
	assert.False(t, c.changed)
	assert.Equal(t, 0, c.alignment.Offset)
}
