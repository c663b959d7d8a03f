package main

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wader/mpowiggle/internal/session"
	"github.com/wader/mpowiggle/internal/stereo"
	"github.com/wader/mpowiggle/internal/wiggle"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testPair(w, h int) *stereo.Pair {
	return stereo.NewPair(image.NewRGBA(image.Rect(0, 0, w, h)), image.NewRGBA(image.Rect(0, 0, w, h)))
}

func TestLoadPairWarnsOnClamp(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	sess, err := session.New(wiggle.Alignment{Offset: 80, Mode: wiggle.Crop}, wiggle.Playback{Speed: 4})
	require.NoError(t, err)

	loadPair(sess, testPair(100, 50), log)
	assert.Equal(t, 0, logs.Len())

	loadPair(sess, testPair(40, 20), log)
	assert.Equal(t, 39, sess.Alignment().Offset)
	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(80), fields["offset"])
	assert.Equal(t, int64(39), fields["clamped"])
	assert.Equal(t, int64(40), fields["width"])
}

func TestFFmpegVersionUnavailable(t *testing.T) {
	assert.Equal(t, "unavailable", ffmpegVersion(context.Background(), "/nonexistent/ffmpeg"))
}
