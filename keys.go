package main

import (
	"github.com/wader/mpowiggle/internal/wiggle"
)

const speedStep = 1.25

var exportKeys = map[byte]string{
	'g': "gif",
	'a': "apng",
	'w': "webm",
	'v': "webm",
	'p': "mp4",
	'j': "avi",
}

type command struct {
	alignment wiggle.Alignment
	playback  wiggle.Playback
	changed   bool
	export    string
	quit      bool
}

// applyKey maps a key press to new settings or an action
func applyKey(key byte, a wiggle.Alignment, p wiggle.Playback) command {
	c := command{alignment: a, playback: p}
	switch key {
	case '+', '=':
		c.playback.Speed *= speedStep
	case '-', '_':
		c.playback.Speed /= speedStep
	case ']':
		c.alignment.Offset++
	case '[':
		c.alignment.Offset--
	case '}':
		c.alignment.Offset += 10
	case '{':
		c.alignment.Offset -= 10
	case 'm':
		c.alignment.Mode = c.alignment.Mode.Toggle()
	case 'q', 3, 4:
		c.quit = true
		return c
	default:
		c.export = exportKeys[key]
		return c
	}
	if c.alignment.Offset < 0 {
		c.alignment.Offset = 0
	}
	c.changed = c.alignment != a || c.playback != p
	return c
}

const keyHelp = "+/- speed  [/] offset  {/} offset*10  m mode  g gif  a apng  w/v webm  p mp4  j avi  q quit"
