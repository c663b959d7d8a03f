// Package features asks a ffmpeg binary what it can do
package features

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

type VersionParts struct {
	Full    string
	Release string
	Major   uint
	Minor   uint
	Patch   uint
}

type MediaType uint

const (
	MediaTypeAudio MediaType = iota
	MediaTypeVideo
	MediaTypeSubtitle
	MediaTypeData
)

func (mt MediaType) String() string {
	switch mt {
	case MediaTypeAudio:
		return "audio"
	case MediaTypeVideo:
		return "video"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeData:
		return "data"
	}
	return fmt.Sprintf("unknown (%d)", uint(mt))
}

// Coder is an encoder or decoder
type Coder struct {
	Name         string
	Description  string
	MediaType    MediaType
	Codec        string
	Experimental bool
}

// Format is a muxer or demuxer, Names is the comma separated name split
type Format struct {
	Names       []string
	Description string
	Demuxing    bool
	Muxing      bool
}

/*
ffmpeg version n4.0 Copyright (c) 2000-2018 the FFmpeg developers
ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers
*/
var versionLineRe = regexp.MustCompile(`` +
	`^ffmpeg version ` +
	`(?P<release>` +
	`(?:\w*?(?P<major>\d+))` +
	`(?:\.(?P<minor>\d+))` +
	`(?:\.(?P<patch>\d+))?` +
	`\S*)` +
	` Copyright.*$` +
	``)

/*
 V....D libvpx               libvpx VP8 (codec vp8)
 V..X.. a64multi             Multicolor charset for Commodore 64 (codec a64_multi)
*/
var codersLineRe = regexp.MustCompile(`` +
	`^` +
	`\s*` +
	`(?P<codectype>\S)` +
	`(?P<flags>\S{5})` +
	`\s+` +
	`(?P<codername>\S+)` +
	`\s*` +
	`(?P<description>.*?)` +
	`\s*` +
	`(?:\(codec (?P<codec>.*?)\))?` +
	`\s*` +
	`$` +
	``)

/*
 D  3dostr          3DO STR
  E webm            WebM
 DE matroska,webm   Matroska / WebM
*/
var formatsLineRe = regexp.MustCompile(`` +
	`^` +
	`\s` +
	`(?P<demuxing>[D ])` +
	`(?P<muxing>[E ])` +
	`(?:d)?` +
	`\s+` +
	`(?P<formatname>\S+)` +
	`\s*` +
	`(?P<description>.*?)` +
	`\s*` +
	`$` +
	``)

func reMatchNamedGroups(re *regexp.Regexp, s string) map[string]string {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	result := map[string]string{}
	for i, name := range re.SubexpNames() {
		if i != 0 {
			result[name] = match[i]
		}
	}
	return result
}

func output(ctx context.Context, ffmpegPath string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	b, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", ffmpegPath, strings.Join(args, " "), err)
	}
	return b, nil
}

// linesAfter returns non-empty lines after the first line starting with
// prefix, ffmpeg list output ends its legend with a line of dashes
func linesAfter(r io.Reader, prefix string) ([]string, error) {
	var lines []string
	found := false
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if !found {
			found = strings.HasPrefix(strings.TrimSpace(line), prefix)
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no %q line found", prefix)
	}
	return lines, nil
}

// ParseVersion parses `ffmpeg -version` output
func ParseVersion(full string) (VersionParts, error) {
	first := strings.SplitN(full, "\n", 2)[0]
	m := reMatchNamedGroups(versionLineRe, strings.TrimSpace(first))
	if m == nil {
		return VersionParts{}, fmt.Errorf("failed to parse version line %q", first)
	}
	major, _ := strconv.Atoi(m["major"])
	minor, _ := strconv.Atoi(m["minor"])
	patch, _ := strconv.Atoi(m["patch"])

	return VersionParts{
		Full:    full,
		Release: m["release"],
		Major:   uint(major),
		Minor:   uint(minor),
		Patch:   uint(patch),
	}, nil
}

// ParseCoders parses `ffmpeg -encoders` or `ffmpeg -decoders` output
func ParseCoders(r io.Reader) ([]Coder, error) {
	lines, err := linesAfter(r, "------")
	if err != nil {
		return nil, err
	}
	var coders []Coder
	for _, line := range lines {
		m := reMatchNamedGroups(codersLineRe, line)
		if m == nil {
			return nil, fmt.Errorf("failed to parse coder line %q", line)
		}
		var mt MediaType
		switch m["codectype"] {
		case "A":
			mt = MediaTypeAudio
		case "V":
			mt = MediaTypeVideo
		case "S":
			mt = MediaTypeSubtitle
		default:
			mt = MediaTypeData
		}
		coders = append(coders, Coder{
			Name:         m["codername"],
			Description:  m["description"],
			MediaType:    mt,
			Codec:        m["codec"],
			Experimental: strings.Contains(m["flags"], "X"),
		})
	}
	return coders, nil
}

// ParseFormats parses `ffmpeg -muxers`, `-demuxers` or `-formats` output
func ParseFormats(r io.Reader) ([]Format, error) {
	lines, err := linesAfter(r, "--")
	if err != nil {
		return nil, err
	}
	var formats []Format
	for _, line := range lines {
		m := reMatchNamedGroups(formatsLineRe, line)
		if m == nil {
			return nil, fmt.Errorf("failed to parse format line %q", line)
		}
		formats = append(formats, Format{
			Names:       strings.Split(m["formatname"], ","),
			Description: m["description"],
			Demuxing:    m["demuxing"] == "D",
			Muxing:      m["muxing"] == "E",
		})
	}
	return formats, nil
}

func Version(ctx context.Context, ffmpegPath string) (VersionParts, error) {
	b, err := output(ctx, ffmpegPath, "-version")
	if err != nil {
		return VersionParts{}, err
	}
	return ParseVersion(string(b))
}

func Encoders(ctx context.Context, ffmpegPath string) ([]Coder, error) {
	b, err := output(ctx, ffmpegPath, "-hide_banner", "-encoders")
	if err != nil {
		return nil, err
	}
	return ParseCoders(strings.NewReader(string(b)))
}

func Muxers(ctx context.Context, ffmpegPath string) ([]Format, error) {
	b, err := output(ctx, ffmpegPath, "-hide_banner", "-muxers")
	if err != nil {
		return nil, err
	}
	return ParseFormats(strings.NewReader(string(b)))
}
