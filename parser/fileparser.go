// parser
package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type regexpattern struct {
	name string
	re   *regexp.Regexp
}

// Tag patterns of scene style release names. The title always comes first,
// so the cleaned title is everything before the earliest tag hit.
var patterns = []regexpattern{
	{"resolution", regexp.MustCompile(`(?i)(?:\b|_)(\d{3,4}[pi])(?:\b|_)`)},
	{"source", regexp.MustCompile(`(?i)(?:\b|_)(web\W?dl|web\W?rip|blu\W?ray|b[dr]rip|dvdrip|hdtv|remux|hddvd|webhd|web)(?:\b|_)`)},
	{"codec", regexp.MustCompile(`(?i)(?:\b|_)(x\.?26[45]|h\.?26[45]|hevc|xvid|divx|vp9|av1|10bit)(?:\b|_)`)},
	{"audio", regexp.MustCompile(`(?i)(?:\b|_)(aac|ac3|e?ac3d?|dd[p+]?[0-9\.]+|dts\W?hd(?:\W?ma)?|dts|truehd|flac|mp3|atmos)(?:\b|_)`)},
	{"identifier", regexp.MustCompile(`(?i)(?:\b|_)(s?\d{1,4}(?:(?:(?: )?-?(?: )?[ex]\d{1,3})+)|\d{2,4}(?:\.|-| |_)\d{1,2}(?:\.|-| |_)\d{1,2})(?:\b|_)`)},
	{"year", yearRe},
	{"proper", regexp.MustCompile(`(?i)(?:\b|_)(proper|repack|extended(?:.cut)?|unrated|internal)(?:\b|_)`)},
}

var (
	yearRe        = regexp.MustCompile(`(?:\b|_)((?:19\d|20\d)\d)(?:\b|_)`)
	seasonEpisode = regexp.MustCompile(`(?i)s?(\d{1,4})(?: )?[ex](?: )?(\d{1,3})(?:\b|_|e)`)
	groupSuffix   = regexp.MustCompile(`-[A-Za-z0-9]+$`)
	separators    = strings.NewReplacer(".", " ", "_", " ")
	videoExts     = map[string]bool{".mkv": true, ".mp4": true, ".avi": true, ".m4v": true, ".ts": true, ".wmv": true, ".mov": true}
)

// CleanTitle strips resolution, source, codec, audio, season/episode and
// year tags plus the release group suffix from a release filename and
// returns the remaining title part with separators normalized.
func CleanTitle(filename string) string {
	name := filename
	if videoExts[strings.ToLower(filepath.Ext(name))] {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	name = groupSuffix.ReplaceAllString(name, "")

	cut := len(name)
	for idx := range patterns {
		loc := patterns[idx].re.FindStringIndex(name)
		if loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	title := separators.Replace(name[:cut])
	title = strings.Trim(title, " -([")
	if title == "" {
		// nothing but tags, keep the readable form of the whole name
		title = strings.Trim(separators.Replace(name), " -")
	}
	return title
}

// ParseIdentifier extracts season and episode from a SxxEyy style name.
func ParseIdentifier(filename string) (season int, episode int, ok bool) {
	matches := seasonEpisode.FindStringSubmatch(filename)
	if len(matches) != 3 {
		return 0, 0, false
	}
	season, _ = strconv.Atoi(matches[1])
	episode, _ = strconv.Atoi(matches[2])
	return season, episode, true
}

// ParseYear returns the release year found in the name, 0 if none.
func ParseYear(filename string) int {
	var year int
	for _, match := range yearRe.FindAllStringSubmatch(filename, -1) {
		// the last hit wins, earlier ones may be part of the title
		year, _ = strconv.Atoi(match[1])
	}
	return year
}
