// Package config reads the name color override.
package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPath is where the plugin loader expects the config, relative to the
// game directory.
const DefaultPath = "nativePC/plugins/custom_name_color_config.txt"

// Color is a name color code as the game stores it in one signed byte.
type Color int8

const (
	// Default leaves the game's color alone. It is outside the range of
	// codes the game uses.
	Default Color = -1

	White  Color = 0
	Green  Color = 1
	Orange Color = 2
	Blue   Color = 3
	Purple Color = 4
	Yellow Color = 5
)

var colorNames = map[Color]string{
	Default: "default",
	White:   "white",
	Green:   "green",
	Orange:  "orange",
	Blue:    "blue",
	Purple:  "purple",
	Yellow:  "yellow",
}

// Colors lists every color, Default first.
func Colors() []Color {
	return []Color{Default, White, Green, Orange, Blue, Purple, Yellow}
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int8(c))
}

// Code returns the byte written into the game's buffer.
func (c Color) Code() int8 {
	return int8(c)
}

// FromCode returns the color for a numeric code. Default is not a code.
func FromCode(code int) (Color, bool) {
	if code < int(White) || code > int(Yellow) {
		return Default, false
	}
	return Color(code), true
}

// FromName returns the color with the given name, ignoring case.
func FromName(name string) (Color, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range colorNames {
		if n == name {
			return c, true
		}
	}
	return Default, false
}

// Parse turns a config value into a color. Numbers are tried before names and
// anything unrecognized selects Default.
func Parse(s string) Color {
	s = strings.TrimSpace(s)

	if code, err := strconv.Atoi(s); err == nil {
		c, _ := FromCode(code)
		return c
	}

	c, _ := FromName(s)
	return c
}

// Load reads the color from the first line of the file at path. A missing or
// unreadable file is an error; a file without a valid value is not.
func Load(path string) (Color, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default, fmt.Errorf("read config: %w", err)
	}

	line, err := firstLine(data)
	if err != nil {
		return Default, fmt.Errorf("read config: %w", err)
	}

	return Parse(line), nil
}

func firstLine(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	s := bufio.NewScanner(bytes.NewReader(data))
	if s.Scan() {
		return s.Text(), nil
	}
	return "", s.Err()
}
