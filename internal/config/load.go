package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultFileName is the settings file looked up in the working directory.
const DefaultFileName = "starfly.ini"

// ParseError reports a malformed value in a settings file.
type ParseError struct {
	Line int
	Key  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads "Name = value" settings on top of base. Names are
// case-insensitive, lines without '=' and comment lines are skipped, unknown
// names are ignored and the last value of a name wins.
func Load(r io.Reader, base Config) (Config, error) {
	cfg := base
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, ";") || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if err := cfg.set(key, value); err != nil {
			return base, &ParseError{Line: line, Key: key, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return base, fmt.Errorf("read settings: %w", err)
	}
	return cfg, nil
}

// LoadFile loads settings from path on top of base.
func LoadFile(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, err
	}
	defer f.Close()

	cfg, err := Load(f, base)
	if err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFirst loads the first settings file that exists among paths. A missing
// file is not an error; the returned path is empty when none was found.
func LoadFirst(paths []string, base Config) (Config, string, error) {
	for _, p := range paths {
		cfg, err := LoadFile(p, base)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return base, p, err
		}
		return cfg, p, nil
	}
	return base, "", nil
}

// DefaultPaths returns the settings lookup order: a file named after the
// executable with an .ini extension, then DefaultFileName in the working
// directory.
func DefaultPaths(executable string) []string {
	var paths []string
	if executable != "" {
		ext := filepath.Ext(executable)
		paths = append(paths, strings.TrimSuffix(executable, ext)+".ini")
	}
	return append(paths, DefaultFileName)
}

func (c *Config) set(key, value string) error {
	switch key {
	case "stars":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Stars = n
	case "frameinterval", "timerrate":
		d, err := parseMillis(value)
		if err != nil {
			return err
		}
		c.FrameInterval = d
	case "fadeintime":
		d, err := parseMillis(value)
		if err != nil {
			return err
		}
		c.FadeInTime = d
	case "sizetype":
		st, err := ParseSizeType(strings.ToLower(value))
		if err != nil {
			return err
		}
		c.SizeType = st
	case "colortype":
		ct, err := ParseColorType(strings.ToLower(value))
		if err != nil {
			return err
		}
		c.ColorType = ct
	case "darkestrgb":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if n < 0 {
			n = 0
		} else if n > 255 {
			n = 255
		}
		c.DarkestRGB = uint8(n)
	case "seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		c.Seed = n
	case "starsize":
		return parseFloatInto(value, &c.StarSize)
	case "speed":
		return parseFloatInto(value, &c.Speed)
	case "zoom":
		return parseFloatInto(value, &c.Zoom)
	case "centerx":
		return parseFloatInto(value, &c.CenterX)
	case "centery":
		return parseFloatInto(value, &c.CenterY)
	case "fadepower":
		return parseFloatInto(value, &c.FadePower)
	}
	return nil
}

// parseMillis accepts a bare number of milliseconds or a Go duration.
func parseMillis(value string) (time.Duration, error) {
	if ms, err := strconv.ParseFloat(value, 64); err == nil {
		if !isFinite(ms) {
			return 0, errNotFinite
		}
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	return time.ParseDuration(value)
}

func parseFloatInto(value string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	if !isFinite(v) {
		return errNotFinite
	}
	*dst = v
	return nil
}
