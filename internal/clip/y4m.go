package clip

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const y4mMagic = "YUV4MPEG2"

// Y4MHeader holds the stream parameters of a YUV4MPEG2 file header.
type Y4MHeader struct {
	Width    int
	Height   int
	FPSNum   int
	FPSDenom int
	Format   string // 400, 420, 422 or 444
	BitDepth int
}

// ParseY4MHeader reads the first line of a y4m stream. Missing frame rate and
// colorspace tags default to 30/1 and 8-bit 4:2:0.
func ParseY4MHeader(r io.Reader) (Y4MHeader, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Y4MHeader{}, err
	}

	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != y4mMagic {
		return Y4MHeader{}, fmt.Errorf("missing %s signature", y4mMagic)
	}

	hdr := Y4MHeader{FPSNum: 30, FPSDenom: 1, Format: "420", BitDepth: 8}
	for _, f := range fields[1:] {
		if len(f) < 2 {
			continue
		}
		tag, val := f[0], f[1:]
		switch tag {
		case 'W':
			hdr.Width, err = strconv.Atoi(val)
		case 'H':
			hdr.Height, err = strconv.Atoi(val)
		case 'F':
			hdr.FPSNum, hdr.FPSDenom, err = parseRatio(val)
		case 'C':
			hdr.Format, hdr.BitDepth = parseColorspace(val)
		}
		if err != nil {
			return Y4MHeader{}, fmt.Errorf("bad %c tag %q: %w", tag, val, err)
		}
	}

	if hdr.Width <= 0 || hdr.Height <= 0 {
		return Y4MHeader{}, fmt.Errorf("missing frame size")
	}
	return hdr, nil
}

func parseRatio(s string) (int, int, error) {
	num, den, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected n:d")
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, 0, err
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return 0, 0, err
	}
	if n <= 0 || d <= 0 {
		return 0, 0, fmt.Errorf("non-positive frame rate")
	}
	return n, d, nil
}

// parseColorspace maps tags like 420jpeg, 420p10, 444 or mono to a chroma
// format and bit depth.
func parseColorspace(cs string) (string, int) {
	depth := 8
	if idx := strings.Index(cs, "p"); idx > 0 && !strings.HasPrefix(cs[idx:], "pal") {
		if d, err := strconv.Atoi(cs[idx+1:]); err == nil {
			depth = d
		}
	}

	switch {
	case strings.HasPrefix(cs, "mono"):
		if strings.TrimPrefix(cs, "mono") == "16" {
			depth = 16
		}
		return "400", depth
	case strings.HasPrefix(cs, "444"):
		return "444", depth
	case strings.HasPrefix(cs, "422"):
		return "422", depth
	default:
		return "420", depth
	}
}
