package opendap

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FillThreshold marks values at or beyond this magnitude as missing. CPC
// stores missing cells as -9.96921e36.
const FillThreshold = 1e30

var (
	// ddsVarRe matches an array declaration, e.g. "Float32 tmax[time = 365][lat = 360][lon = 720];".
	ddsVarRe = regexp.MustCompile(`(?m)^\s*(?:Byte|Int16|UInt16|Int32|UInt32|Float32|Float64)\s+(\w+)((?:\[\s*\w+\s*=\s*\d+\s*\])+)\s*;`)
	ddsDimRe = regexp.MustCompile(`\[\s*(\w+)\s*=\s*(\d+)\s*\]`)

	// asciiHeaderRe matches an array header line, e.g. "tmax.tmax[1][360][720]".
	asciiHeaderRe = regexp.MustCompile(`^([\w.]+)((?:\[\d+\])+)$`)
	asciiDimRe    = regexp.MustCompile(`\[(\d+)\]`)

	dasBlockRe = regexp.MustCompile(`(?s)(\w+)\s*\{([^{}]*)\}`)
	dasAttrRe  = regexp.MustCompile(`(?m)^\s*\w+\s+(\w+)\s+(.+?);\s*$`)
)

// Dim is one named array dimension.
type Dim struct {
	Name string
	Size int
}

// DDS maps variable names to their dimensions.
type DDS struct {
	Vars map[string][]Dim
}

// ParseDDS extracts array declarations from a DDS document. When a variable
// appears both as a top-level array and as a Grid map, the first declaration wins.
func ParseDDS(body string) (DDS, error) {
	dds := DDS{Vars: make(map[string][]Dim)}
	for _, m := range ddsVarRe.FindAllStringSubmatch(body, -1) {
		name := m[1]
		if _, seen := dds.Vars[name]; seen {
			continue
		}
		var dims []Dim
		for _, d := range ddsDimRe.FindAllStringSubmatch(m[2], -1) {
			size, err := strconv.Atoi(d[2])
			if err != nil {
				return DDS{}, fmt.Errorf("dds dimension %s of %s: %w", d[1], name, err)
			}
			dims = append(dims, Dim{Name: d[1], Size: size})
		}
		dds.Vars[name] = dims
	}
	if len(dds.Vars) == 0 {
		return DDS{}, errors.New("dds contains no array declarations")
	}
	return dds, nil
}

// DAS maps variable names to their attributes. String values are unquoted.
type DAS map[string]map[string]string

// ParseDAS extracts the flat attribute blocks of a DAS document.
func ParseDAS(body string) DAS {
	das := make(DAS)
	for _, block := range dasBlockRe.FindAllStringSubmatch(body, -1) {
		attrs := make(map[string]string)
		for _, a := range dasAttrRe.FindAllStringSubmatch(block[2], -1) {
			attrs[a[1]] = strings.Trim(strings.TrimSpace(a[2]), `"`)
		}
		das[block[1]] = attrs
	}
	return das
}

// Array is a decoded ASCII array: its shape and row-major values. Missing
// values are NaN.
type Array struct {
	Shape  []int
	Values []float64
}

// ParseASCII decodes the DAP2 ASCII response. Headers like "tmax.lat[360]"
// are keyed by the segment after the last dot ("lat").
func ParseASCII(body string) (map[string]Array, error) {
	if strings.HasPrefix(body, "---") {
		body = "\n" + body
	}
	if i := strings.Index(body, "\n---"); i >= 0 {
		body = body[i+1:]
		if j := strings.IndexByte(body, '\n'); j >= 0 {
			body = body[j+1:]
		} else {
			body = ""
		}
	}

	arrays := make(map[string]Array)
	var current string

	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 1<<20), 1<<26)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if m := asciiHeaderRe.FindStringSubmatch(line); m != nil {
			current = shortName(m[1])
			var shape []int
			for _, d := range asciiDimRe.FindAllStringSubmatch(m[2], -1) {
				n, _ := strconv.Atoi(d[1])
				shape = append(shape, n)
			}
			arrays[current] = Array{Shape: shape, Values: make([]float64, 0, product(shape))}
			continue
		}

		if current == "" {
			return nil, fmt.Errorf("ascii data before any array header: %q", truncate(line))
		}

		// Rows of multi-dimensional arrays carry an index prefix: "[0][12], v, v, ...".
		if strings.HasPrefix(line, "[") {
			comma := strings.IndexByte(line, ',')
			if comma < 0 {
				continue
			}
			line = line[comma+1:]
		}

		arr := arrays[current]
		for _, field := range strings.Split(line, ",") {
			v, err := parseValue(field)
			if err != nil {
				return nil, fmt.Errorf("ascii array %s: %w", current, err)
			}
			arr.Values = append(arr.Values, v)
		}
		arrays[current] = arr
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ascii response: %w", err)
	}

	for name, arr := range arrays {
		if want := product(arr.Shape); len(arr.Values) != want {
			return nil, fmt.Errorf("ascii array %s: got %d values, want %d", name, len(arr.Values), want)
		}
	}
	return arrays, nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse value %q: %w", s, err)
	}
	if math.Abs(v) >= FillThreshold {
		return math.NaN(), nil
	}
	return v, nil
}

func shortName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func truncate(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
