package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fabricio-araujo94/solid/asset"
	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/fabricio-araujo94/solid/log"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50

	// Upper bound for the size of a model file.
	maxModelSize = 512 << 20
)

// Loads binary and ASCII STL models.
type stlLoader struct {
	logger  log.Logger
	fetcher *asset.Fetcher
}

// Create a loader for STL models. Models are retrieved using fetcher.
func NewSTLLoader(fetcher *asset.Fetcher) Loader {
	return &stlLoader{
		logger:  log.New("stl loader"),
		fetcher: fetcher,
	}
}

func (l *stlLoader) Name() string {
	return "stl"
}

func (l *stlLoader) Extensions() []string {
	return []string{".stl"}
}

func (l *stlLoader) Supports(modelURL string) bool {
	return hasExtension(modelURL, l.Extensions()...)
}

func (l *stlLoader) Load(ctx context.Context, modelURL string) (*geometry.Geometry, error) {
	start := time.Now()
	res, err := l.fetcher.Open(ctx, modelURL)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	data, err := readAll(res)
	if err != nil {
		return nil, err
	}

	geom, err := ParseSTL(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrParse, res.Name(), err)
	}

	l.logger.Infof("parsed %d triangles from %q in %d ms", geom.TriangleCount(), res.Path(), time.Since(start).Nanoseconds()/1e6)
	return geom, nil
}

// ParseSTL decodes a binary or ASCII STL payload. A payload is treated as
// binary when its size matches the triangle count stored in its header;
// otherwise it must start with the "solid" keyword.
func ParseSTL(data []byte) (*geometry.Geometry, error) {
	if len(data) >= stlHeaderSize+4 {
		count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(len(data)) == stlHeaderSize+4+uint64(count)*stlTriangleSize {
			return parseBinarySTL(data[stlHeaderSize+4:], int(count))
		}
	}

	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCIISTL(data)
	}

	return nil, fmt.Errorf("unrecognized STL data (%d bytes)", len(data))
}

func parseBinarySTL(data []byte, count int) (*geometry.Geometry, error) {
	if count == 0 {
		return nil, fmt.Errorf("model contains no triangles")
	}

	positions := make([]float32, 0, count*9)
	normals := make([]float32, 0, count*9)
	hasNormals := false
	readFloat := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}

	for tri := 0; tri < count; tri++ {
		off := tri * stlTriangleSize
		n := [3]float32{readFloat(off), readFloat(off + 4), readFloat(off + 8)}
		if n[0] != 0 || n[1] != 0 || n[2] != 0 {
			hasNormals = true
		}
		for v := 0; v < 3; v++ {
			vOff := off + 12 + v*12
			positions = append(positions, readFloat(vOff), readFloat(vOff+4), readFloat(vOff+8))
			normals = append(normals, n[0], n[1], n[2])
		}
	}

	return newSTLGeometry(positions, normals, hasNormals)
}

func parseASCIISTL(data []byte) (*geometry.Geometry, error) {
	var (
		positions  []float32
		normals    []float32
		facetN     [3]float32
		facetVerts int
		inFacet    bool
		hasNormals bool
		lineNum    int
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 {
			continue
		}

		switch strings.ToLower(lineTokens[0]) {
		case "facet":
			if inFacet {
				return nil, fmt.Errorf("line %d: nested facet", lineNum)
			}
			if len(lineTokens) != 5 || strings.ToLower(lineTokens[1]) != "normal" {
				return nil, fmt.Errorf(`line %d: unsupported syntax for "facet"; expected "facet normal nx ny nz"`, lineNum)
			}
			n, err := parseVec3(lineTokens[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s", lineNum, err)
			}
			facetN = [3]float32{n[0], n[1], n[2]}
			if facetN != [3]float32{} {
				hasNormals = true
			}
			inFacet = true
			facetVerts = 0
		case "vertex":
			if !inFacet {
				return nil, fmt.Errorf("line %d: vertex outside of facet", lineNum)
			}
			v, err := parseVec3(lineTokens)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s", lineNum, err)
			}
			facetVerts++
			if facetVerts > 3 {
				return nil, fmt.Errorf("line %d: facet has more than 3 vertices", lineNum)
			}
			positions = append(positions, v[0], v[1], v[2])
			normals = append(normals, facetN[0], facetN[1], facetN[2])
		case "endfacet":
			if !inFacet || facetVerts != 3 {
				return nil, fmt.Errorf("line %d: facet must define exactly 3 vertices; got %d", lineNum, facetVerts)
			}
			inFacet = false
		case "solid", "outer", "endloop", "endsolid":
		default:
			return nil, fmt.Errorf("line %d: unexpected token %q", lineNum, lineTokens[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inFacet {
		return nil, fmt.Errorf("unterminated facet")
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("model contains no triangles")
	}

	return newSTLGeometry(positions, normals, hasNormals)
}

func newSTLGeometry(positions, normals []float32, hasNormals bool) (*geometry.Geometry, error) {
	geom, err := geometry.New(positions)
	if err != nil {
		return nil, err
	}
	if hasNormals {
		geom.Normals = normals
	}
	return geom, nil
}

// Read a model payload enforcing maxModelSize.
func readAll(res *asset.Resource) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(res, maxModelSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrFetch, res.Path(), err)
	}
	if len(data) > maxModelSize {
		return nil, fmt.Errorf("%w: %s: model exceeds %d bytes", ErrParse, res.Path(), maxModelSize)
	}
	return data, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) ([3]float32, error) {
	var v [3]float32
	if len(lineTokens) < 4 {
		return v, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// WriteBinarySTL encodes geom as a binary STL payload. Face normals are
// written when the geometry carries normals; zero normals otherwise.
func WriteBinarySTL(w io.Writer, geom *geometry.Geometry) error {
	count := geom.TriangleCount()
	buf := make([]byte, stlHeaderSize+4+count*stlTriangleSize)
	copy(buf, "binary stl")
	binary.LittleEndian.PutUint32(buf[stlHeaderSize:], uint32(count))

	putFloat := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}
	for tri := 0; tri < count; tri++ {
		off := stlHeaderSize + 4 + tri*stlTriangleSize
		if geom.HasNormals() {
			n := geom.Normal(3 * tri)
			putFloat(off, n[0])
			putFloat(off+4, n[1])
			putFloat(off+8, n[2])
		}
		for v := 0; v < 3; v++ {
			p := geom.Vertex(3*tri + v)
			vOff := off + 12 + v*12
			putFloat(vOff, p[0])
			putFloat(vOff+4, p[1])
			putFloat(vOff+8, p[2])
		}
	}

	_, err := w.Write(buf)
	return err
}
