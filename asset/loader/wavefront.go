package loader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fabricio-araujo94/solid/asset"
	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/fabricio-araujo94/solid/log"
)

// Loads the geometry of wavefront obj models. Materials, texture
// coordinates and object grouping are ignored.
type wavefrontLoader struct {
	logger  log.Logger
	fetcher *asset.Fetcher
}

// Create a loader for wavefront obj models.
func NewWavefrontLoader(fetcher *asset.Fetcher) Loader {
	return &wavefrontLoader{
		logger:  log.New("wavefront loader"),
		fetcher: fetcher,
	}
}

func (l *wavefrontLoader) Name() string {
	return "wavefront"
}

func (l *wavefrontLoader) Extensions() []string {
	return []string{".obj"}
}

func (l *wavefrontLoader) Supports(modelURL string) bool {
	return hasExtension(modelURL, l.Extensions()...)
}

func (l *wavefrontLoader) Load(ctx context.Context, modelURL string) (*geometry.Geometry, error) {
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

	geom, err := ParseWavefront(res.Name(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}

	l.logger.Infof("parsed %d triangles from %q in %d ms", geom.TriangleCount(), res.Path(), time.Since(start).Nanoseconds()/1e6)
	return geom, nil
}

type wavefrontParser struct {
	name string

	vertexList [][3]float32
	normalList [][3]float32

	positions []float32
	normals   []float32

	// Cleared as soon as a face without normals is parsed.
	allFacesHaveNormals bool
}

// ParseWavefront decodes the triangle geometry of a wavefront obj payload.
// Name is only used for error messages.
func ParseWavefront(name string, data []byte) (*geometry.Geometry, error) {
	p := &wavefrontParser{
		name:                name,
		allFacesHaveNormals: true,
	}
	if err := p.parse(data); err != nil {
		return nil, err
	}
	if len(p.positions) == 0 {
		return nil, fmt.Errorf("%s: model contains no faces", name)
	}

	geom, err := geometry.New(p.positions)
	if err != nil {
		return nil, err
	}
	if p.allFacesHaveNormals {
		geom.Normals = p.normals
	}
	return geom, nil
}

// Generate an error message annotated with the file name and line.
func (p *wavefrontParser) emitError(line int, msgFormat string, args ...interface{}) error {
	return fmt.Errorf("[%s: %d] error: %s", p.name, line, fmt.Sprintf(msgFormat, args...))
}

func (p *wavefrontParser) parse(data []byte) error {
	var lineNum int = 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return p.emitError(lineNum, "%s", err)
			}
			p.vertexList = append(p.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return p.emitError(lineNum, "%s", err)
			}
			p.normalList = append(p.normalList, v)
		case "f":
			if err := p.parseFace(lineTokens); err != nil {
				return p.emitError(lineNum, "%s", err)
			}
		}
	}

	return scanner.Err()
}

// Parse face definition. Each face definitions consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex/normal list. Quads are split into two triangles.
func (p *wavefrontParser) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d`, len(lineTokens)-1)
	}

	var vertices [4][3]float32
	var normals [4][3]float32
	expIndices := 0
	normalCount := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(p.vertexList))
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = p.vertexList[vOffset]

		if expIndices > 2 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(p.normalList))
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = p.normalList[vOffset]
			normalCount++
		}
	}

	argCount := len(lineTokens) - 1
	if normalCount != argCount {
		p.allFacesHaveNormals = false
	}

	indiceList := [][3]int{{0, 1, 2}}
	if argCount == 4 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}
	for _, indices := range indiceList {
		for _, selectIndex := range indices {
			v, n := vertices[selectIndex], normals[selectIndex]
			p.positions = append(p.positions, v[0], v[1], v[2])
			p.normals = append(p.normals, n[0], n[1], n[2])
		}
	}

	return nil
}

// Given an index for a face coord type (vertex, normal) calculate the proper
// offset into the coord list. Negative indices reference elements from the
// end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}
