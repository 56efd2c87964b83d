package swc

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuromorph/internal/models"
)

// twoNodeTree is the smallest valid skeleton: a root and one end point
func twoNodeTree() []models.SkeletonNode {
	return []models.SkeletonNode{
		{
			Index:        1,
			AnnotationID: 100,
			Class:        models.ClassRoot,
			XYZum:        [3]float64{10.25, 20.5, 30},
			Rum:          2.5,
			Parent:       models.NoParent,
		},
		{
			Index:        2,
			AnnotationID: 101,
			Class:        models.ClassEndPoint,
			XYZum:        [3]float64{11, 21, 31.5},
			Rum:          0.75,
			Parent:       1,
		},
	}
}

// TestWriteToDataFormat pins the exact fixed-precision row layout the
// downstream morphology tools depend on
func TestWriteToDataFormat(t *testing.T) {
	var buf bytes.Buffer
	hdr := Header{Cell: "CBb5w 593", Source: "RC1", Species: "rabbit"}

	require.NoError(t, WriteTo(&buf, hdr, twoNodeTree()))

	var dataLines []string
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if !strings.HasPrefix(line, "#") {
			dataLines = append(dataLines, line)
		}
	}

	require.Len(t, dataLines, 2)
	assert.Equal(t, "1 1 10.2500 20.5000 30.00 2.5000 -1", dataLines[0])
	assert.Equal(t, "2 6 11.0000 21.0000 31.50 0.7500 1", dataLines[1])
}

func TestWriteToHeader(t *testing.T) {
	var buf bytes.Buffer
	hdr := Header{Cell: "CBb5w 593", Source: "RC1", Species: "rabbit"}

	require.NoError(t, WriteTo(&buf, hdr, twoNodeTree()))
	out := buf.String()

	assert.Contains(t, out, "# CELL CBb5w 593\n")
	assert.Contains(t, out, "# SPECIES rabbit\n")
	assert.Contains(t, out, "# REGION retina\n", "RC1 must resolve through the fixed volume lookup")
	assert.Contains(t, out, "# VERSION 1.0\n")
	assert.Contains(t, out, "# SCALE 1.0 1.0 1.0\n")

	// Soma radius falls back to the root record's radius (2.5 um)
	wantArea := math.Pi * 2.5 * 2.5
	assert.Contains(t, out, "# SOMA_AREA 19.6350\n")
	assert.InDelta(t, 19.635, wantArea, 1e-3)
}

func TestWriteToExplicitRegionAndSoma(t *testing.T) {
	var buf bytes.Buffer
	hdr := Header{
		Cell:       "AC 9769",
		Source:     "unlisted-volume",
		Species:    "mouse",
		Region:     "cortex",
		SomaRadius: 4,
	}

	require.NoError(t, WriteTo(&buf, hdr, twoNodeTree()))
	out := buf.String()

	assert.Contains(t, out, "# REGION cortex\n")
	assert.Contains(t, out, "# SOMA_AREA 50.2655\n") // pi * 16
}

func TestRegionForSource(t *testing.T) {
	assert.Equal(t, "retina", RegionForSource("RC1"))
	assert.Equal(t, "retina", RegionForSource(" RPC1 "))
	assert.Equal(t, "unknown", RegionForSource("somewhere-else"))
}

func TestWriteCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cell.swc")
	hdr := Header{Cell: "CBb5w 593", Source: "RC1", Species: "rabbit"}

	require.NoError(t, Write(path, hdr, twoNodeTree()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# SWC skeleton export\n"))
	assert.True(t, strings.HasSuffix(string(data), "1\n"), "file must end with a complete data row")
}

// TestWriteMissingDirectoryIsFatal: the writer does not create output
// directories; a missing one fails before any data is written
func TestWriteMissingDirectoryIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "cell.swc")
	err := Write(path, Header{}, twoNodeTree())
	require.Error(t, err)
}
