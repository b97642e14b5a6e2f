package corpus

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/pagedex-io/pagedex/internal/domain"
)

// buildHashFields converts a chunk into a flat map[string]string for HSET.
func buildHashFields(c *domain.Chunk) map[string]string {
	return map[string]string{
		"__content": c.Text,
		"__vector":  vectorToBytes(c.Vector),
		"page":      strconv.Itoa(c.Page),
		"source":    c.Source,
		"file_path": c.FilePath,
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
