package vm

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
)

// Chunk file layout:
//   - Magic number (4 bytes): "LUMC"
//   - Version (1 byte): 0x01
//   - Canonical CBOR encoding of wireChunk
var chunkMagic = []byte("LUMC")

const chunkFormatVersion byte = 0x01

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireConstant struct {
	Type   ValueType `cbor:"t"`
	Number float64   `cbor:"n,omitempty"`
	Bool   bool      `cbor:"b,omitempty"`
	Str    string    `cbor:"s,omitempty"`
}

type wireChunk struct {
	Code      []byte         `cbor:"code"`
	Constants []wireConstant `cbor:"constants"`
	Lines     []int          `cbor:"lines"`
	Globals   map[string]int `cbor:"globals,omitempty"`
	File      string         `cbor:"file,omitempty"`
}

func serializationError(format string, args ...interface{}) error {
	return diagnostics.NewError(diagnostics.ErrD001, 0, format, args...)
}

// Serialize encodes the chunk in the chunk file format
func (c *Chunk) Serialize() ([]byte, error) {
	w := wireChunk{
		Code:      c.Code,
		Constants: make([]wireConstant, len(c.Constants)),
		Lines:     c.Lines,
		Globals:   c.Globals,
		File:      c.File,
	}
	for i, v := range c.Constants {
		wc := wireConstant{Type: v.Type}
		switch v.Type {
		case ValNumber:
			wc.Number = v.AsNumber()
		case ValBool:
			wc.Bool = v.AsBool()
		case ValString:
			wc.Str = v.AsString()
		}
		w.Constants[i] = wc
	}

	payload, err := cborEncMode.Marshal(&w)
	if err != nil {
		return nil, serializationError("encode chunk: %v", err)
	}

	var buf bytes.Buffer
	buf.Write(chunkMagic)
	buf.WriteByte(chunkFormatVersion)
	buf.Write(payload)
	return buf.Bytes(), nil
}

// IsChunkFile reports whether data starts with the chunk file magic
func IsChunkFile(data []byte) bool {
	return len(data) >= len(chunkMagic) && bytes.Equal(data[:len(chunkMagic)], chunkMagic)
}

// DeserializeChunk decodes and validates a chunk file
func DeserializeChunk(data []byte) (*Chunk, error) {
	if len(data) < len(chunkMagic)+1 {
		return nil, serializationError("data too short")
	}
	if !IsChunkFile(data) {
		return nil, serializationError("invalid magic number, expected LUMC")
	}
	if version := data[len(chunkMagic)]; version != chunkFormatVersion {
		return nil, serializationError("unsupported bytecode version %d", version)
	}

	var w wireChunk
	if err := cbor.Unmarshal(data[len(chunkMagic)+1:], &w); err != nil {
		return nil, serializationError("unmarshal chunk: %v", err)
	}
	if len(w.Lines) != len(w.Code) {
		return nil, serializationError("line table has %d entries for %d bytes of code", len(w.Lines), len(w.Code))
	}

	c := &Chunk{
		Code:      w.Code,
		Constants: make([]Value, len(w.Constants)),
		Lines:     w.Lines,
		Globals:   w.Globals,
		File:      w.File,
	}
	if c.Code == nil {
		c.Code = []byte{}
		c.Lines = []int{}
	}
	if c.Globals == nil {
		c.Globals = make(map[string]int)
	}
	for i, wc := range w.Constants {
		switch wc.Type {
		case ValNil:
			c.Constants[i] = NilVal()
		case ValNumber:
			c.Constants[i] = NumberVal(wc.Number)
		case ValBool:
			c.Constants[i] = BoolVal(wc.Bool)
		case ValString:
			c.Constants[i] = StringVal(wc.Str)
		default:
			return nil, serializationError("constant %d has unknown type %d", i, wc.Type)
		}
	}
	return c, nil
}
