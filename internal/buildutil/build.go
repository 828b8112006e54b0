// internal/buildutil/build.go
package buildutil

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	pkgerrors "github.com/pkg/errors"

	"github.com/rill-lang/rill/internal/bytecode"
	"github.com/rill-lang/rill/internal/errors"
)

// Compiled-program file format: 4-byte magic, 1-byte format version, then a
// canonical CBOR payload. Canonical mode keeps encoding deterministic, so
// identical programs produce identical files.
const (
	FormatVersion = 1
	Extension     = ".rlc"
)

var magic = [4]byte{'R', 'I', 'L', 'C'}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("buildutil: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Constant kinds on the wire. The in-memory pool is a heterogeneous
// interface slice, so each entry is tagged explicitly.
const (
	kindNull = iota
	kindNum
	kindBool
	kindStr
	kindFn
)

type wireConst struct {
	Kind  int     `cbor:"k"`
	Num   float64 `cbor:"n,omitempty"`
	Bool  bool    `cbor:"b,omitempty"`
	Str   string  `cbor:"s,omitempty"`
	Name  string  `cbor:"m,omitempty"`
	Index int     `cbor:"i,omitempty"`
	Arity int     `cbor:"a,omitempty"`
}

type wireChunk struct {
	Code   []byte      `cbor:"c"`
	Consts []wireConst `cbor:"v"`
	Lines  []int       `cbor:"l"`
	Cols   []int       `cbor:"o"`
}

type wireFunc struct {
	Name  string    `cbor:"n"`
	Arity int       `cbor:"a"`
	Chunk wireChunk `cbor:"c"`
}

type wireProgram struct {
	Main  wireChunk  `cbor:"m"`
	Funcs []wireFunc `cbor:"f"`
}

// Marshal serializes a compiled program to .rlc bytes.
func Marshal(prog *bytecode.Program) ([]byte, error) {
	wp := wireProgram{Main: toWireChunk(prog.Main)}
	for _, fn := range prog.Functions {
		wp.Funcs = append(wp.Funcs, wireFunc{
			Name:  fn.Name,
			Arity: fn.Arity,
			Chunk: toWireChunk(fn.Chunk),
		})
	}
	payload, err := cborEncMode.Marshal(&wp)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "encode program")
	}
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(FormatVersion)
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Unmarshal deserializes .rlc bytes back into a runnable program, rejecting
// unknown magic or version.
func Unmarshal(data []byte) (*bytecode.Program, error) {
	if len(data) < 5 || !bytes.Equal(data[:4], magic[:]) {
		return nil, pkgerrors.New("not a compiled rill program")
	}
	if data[4] != FormatVersion {
		return nil, pkgerrors.Errorf("unsupported bytecode version %d (want %d)",
			data[4], FormatVersion)
	}
	var wp wireProgram
	if err := cbor.Unmarshal(data[5:], &wp); err != nil {
		return nil, pkgerrors.Wrap(err, "decode program")
	}
	prog := &bytecode.Program{Main: fromWireChunk(wp.Main)}
	for _, fn := range wp.Funcs {
		prog.Functions = append(prog.Functions, &bytecode.FuncProto{
			Name:  fn.Name,
			Arity: fn.Arity,
			Chunk: fromWireChunk(fn.Chunk),
		})
	}
	return prog, nil
}

// WriteFile marshals prog and writes it to path.
func WriteFile(path string, prog *bytecode.Program) (int, error) {
	data, err := Marshal(prog)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, pkgerrors.Wrapf(err, "write %s", path)
	}
	return len(data), nil
}

// ReadFile loads a compiled program from path.
func ReadFile(path string) (*bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read %s", path)
	}
	return Unmarshal(data)
}

func toWireChunk(c *bytecode.Chunk) wireChunk {
	wc := wireChunk{Code: c.Code}
	for _, val := range c.Constants {
		switch v := val.(type) {
		case nil:
			wc.Consts = append(wc.Consts, wireConst{Kind: kindNull})
		case float64:
			wc.Consts = append(wc.Consts, wireConst{Kind: kindNum, Num: v})
		case bool:
			wc.Consts = append(wc.Consts, wireConst{Kind: kindBool, Bool: v})
		case string:
			wc.Consts = append(wc.Consts, wireConst{Kind: kindStr, Str: v})
		case *bytecode.Function:
			wc.Consts = append(wc.Consts, wireConst{
				Kind:  kindFn,
				Name:  v.Name,
				Index: v.Index,
				Arity: v.Arity,
			})
		}
	}
	for _, pos := range c.Positions {
		wc.Lines = append(wc.Lines, pos.Line)
		wc.Cols = append(wc.Cols, pos.Column)
	}
	return wc
}

func fromWireChunk(wc wireChunk) *bytecode.Chunk {
	c := &bytecode.Chunk{Code: wc.Code}
	for _, wcon := range wc.Consts {
		switch wcon.Kind {
		case kindNull:
			c.Constants = append(c.Constants, nil)
		case kindNum:
			c.Constants = append(c.Constants, wcon.Num)
		case kindBool:
			c.Constants = append(c.Constants, wcon.Bool)
		case kindStr:
			c.Constants = append(c.Constants, wcon.Str)
		case kindFn:
			c.Constants = append(c.Constants, &bytecode.Function{
				Name:  wcon.Name,
				Index: wcon.Index,
				Arity: wcon.Arity,
			})
		}
	}
	for i := range wc.Lines {
		c.Positions = append(c.Positions, errors.Position{
			Line:   wc.Lines[i],
			Column: wc.Cols[i],
		})
	}
	return c
}
