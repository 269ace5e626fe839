package decoder_test

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	tjassert "github.com/tj/assert"

	"github.com/wiretrace/trice/internal/decoder"
	"github.com/wiretrace/trice/internal/id"
	"github.com/wiretrace/trice/internal/wire"
)

func mustTable(t *testing.T, js string) *id.Table {
	t.Helper()
	tbl, err := id.LoadTable(strings.NewReader(js))
	assert.Nil(t, err)
	return tbl
}

func f32le(v float32) []byte {
	return wire.LittleEndian.AppendUint32(nil, math.Float32bits(v))
}

// TestScenarioPolymorphicNested matches spec.md section 8's concrete
// scenario: format "x={:?}" at level Info, with a table-backed timestamp
// (here a single {=u8} so the example's byte stream works out) and a
// nested user type "Foo {{ x: {=f32} }}".
func TestScenarioPolymorphicNested(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "timestamp", "fmt": "{=u8}"},
		"1": {"type": "write", "fmt": "Foo {{ x: {=f32} }}"},
		"2": {"type": "log", "level": "INFO", "fmt": "x={:?}"}
	}`)
	var b []byte
	b = wire.AppendVarint(b, 2) // log index
	b = append(b, 1)            // timestamp u8 value
	b = wire.AppendVarint(b, 1) // poly index -> nested write entry
	b = append(b, f32le(1.1e-10)...)

	f, n, err := decoder.Decode(tbl, b)
	assert.Nil(t, err)
	assert.Equal(t, len(b), n)

	rendered := f.Display(false)
	assert.True(t, strings.HasPrefix(rendered, "INFO x=Foo { x: "), rendered)
	assert.True(t, strings.HasSuffix(rendered, " }"), rendered)
	numStr := strings.TrimSuffix(strings.TrimPrefix(rendered, "INFO x=Foo { x: "), " }")
	parsed, err := strconv.ParseFloat(numStr, 32)
	assert.Nil(t, err)
	assert.Equal(t, float32(1.1e-10), float32(parsed))
}

func TestScenarioHelloNoArgs(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "timestamp", "fmt": "{=u8}"},
		"1": {"type": "log", "level": "INFO", "fmt": "hello"}
	}`)
	var b []byte
	b = wire.AppendVarint(b, 1)
	b = append(b, 9) // timestamp value, irrelevant to the render
	f, n, err := decoder.Decode(tbl, b)
	assert.Nil(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, "INFO hello", f.Display(false))
}

func TestScenarioTwoU8Args(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "log", "level": "INFO", "fmt": "a={=u8} b={=u8}"}
	}`)
	b := []byte{0, 1, 2}
	f, n, err := decoder.Decode(tbl, b)
	assert.Nil(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "INFO a=1 b=2", f.Display(false))
}

func TestScenarioBoolPacking(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "log", "level": "INFO", "fmt": "{=bool} {=bool} {=u8}"}
	}`)
	b := []byte{0, 7, 0x01}
	f, n, err := decoder.Decode(tbl, b)
	assert.Nil(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "INFO true false 7", f.Display(false))
}

func TestScenarioStr(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "log", "level": "INFO", "fmt": "{=str}"}
	}`)
	b := []byte{0, 2, 'h', 'i'}
	f, n, err := decoder.Decode(tbl, b)
	assert.Nil(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, "INFO hi", f.Display(false))
}

// TestBoolPackingInvariant is spec.md section 8 property 2: k bools
// consume exactly ceil(k/8) trailing bytes, LSB-first in order.
func TestBoolPackingInvariant(t *testing.T) {
	for k := 1; k <= 17; k++ {
		var fmtStr strings.Builder
		for i := 0; i < k; i++ {
			if i > 0 {
				fmtStr.WriteByte(' ')
			}
			fmtStr.WriteString("{=bool}")
		}
		tbl := mustTable(t, `{"0": {"type": "log", "level": "INFO", "fmt": "`+fmtStr.String()+`"}}`)

		bits := make([]bool, k)
		var pool wire.BoolPool
		var packed []byte
		for i := range bits {
			bits[i] = i%3 == 0
			if fb, ok := pool.Push(bits[i]); ok {
				packed = append(packed, fb)
			}
		}
		if fb, ok := pool.Flush(); ok {
			packed = append(packed, fb)
		}
		expectedBytes := (k + 7) / 8
		tjassert.Equal(t, expectedBytes, len(packed))

		b := append([]byte{0}, packed...)
		f, n, err := decoder.Decode(tbl, b)
		assert.Nil(t, err)
		assert.Equal(t, len(b), n)
		for i, want := range bits {
			assert.Equal(t, want, f.Args[i].Bool, "bit %d", i)
		}
	}
}

// TestPolymorphicOrdering is spec.md section 8 property 3.
func TestPolymorphicOrdering(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "write", "fmt": "A{=u8}"},
		"1": {"type": "write", "fmt": "B{=u8}"},
		"2": {"type": "log", "level": "INFO", "fmt": "{} {}"}
	}`)
	var b []byte
	b = wire.AppendVarint(b, 2)
	b = wire.AppendVarint(b, 0) // first poly index
	b = wire.AppendVarint(b, 1) // second poly index
	b = append(b, 10, 20)       // field bytes, left to right
	f, n, err := decoder.Decode(tbl, b)
	assert.Nil(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, "INFO A10 B20", f.Display(false))
}

// TestScenarioI128RendersSigned covers spec.md section 3's i128 capture
// type: the wire layout is two's-complement, and -1 must render as "-1",
// not as its unsigned two's-complement magnitude.
func TestScenarioI128RendersSigned(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "log", "level": "INFO", "fmt": "{=i128}"}
	}`)
	var b []byte
	b = wire.AppendVarint(b, 0)
	allOnes := make([]byte, 16)
	for i := range allOnes {
		allOnes[i] = 0xFF
	}
	b = append(b, allOnes...) // -1 in two's complement, little endian
	f, n, err := decoder.Decode(tbl, b)
	assert.Nil(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, "INFO -1", f.Display(false))
}

func TestUnknownIndexIsMalformed(t *testing.T) {
	tbl := mustTable(t, `{"0": {"type": "log", "level": "INFO", "fmt": "hi"}}`)
	_, _, err := decoder.Decode(tbl, []byte{5})
	assert.NotNil(t, err)
}

func TestRawStreamDecoderNeedMoreOnPartialBuffer(t *testing.T) {
	tbl := mustTable(t, `{"0": {"type": "log", "level": "INFO", "fmt": "{=u32}"}}`)
	lut := id.NewLookupTable(tbl)
	full := []byte{0, 1, 2, 3, 4}

	for l := 0; l < len(full); l++ {
		r := decoder.NewRaw(lut)
		r.Received(full[:l])
		_, err := r.Decode()
		assert.ErrorIs(t, err, decoder.ErrNeedMore, "prefix length %d", l)
	}

	r := decoder.NewRaw(lut)
	r.Received(full)
	f, err := r.Decode()
	assert.Nil(t, err)
	assert.Equal(t, "INFO 67305985", f.Display(false))
}

func TestRzcobsFramingRecoversAfterGarbage(t *testing.T) {
	tbl := mustTable(t, `{"0": {"type": "log", "level": "INFO", "fmt": "hi"}}`)
	lut := id.NewLookupTable(tbl)

	valid := wire.AppendVarint(nil, 0)
	stuffed := wire.RzcobsStuff(valid)

	var stream []byte
	stream = append(stream, 0xFF, 0xFF, 0xFF, 0x00) // malformed run, then delimiter
	stream = append(stream, stuffed...)
	stream = append(stream, 0x00) // valid frame delimiter

	r := decoder.NewRzcobs(lut)
	r.Received(stream)

	_, err := r.Decode()
	assert.ErrorIs(t, err, decoder.ErrMalformed)

	f, err := r.Decode()
	assert.Nil(t, err)
	assert.Equal(t, "INFO hi", f.Display(false))
}

func TestRzcobsTwoFramesInOrder(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "log", "level": "INFO", "fmt": "first"},
		"1": {"type": "log", "level": "WARN", "fmt": "second"}
	}`)
	lut := id.NewLookupTable(tbl)

	f1 := wire.RzcobsStuff(wire.AppendVarint(nil, 0))
	f2 := wire.RzcobsStuff(wire.AppendVarint(nil, 1))

	r := decoder.NewRzcobs(lut)
	r.Received(append(append(append([]byte{}, f1...), 0), append(f2, 0)...))

	got1, err := r.Decode()
	assert.Nil(t, err)
	assert.Equal(t, "INFO first", got1.Display(false))

	got2, err := r.Decode()
	assert.Nil(t, err)
	assert.Equal(t, "WARN second", got2.Display(false))
}
