// Package float16 кодирует векторы float32 в полуточный (IEEE 754 binary16)
// формат для хранения в векторном индексе. Порядок байт — little-endian,
// по два байта на компоненту.
package float16

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Bits конвертирует float32 в биты binary16 с округлением к ближайшему чётному.
func Bits(f float32) uint16 {
	u := math.Float32bits(f)
	sign := uint16(u>>16) & 0x8000
	exp := int(u>>23) & 0xff
	frac := u & 0x007fffff

	// Inf / NaN
	if exp == 0xff {
		if frac == 0 {
			return sign | 0x7c00
		}
		m := uint16(frac >> 13)
		if m == 0 {
			m = 1 // NaN не должен схлопнуться в Inf
		}
		return sign | 0x7c00 | m
	}

	e := exp - 127 + 15
	if e >= 0x1f { // переполнение — Inf
		return sign | 0x7c00
	}

	if e <= 0 { // денормал или ноль
		if e < -10 {
			return sign
		}
		frac |= 0x00800000
		shift := uint(14 - e)
		half := frac >> shift
		round := uint32(1) << (shift - 1)
		if frac&round != 0 && (frac&(round-1) != 0 || half&1 != 0) {
			half++
		}
		return sign | uint16(half)
	}

	half := uint16(frac >> 13)
	res := sign | uint16(e)<<10 | half
	round := frac & 0x1fff
	if round > 0x1000 || (round == 0x1000 && half&1 == 1) {
		res++ // перенос мантиссы корректно увеличивает экспоненту
	}
	return res
}

// Float32 восстанавливает float32 из битов binary16.
func Float32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		f := float32(frac) / (1 << 24)
		if sign != 0 {
			return -f
		}
		return f
	case 0x1f:
		if frac == 0 {
			return math.Float32frombits(sign | 0x7f800000)
		}
		return math.Float32frombits(sign | 0x7fc00000 | frac<<13)
	}

	return math.Float32frombits(sign | (exp+112)<<23 | frac<<13)
}

// Encode упаковывает вектор в байты binary16 (по 2 байта на компоненту).
func Encode(vector []float32) []byte {
	buf := make([]byte, 2*len(vector))
	for i, f := range vector {
		binary.LittleEndian.PutUint16(buf[2*i:], Bits(f))
	}
	return buf
}

// Decode распаковывает байты binary16 обратно в вектор float32.
func Decode(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("invalid binary16 payload length: %d", len(data))
	}

	vector := make([]float32, len(data)/2)
	for i := range vector {
		vector[i] = Float32(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return vector, nil
}
