package float16

import (
	"math"
	"testing"
)

func TestBitsRoundTripExact(t *testing.T) {
	// Значения, точно представимые в binary16, восстанавливаются без потерь.
	tests := []struct {
		name  string
		input float32
	}{
		{name: "zero", input: 0},
		{name: "one", input: 1},
		{name: "negative two", input: -2},
		{name: "half", input: 0.5},
		{name: "quarter", input: -0.25},
		{name: "max half", input: 65504},
		{name: "small normal", input: 0.0009765625}, // 2^-10
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Float32(Bits(test.input))
			if got != test.input {
				t.Errorf("Float32(Bits(%v)) = %v, want exact round-trip", test.input, got)
			}
		})
	}
}

func TestBitsRoundTripTolerance(t *testing.T) {
	// Компоненты эмбеддингов лежат примерно в [-1, 1]; относительная ошибка
	// полуточного округления не должна превышать 2^-10.
	const maxRelErr = 1.0 / 1024

	inputs := []float32{0.1, 0.2, -0.3337, 0.70710678, -0.99999, 0.0123456, 1.5, -3.14159}
	for _, in := range inputs {
		got := Float32(Bits(in))
		relErr := math.Abs(float64(got-in)) / math.Abs(float64(in))
		if relErr > maxRelErr {
			t.Errorf("Bits(%v): relative error %v exceeds %v (got %v)", in, relErr, maxRelErr, got)
		}
	}
}

func TestBitsSpecialValues(t *testing.T) {
	posInf := float32(math.Inf(1))
	negInf := float32(math.Inf(-1))

	if got := Float32(Bits(posInf)); !math.IsInf(float64(got), 1) {
		t.Errorf("+Inf round-trip = %v", got)
	}
	if got := Float32(Bits(negInf)); !math.IsInf(float64(got), -1) {
		t.Errorf("-Inf round-trip = %v", got)
	}
	if got := Float32(Bits(float32(math.NaN()))); !math.IsNaN(float64(got)) {
		t.Errorf("NaN round-trip = %v", got)
	}
	// Переполнение диапазона binary16 уходит в бесконечность.
	if got := Float32(Bits(1e30)); !math.IsInf(float64(got), 1) {
		t.Errorf("overflow round-trip = %v, want +Inf", got)
	}
	// Слишком маленькое значение схлопывается в ноль с сохранением знака.
	if got := Float32(Bits(-1e-30)); got != 0 || math.Signbit(float64(got)) != true {
		t.Errorf("underflow round-trip = %v, want -0", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{name: "empty", input: []float32{}},
		{name: "single", input: []float32{0.5}},
		{name: "vector", input: []float32{0.1, -0.2, 0.3, -0.4, 1, 0}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := Encode(test.input)
			if len(data) != 2*len(test.input) {
				t.Fatalf("Encode length = %d, want %d", len(data), 2*len(test.input))
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if len(got) != len(test.input) {
				t.Fatalf("Decode length = %d, want %d", len(got), len(test.input))
			}

			const maxRelErr = 1.0 / 1024
			for i := range got {
				if test.input[i] == 0 {
					if got[i] != 0 {
						t.Errorf("component %d: got %v, want 0", i, got[i])
					}
					continue
				}
				relErr := math.Abs(float64(got[i]-test.input[i])) / math.Abs(float64(test.input[i]))
				if relErr > maxRelErr {
					t.Errorf("component %d: relative error %v exceeds %v", i, relErr, maxRelErr)
				}
			}
		})
	}
}

func TestDecodeOddLength(t *testing.T) {
	if _, err := Decode([]byte{0x00, 0x3c, 0xff}); err == nil {
		t.Error("Decode with odd payload length should fail")
	}
}
