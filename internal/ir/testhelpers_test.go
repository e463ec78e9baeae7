package ir

import "math"

func posInf() float64 { return math.Inf(1) }

func ptr[T any](v T) *T { return &v }
