// Package atomic re-exports go.uber.org/atomic under shardql's own import
// path, mirroring the teacher's "3rdparty/atomic" vendoring convention.
/*
 * Copyright (c) 2024, shardql authors.
 */
package atomic

import "go.uber.org/atomic"

type (
	Bool    = atomic.Bool
	Int32   = atomic.Int32
	Int64   = atomic.Int64
	Uint32  = atomic.Uint32
	Uint64  = atomic.Uint64
	Value   = atomic.Value
	Pointer[T any] struct {
		p atomic.Pointer[T]
	}
)

func NewBool(v bool) *Bool     { return atomic.NewBool(v) }
func NewInt64(v int64) *Int64  { return atomic.NewInt64(v) }
func NewUint32(v uint32) *Uint32 { return atomic.NewUint32(v) }

func (p *Pointer[T]) Load() *T       { return p.p.Load() }
func (p *Pointer[T]) Store(v *T)     { p.p.Store(v) }
func (p *Pointer[T]) Swap(v *T) *T   { return p.p.Swap(v) }
