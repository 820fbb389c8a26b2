package log

import (
	"go.uber.org/zap"
)

var (
	Skip        = zap.Skip
	Binary      = zap.Binary
	Bool        = zap.Bool
	ByteString  = zap.ByteString
	Float       = zap.Float64
	Float64     = zap.Float64
	Float32     = zap.Float32
	Int         = zap.Int
	Int64       = zap.Int64
	Int32       = zap.Int32
	Uint        = zap.Uint
	Uint32      = zap.Uint32
	Uint64      = zap.Uint64
	String      = zap.String
	Strings     = zap.Strings
	Stringer    = zap.Stringer
	Time        = zap.Time
	Duration    = zap.Duration
	Any         = zap.Any
	ErrorField  = zap.Error
	NamedError  = zap.NamedError
	Stack       = zap.Stack
	StackSkip   = zap.StackSkip
	Namespace   = zap.Namespace
	Reflect     = zap.Reflect
	Inline      = zap.Inline
	Object      = zap.Object
	Array       = zap.Array
	Int64s      = zap.Int64s
	Ints        = zap.Ints
	ByteStrings = zap.ByteStrings
)
