package playerjs

import (
	"fmt"
	"strings"
)

// OpKind is one of the three primitive signature operations.
type OpKind uint8

const (
	OpReverse OpKind = iota + 1
	OpSplice
	OpSwap
)

func (k OpKind) String() string {
	switch k {
	case OpReverse:
		return "reverse"
	case OpSplice:
		return "splice"
	case OpSwap:
		return "swap"
	default:
		return "unknown"
	}
}

// Operation is a single step of a signature program. Index is ignored by
// reverse.
type Operation struct {
	Kind  OpKind
	Index int
}

func (o Operation) String() string {
	if o.Kind == OpReverse {
		return o.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", o.Kind, o.Index)
}

// TransformProgram is the signature operation list recovered from a player
// asset. It is immutable and safe for concurrent use.
type TransformProgram struct {
	ops []Operation
}

func NewTransformProgram(ops ...Operation) *TransformProgram {
	cp := make([]Operation, len(ops))
	copy(cp, ops)
	return &TransformProgram{ops: cp}
}

// Ops returns a copy of the operation list.
func (p *TransformProgram) Ops() []Operation {
	cp := make([]Operation, len(p.ops))
	copy(cp, p.ops)
	return cp
}

func (p *TransformProgram) String() string {
	parts := make([]string, len(p.ops))
	for i, op := range p.ops {
		parts[i] = op.String()
	}
	return strings.Join(parts, ",")
}

// Apply replays the program over s.
func (p *TransformProgram) Apply(s string) (string, error) {
	bs := []byte(s)
	for step, op := range p.ops {
		switch op.Kind {
		case OpReverse:
			reverseBytes(bs)
		case OpSplice:
			if op.Index < 0 || op.Index > len(bs) {
				return "", &ReplayIndexError{Program: ProgramSignature, Step: step, Index: op.Index, Length: len(bs)}
			}
			bs = bs[op.Index:]
		case OpSwap:
			if len(bs) == 0 {
				return "", &ReplayIndexError{Program: ProgramSignature, Step: step, Index: op.Index, Length: 0}
			}
			pos := op.Index % len(bs)
			if pos < 0 {
				pos += len(bs)
			}
			bs[0], bs[pos] = bs[pos], bs[0]
		default:
			return "", &UnsupportedOperationError{Program: ProgramSignature, Shape: op.String()}
		}
	}
	return string(bs), nil
}

func reverseBytes(bs []byte) {
	for l, r := 0, len(bs)-1; l < r; l, r = l+1, r-1 {
		bs[l], bs[r] = bs[r], bs[l]
	}
}

// Programs is everything recovered from one player asset.
type Programs struct {
	AssetKey           string
	Signature          *TransformProgram
	Throttle           *ThrottleProgram
	SignatureTimestamp int
}
