package ops

import "otsproof/internal/otsproof/bytestream"

// Decode reads an operation's immediate body for the given tag, returning
// the reconstructed Op. Variable-length bodies are rejected past
// MaxVariableDataLen; SUBSTR canonicalizes its length sentinel per
// SubstrToEnd.
func Decode(tag byte, r *bytestream.Reader) (Op, error) {
	switch tag {
	case TagSHA1:
		return SHA1Op{}, nil
	case TagRIPEMD160:
		return RIPEMD160Op{}, nil
	case TagSHA256:
		return SHA256Op{}, nil
	case TagKeccak256:
		return Keccak256Op{}, nil
	case TagReverse:
		return ReverseOp{}, nil
	case TagHexlify:
		return HexlifyOp{}, nil
	case TagUnhexlify:
		return UnhexlifyOp{}, nil
	case TagAppend:
		data, err := readVariableData(r)
		if err != nil {
			return nil, err
		}
		return AppendOp{Data: data}, nil
	case TagPrepend:
		data, err := readVariableData(r)
		if err != nil {
			return nil, err
		}
		return PrependOp{Data: data}, nil
	case TagXor:
		key, err := readVariableData(r)
		if err != nil {
			return nil, err
		}
		return XorOp{Key: key}, nil
	case TagAnd:
		mask, err := readVariableData(r)
		if err != nil {
			return nil, err
		}
		return AndOp{Mask: mask}, nil
	case TagOr:
		mask, err := readVariableData(r)
		if err != nil {
			return nil, err
		}
		return OrOp{Mask: mask}, nil
	case TagSubstr:
		start, err := r.ReadVarUint()
		if err != nil {
			return nil, err
		}
		length, err := r.ReadVarUint()
		if err != nil {
			return nil, err
		}
		if length != SubstrToEnd && length == 0 {
			return nil, ErrBadSubstrLen
		}
		return SubstrOp{Start: start, Len: length}, nil
	case TagLeft:
		n, err := r.ReadVarUint()
		if err != nil {
			return nil, err
		}
		return LeftOp{Len: n}, nil
	case TagRight:
		n, err := r.ReadVarUint()
		if err != nil {
			return nil, err
		}
		return RightOp{Len: n}, nil
	default:
		return nil, ErrUnknownOpTag
	}
}

func readVariableData(r *bytestream.Reader) ([]byte, error) {
	n, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if n > MaxVariableDataLen {
		return nil, ErrBodyTooLong
	}
	return r.ReadBytes(int(n))
}
