// Package cryptox implements the confidential-sharing primitives: the
// base-62 fragment that carries key material in a URL, and AES-GCM
// encryption of text and binary payloads.
package cryptox

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/paaster/internal/common"
)

const (
	// KeySize is the AES-128 key length in bytes.
	KeySize = 16
	// IVSize is the GCM nonce length in bytes.
	IVSize = 12
	// FragmentLength is the fixed width of an encoded fragment: the number
	// of base-62 digits needed for the largest 224-bit value.
	FragmentLength = 38

	materialSize = KeySize + IVSize
)

// FragmentAlphabet maps digit values 0..61 to characters. It matches the
// digit set used by math/big for bases above 36.
const FragmentAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// EncodeFragment packs key||iv into a 38-character base-62 string.
// The concatenation is read as one big-endian unsigned integer and the
// result is left-padded with '0' so leading zero bytes survive.
func EncodeFragment(key, iv []byte) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrFormat, KeySize, len(key))
	}
	if len(iv) != IVSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", common.ErrFormat, IVSize, len(iv))
	}

	material := make([]byte, 0, materialSize)
	material = append(material, key...)
	material = append(material, iv...)
	defer common.WipeByteArray(material)

	digits := new(big.Int).SetBytes(material).Text(62)

	return strings.Repeat(string(FragmentAlphabet[0]), FragmentLength-len(digits)) + digits, nil
}

// DecodeFragment reverses EncodeFragment. Input of the wrong length, with
// characters outside the alphabet, or encoding a value wider than 224 bits
// is rejected with common.ErrFormat.
func DecodeFragment(fragment string) (key, iv []byte, err error) {
	if len(fragment) != FragmentLength {
		return nil, nil, fmt.Errorf("%w: fragment must be %d characters, got %d", common.ErrFormat, FragmentLength, len(fragment))
	}
	for i := 0; i < len(fragment); i++ {
		if strings.IndexByte(FragmentAlphabet, fragment[i]) < 0 {
			return nil, nil, fmt.Errorf("%w: fragment contains invalid character at position %d", common.ErrFormat, i)
		}
	}

	// big.Int.SetString would also accept a sign prefix, ruled out above.
	n, ok := new(big.Int).SetString(fragment, 62)
	if !ok {
		return nil, nil, fmt.Errorf("%w: fragment is not a base-62 number", common.ErrFormat)
	}
	if n.BitLen() > materialSize*8 {
		return nil, nil, fmt.Errorf("%w: fragment value out of range", common.ErrFormat)
	}

	material := n.FillBytes(make([]byte, materialSize))

	key = make([]byte, KeySize)
	iv = make([]byte, IVSize)
	copy(key, material[:KeySize])
	copy(iv, material[KeySize:])
	common.WipeByteArray(material)

	return key, iv, nil
}
