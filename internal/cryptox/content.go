package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/paaster/internal/common"
)

// randReader is the entropy source for keys and IVs. Tests may swap it.
var randReader io.Reader = rand.Reader

// Sealed is the output of one encryption: the fragment to put after '#'
// in the share URL and the ciphertexts for each supplied payload.
type Sealed struct {
	Fragment string
	// Text is the base64 ciphertext of the text payload, empty when no text was given.
	Text string
	// File is the raw ciphertext of the binary payload, nil when no file was given.
	File []byte
}

// effectiveIV overlays the UTF-8 bytes of password onto the leading bytes
// of iv. Bytes past the password length keep their original value; a
// password longer than the IV is truncated. An empty password leaves iv
// untouched. The original iv is not modified.
func effectiveIV(iv []byte, password string) []byte {
	out := make([]byte, len(iv))
	copy(out, iv)
	if password == "" {
		return out
	}
	copy(out, []byte(password))
	return out
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	// 16-byte tag, 12-byte nonce.
	return cipher.NewGCM(block)
}

func newMaterial() (key, iv []byte, err error) {
	key = make([]byte, KeySize)
	if _, err := io.ReadFull(randReader, key); err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}
	iv = make([]byte, IVSize)
	if _, err := io.ReadFull(randReader, iv); err != nil {
		return nil, nil, fmt.Errorf("generate iv: %w", err)
	}
	return key, iv, nil
}

// Seal encrypts an optional text and an optional file under one fresh key
// and one fresh IV, so that a single fragment opens both. The fragment
// always carries the password-independent IV.
func Seal(text string, file []byte, password string) (*Sealed, error) {
	key, iv, err := newMaterial()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := effectiveIV(iv, password)

	out := &Sealed{}
	if text != "" {
		out.Text = base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, []byte(text), nil))
	}
	if file != nil {
		out.File = aead.Seal(nil, nonce, file, nil)
	}

	out.Fragment, err = EncodeFragment(key, iv)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Encrypt encrypts plaintext under a fresh key and IV and returns the
// fragment and the ciphertext with the GCM tag appended.
func Encrypt(plaintext []byte, password string) (fragment string, ciphertext []byte, err error) {
	if plaintext == nil {
		plaintext = []byte{}
	}
	s, err := Seal("", plaintext, password)
	if err != nil {
		return "", nil, err
	}
	return s.Fragment, s.File, nil
}

// Decrypt opens ciphertext with the key material in fragment. A malformed
// fragment yields common.ErrFormat; any tag failure (wrong fragment, wrong
// or missing password, tampered data) yields common.ErrAuthentication.
func Decrypt(ciphertext []byte, fragment, password string) ([]byte, error) {
	key, iv, err := DecodeFragment(fragment)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, effectiveIV(iv, password), ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthentication
	}

	return plaintext, nil
}

// EncryptText encrypts text and returns the fragment plus the base64
// ciphertext used on the wire.
func EncryptText(text, password string) (fragment, encoded string, err error) {
	fragment, ciphertext, err := Encrypt([]byte(text), password)
	if err != nil {
		return "", "", err
	}
	return fragment, base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptText is the inverse of EncryptText.
func DecryptText(encoded, fragment, password string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not valid base64", common.ErrFormat)
	}

	plaintext, err := Decrypt(ciphertext, fragment, password)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// IsAuthenticationError reports whether err is a tag-check failure.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, common.ErrAuthentication)
}
