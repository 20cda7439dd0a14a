package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"hash"
)

// Const declarations for common.go operations
const (
	HashSHA256 = iota
	HashSHA512
)

var errUnsupportedHashType = errors.New("unsupported hash type")

// GetSHA256 returns a SHA256 hash of a byte array
func GetSHA256(input []byte) ([]byte, error) {
	return GetHash(HashSHA256, input)
}

// GetHash returns a digest of input using the given hash type
func GetHash(hashType int, input []byte) ([]byte, error) {
	fn, err := hashFunc(hashType)
	if err != nil {
		return nil, err
	}
	h := fn()
	if _, err := h.Write(input); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// GetHMAC returns a keyed-hash message authentication code using the desired
// hashtype
func GetHMAC(hashType int, input, key []byte) ([]byte, error) {
	fn, err := hashFunc(hashType)
	if err != nil {
		return nil, err
	}
	h := hmac.New(fn, key)
	if _, err := h.Write(input); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// Base64Decode takes in a Base64 string and returns a byte array and an error
func Base64Decode(input string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(input)
}

// Base64Encode takes in a byte array then returns an encoded base64 string
func Base64Encode(input []byte) string {
	return base64.StdEncoding.EncodeToString(input)
}

func hashFunc(hashType int) (func() hash.Hash, error) {
	switch hashType {
	case HashSHA256:
		return sha256.New, nil
	case HashSHA512:
		return sha512.New, nil
	}
	return nil, errUnsupportedHashType
}
