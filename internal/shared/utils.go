// Package shared provides utility functions for generating the random
// identifiers carried on issued certificates.
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// certCodeAlphabet omits 0/O, 1/I and L, which read ambiguously on a
// printed certificate.
const certCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string. As a result, the final string length
// will be twice the size (since each byte expands to two hex characters).
//
// Example:
//
//	s, err := MakeRandHexString(16)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(s) // e.g., "9f2d4c3a5e6b1a7d..."
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {

	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// MakeCertificateCode generates a public, human-typable certificate code of
// the form "CERT-XXXXXXXX" using an unambiguous uppercase alphabet. Codes are
// random, not sequential, so they reveal nothing about issuance volume.
func MakeCertificateCode() (string, error) {
	const n = 8

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	out := make([]byte, n)
	for i, v := range b {
		out[i] = certCodeAlphabet[int(v)%len(certCodeAlphabet)]
	}

	return fmt.Sprintf("CERT-%s", out), nil
}

// MakeVerificationCode generates the long-form code used for authenticity
// lookups. It is kept distinct from the certificate code: the certificate
// code is printed on the document, the verification code is embedded in the
// public verification URL.
func MakeVerificationCode() (string, error) {
	return MakeRandHexString(16)
}
