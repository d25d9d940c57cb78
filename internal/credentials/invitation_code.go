package credentials

import (
	"crypto/rand"
	"math/big"
)

// CodeLength is the number of symbols in an invitation code
const CodeLength = 8

// CodeAlphabet leaves out 0, O, 1 and I so codes survive being read aloud
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateInvitationCode draws a random code of CodeLength symbols from
// CodeAlphabet
func GenerateInvitationCode() (string, error) {
	code := make([]byte, CodeLength)
	max := big.NewInt(int64(len(CodeAlphabet)))

	for i := 0; i < CodeLength; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = CodeAlphabet[num.Int64()]
	}

	return string(code), nil
}

// IsWellFormedCode reports whether s could have been produced by
// GenerateInvitationCode
func IsWellFormedCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !inAlphabet(s[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	for i := 0; i < len(CodeAlphabet); i++ {
		if CodeAlphabet[i] == c {
			return true
		}
	}
	return false
}
