package random

import (
	"crypto/rand"
	"math/big"
)

// No 0/O/1/I so ids stay unambiguous when they show up in logs.
const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Code returns a random identifier of the given length, used for the
// message ids the gateway mints when relaying render requests.
func Code(length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(letters)))
	runes := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			runes[i] = letters[0]
			continue
		}
		runes[i] = letters[n.Int64()]
	}
	return string(runes)
}
