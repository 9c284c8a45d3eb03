package service

import "crypto/rand"

// roomCodeAlphabet deliberately excludes I, O, 0 and 1 to avoid visually
// ambiguous codes.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

// GenerateRoomCode produces a 6-character shareable room code by sampling
// the 32-symbol alphabet with replacement. 32 divides 256 so taking each
// byte modulo the alphabet size keeps the sampling uniform.
func GenerateRoomCode() string {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf)
}
