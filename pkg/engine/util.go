package engine

import "encoding/hex"

func hexID(id []byte) string {
	return hex.EncodeToString(id)
}
