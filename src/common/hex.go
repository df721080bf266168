package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

//EncodeToString returns the UPPERCASE string representation of hexBytes with
//the 0X prefix
func EncodeToString(hexBytes []byte) string {
	return fmt.Sprintf("0X%X", hexBytes)
}

//DecodeFromString converts a hex string with 0X prefix to a byte slice. A
//string without the prefix is an error.
func DecodeFromString(hexString string) ([]byte, error) {
	if !strings.HasPrefix(hexString, "0X") && !strings.HasPrefix(hexString, "0x") {
		return nil, fmt.Errorf("missing 0X prefix")
	}
	return hex.DecodeString(hexString[2:])
}
