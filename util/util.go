package util

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/initia-labs/transfervolume/types"
)

// NormalizeEvmAddress renders an EVM address as 40 lowercase hex characters
// without the 0x prefix. Short inputs are left padded.
func NormalizeEvmAddress(addrStr string) (string, error) {
	hexStr := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(addrStr, "0x"), "0X"))
	if len(hexStr) > 2*common.AddressLength {
		return "", types.NewInvalidValueError("address", addrStr, "invalid address format")
	}
	if _, err := hex.DecodeString(padEven(hexStr)); err != nil {
		return "", types.NewInvalidValueError("address", addrStr, "invalid hex")
	}
	return BytesToHex(common.HexToAddress(hexStr).Bytes()), nil
}

func HexToBytes(hexStr string) ([]byte, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	if hexStr == "" {
		return []byte{}, nil
	}
	return hex.DecodeString(padEven(hexStr))
}

func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

func BytesToHexWithPrefix(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// pad with leading zero if hex string has odd length
func padEven(hexStr string) string {
	if len(hexStr)%2 == 1 {
		return "0" + hexStr
	}
	return hexStr
}
