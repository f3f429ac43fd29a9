package config

import (
	"fmt"
	"net/url"

	"github.com/initia-labs/transfervolume/types"
)

type ChainConfig struct {
	ChainId              string
	RestUrls             []string
	JsonRpcUrls          []string
	AccountAddressPrefix string
	Environment          string
}

func (cc ChainConfig) Validate() error {
	// Chain ID validation
	if len(cc.ChainId) == 0 {
		return types.NewValidationError("CHAIN_ID", "required field is missing")
	}

	// REST URL validation
	if len(cc.RestUrls) == 0 {
		return types.NewValidationError("REST_URL", "required field is missing")
	}
	for _, restUrl := range cc.RestUrls {
		if u, err := url.Parse(restUrl); err != nil {
			return types.NewInvalidValueError("REST_URL", restUrl, fmt.Sprintf("invalid URL: %v", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			return types.NewInvalidValueError("REST_URL", restUrl, fmt.Sprintf("must use http or https scheme, got: %s", u.Scheme))
		}
	}

	// JSON-RPC URL validation
	if len(cc.JsonRpcUrls) == 0 {
		return types.NewValidationError("JSON_RPC_URL", "required field is missing")
	}
	for _, jsonRpcUrl := range cc.JsonRpcUrls {
		if u, err := url.Parse(jsonRpcUrl); err != nil {
			return types.NewInvalidValueError("JSON_RPC_URL", jsonRpcUrl, fmt.Sprintf("invalid URL: %v", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			return types.NewInvalidValueError("JSON_RPC_URL", jsonRpcUrl, fmt.Sprintf("must use http or https scheme, got: %s", u.Scheme))
		}
	}

	// Account address prefix validation
	if len(cc.AccountAddressPrefix) == 0 {
		return types.NewValidationError("ACCOUNT_ADDRESS_PREFIX", "is required")
	}

	return nil
}
