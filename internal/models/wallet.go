package models

import (
	"fmt"
	"strings"
)

type WalletType string

const (
	WalletTypeBitcoin   WalletType = "bitcoin"
	WalletTypeLightning WalletType = "lightning"
	WalletTypeWeb5      WalletType = "web5"
)

// WalletTypes lists every supported wallet type in display order
var WalletTypes = []WalletType{WalletTypeBitcoin, WalletTypeLightning, WalletTypeWeb5}

// ParseWalletType parses a wallet type case-insensitively
func ParseWalletType(s string) (WalletType, error) {
	wt := WalletType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range WalletTypes {
		if wt == known {
			return wt, nil
		}
	}
	return "", fmt.Errorf("unknown wallet type %q (expected bitcoin, lightning or web5)", s)
}

// ConnectionRequest is what the user submits to associate a wallet with the service
type ConnectionRequest struct {
	WalletID   string     `json:"wallet_id" validate:"required"`
	WalletType WalletType `json:"wallet_type" validate:"required,oneof=bitcoin lightning web5"`
}

// Normalize trims the wallet id and lowercases the wallet type
func (r ConnectionRequest) Normalize() ConnectionRequest {
	return ConnectionRequest{
		WalletID:   strings.TrimSpace(r.WalletID),
		WalletType: WalletType(strings.ToLower(strings.TrimSpace(string(r.WalletType)))),
	}
}

// Validate checks the request after normalization
func (r ConnectionRequest) Validate() error {
	if err := Validator().Struct(r.Normalize()); err != nil {
		return fmt.Errorf("%s", describeValidation(err))
	}
	return nil
}
