package types

import (
	"encoding/json"
	"fmt"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
)

// maxBasisPoints caps tax and royalty rates at 100%.
const maxBasisPoints = 10_000

// ParamBundle is the deployment parameter set for one product type. Each
// bundle knows its product tag, carries the declared name/symbol/owner, and
// encodes itself into the single initialization call its template expects.
type ParamBundle interface {
	Product() ProductType
	Meta() (name, symbol string, owner Identity)
	Validate() error
	EncodeInit() ([]byte, error)
}

// initCall is the wire envelope of the one-shot initializer call. The args
// layout must match what the template unit expects field-for-field.
type initCall struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

func encodeInit(args any) ([]byte, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, errors.WrapFatal(err, "ParamBundle", "EncodeInit", "marshal args")
	}
	data, err := json.Marshal(initCall{Method: "initialize", Args: raw})
	if err != nil {
		return nil, errors.WrapFatal(err, "ParamBundle", "EncodeInit", "marshal call")
	}
	return data, nil
}

func validateMeta(component string, owner Identity) error {
	if owner.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidOwner, component, "Validate", "owner check")
	}
	return nil
}

// StandardTokenParams deploys a plain fungible token with a fixed initial supply.
type StandardTokenParams struct {
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"`
	Owner         Identity `json:"owner"`
	Decimals      uint8    `json:"decimals"`
	InitialSupply uint64   `json:"initial_supply"`
}

// Product returns the product type tag.
func (p StandardTokenParams) Product() ProductType { return ProductStandardToken }

// Meta returns the declared name, symbol and designated owner.
func (p StandardTokenParams) Meta() (string, string, Identity) { return p.Name, p.Symbol, p.Owner }

// Validate checks the bundle's preconditions.
func (p StandardTokenParams) Validate() error {
	return validateMeta("StandardTokenParams", p.Owner)
}

// EncodeInit encodes the initializer call for the standard token template.
func (p StandardTokenParams) EncodeInit() ([]byte, error) {
	return encodeInit(struct {
		Name          string   `json:"name"`
		Symbol        string   `json:"symbol"`
		Owner         Identity `json:"owner"`
		Decimals      uint8    `json:"decimals"`
		InitialSupply uint64   `json:"initial_supply"`
	}{p.Name, p.Symbol, p.Owner, p.Decimals, p.InitialSupply})
}

// TaxTokenParams deploys a fungible token that levies buy/sell taxes,
// forwarded to a designated recipient.
type TaxTokenParams struct {
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"`
	Owner         Identity `json:"owner"`
	InitialSupply uint64   `json:"initial_supply"`
	MaxSupply     uint64   `json:"max_supply"`
	BuyTaxBps     uint32   `json:"buy_tax_bps"`
	SellTaxBps    uint32   `json:"sell_tax_bps"`
	TaxRecipient  Identity `json:"tax_recipient"`
}

// Product returns the product type tag.
func (p TaxTokenParams) Product() ProductType { return ProductTaxToken }

// Meta returns the declared name, symbol and designated owner.
func (p TaxTokenParams) Meta() (string, string, Identity) { return p.Name, p.Symbol, p.Owner }

// Validate checks the bundle's preconditions.
func (p TaxTokenParams) Validate() error {
	if err := validateMeta("TaxTokenParams", p.Owner); err != nil {
		return err
	}
	if p.BuyTaxBps > maxBasisPoints || p.SellTaxBps > maxBasisPoints {
		return errors.WrapInvalid(
			fmt.Errorf("tax rate exceeds %d basis points", maxBasisPoints),
			"TaxTokenParams", "Validate", "tax rate check")
	}
	if p.MaxSupply > 0 && p.InitialSupply > p.MaxSupply {
		return errors.WrapInvalid(
			fmt.Errorf("initial supply %d exceeds max supply %d", p.InitialSupply, p.MaxSupply),
			"TaxTokenParams", "Validate", "supply cap check")
	}
	return nil
}

// EncodeInit encodes the initializer call for the tax token template.
func (p TaxTokenParams) EncodeInit() ([]byte, error) {
	return encodeInit(struct {
		Name          string   `json:"name"`
		Symbol        string   `json:"symbol"`
		Owner         Identity `json:"owner"`
		InitialSupply uint64   `json:"initial_supply"`
		MaxSupply     uint64   `json:"max_supply"`
		BuyTaxBps     uint32   `json:"buy_tax_bps"`
		SellTaxBps    uint32   `json:"sell_tax_bps"`
		TaxRecipient  Identity `json:"tax_recipient"`
	}{p.Name, p.Symbol, p.Owner, p.InitialSupply, p.MaxSupply, p.BuyTaxBps, p.SellTaxBps, p.TaxRecipient})
}

// RoyaltyCollectionParams deploys a collectible series with a royalty split.
type RoyaltyCollectionParams struct {
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	Owner           Identity `json:"owner"`
	RoyaltyBps      uint32   `json:"royalty_bps"`
	RoyaltyReceiver Identity `json:"royalty_receiver"`
	MaxItems        uint64   `json:"max_items"`
	BaseURI         string   `json:"base_uri"`
}

// Product returns the product type tag.
func (p RoyaltyCollectionParams) Product() ProductType { return ProductRoyaltyCollection }

// Meta returns the declared name, symbol and designated owner.
func (p RoyaltyCollectionParams) Meta() (string, string, Identity) { return p.Name, p.Symbol, p.Owner }

// Validate checks the bundle's preconditions.
func (p RoyaltyCollectionParams) Validate() error {
	if err := validateMeta("RoyaltyCollectionParams", p.Owner); err != nil {
		return err
	}
	if p.RoyaltyBps > maxBasisPoints {
		return errors.WrapInvalid(
			fmt.Errorf("royalty rate exceeds %d basis points", maxBasisPoints),
			"RoyaltyCollectionParams", "Validate", "royalty rate check")
	}
	if p.RoyaltyBps > 0 && p.RoyaltyReceiver.IsZero() {
		return errors.WrapInvalid(
			fmt.Errorf("royalty receiver required when royalty rate is set"),
			"RoyaltyCollectionParams", "Validate", "royalty receiver check")
	}
	return nil
}

// EncodeInit encodes the initializer call for the royalty collection template.
func (p RoyaltyCollectionParams) EncodeInit() ([]byte, error) {
	return encodeInit(struct {
		Name            string   `json:"name"`
		Symbol          string   `json:"symbol"`
		Owner           Identity `json:"owner"`
		RoyaltyBps      uint32   `json:"royalty_bps"`
		RoyaltyReceiver Identity `json:"royalty_receiver"`
		MaxItems        uint64   `json:"max_items"`
		BaseURI         string   `json:"base_uri"`
	}{p.Name, p.Symbol, p.Owner, p.RoyaltyBps, p.RoyaltyReceiver, p.MaxItems, p.BaseURI})
}

// ComplianceTokenParams deploys a transfer-restricted token carrying
// compliance metadata for regulated offerings.
type ComplianceTokenParams struct {
	Name               string   `json:"name"`
	Symbol             string   `json:"symbol"`
	Owner              Identity `json:"owner"`
	MaxSupply          uint64   `json:"max_supply"`
	Jurisdiction       string   `json:"jurisdiction"`
	ComplianceAgent    Identity `json:"compliance_agent"`
	TransferRestricted bool     `json:"transfer_restricted"`
}

// Product returns the product type tag.
func (p ComplianceTokenParams) Product() ProductType { return ProductComplianceToken }

// Meta returns the declared name, symbol and designated owner.
func (p ComplianceTokenParams) Meta() (string, string, Identity) { return p.Name, p.Symbol, p.Owner }

// Validate checks the bundle's preconditions.
func (p ComplianceTokenParams) Validate() error {
	if err := validateMeta("ComplianceTokenParams", p.Owner); err != nil {
		return err
	}
	if p.TransferRestricted && p.ComplianceAgent.IsZero() {
		return errors.WrapInvalid(
			fmt.Errorf("compliance agent required when transfers are restricted"),
			"ComplianceTokenParams", "Validate", "compliance agent check")
	}
	return nil
}

// EncodeInit encodes the initializer call for the compliance token template.
func (p ComplianceTokenParams) EncodeInit() ([]byte, error) {
	return encodeInit(struct {
		Name               string   `json:"name"`
		Symbol             string   `json:"symbol"`
		Owner              Identity `json:"owner"`
		MaxSupply          uint64   `json:"max_supply"`
		Jurisdiction       string   `json:"jurisdiction"`
		ComplianceAgent    Identity `json:"compliance_agent"`
		TransferRestricted bool     `json:"transfer_restricted"`
	}{p.Name, p.Symbol, p.Owner, p.MaxSupply, p.Jurisdiction, p.ComplianceAgent, p.TransferRestricted})
}
