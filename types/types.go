// Package types contains the shared domain types of the LuxuryX token factory
package types

import (
	"fmt"
	"time"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
)

// ProductType is one of the four fixed categories of deployable token.
// The set is pre-defined and not extensible at runtime; each tag maps to
// exactly one current template reference in the template table.
type ProductType string

// Product type constants
const (
	ProductStandardToken     ProductType = "standard-token"
	ProductTaxToken          ProductType = "tax-token"
	ProductRoyaltyCollection ProductType = "royalty-collection"
	ProductComplianceToken   ProductType = "compliance-token"
)

// AllProductTypes returns the four recognized product type tags in a stable order.
func AllProductTypes() []ProductType {
	return []ProductType{
		ProductStandardToken,
		ProductTaxToken,
		ProductRoyaltyCollection,
		ProductComplianceToken,
	}
}

// Valid reports whether p is one of the four recognized tags.
func (p ProductType) Valid() bool {
	switch p {
	case ProductStandardToken, ProductTaxToken, ProductRoyaltyCollection, ProductComplianceToken:
		return true
	default:
		return false
	}
}

// ParseProductType converts a string tag into a ProductType.
func ParseProductType(s string) (ProductType, error) {
	p := ProductType(s)
	if !p.Valid() {
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownProductType, s),
			"ProductType", "ParseProductType", "tag validation")
	}
	return p, nil
}

// Identity is an opaque caller or owner identity. The zero value is the
// null identity and is never a valid owner or administrator.
type Identity string

// IsZero reports whether the identity is the null identity.
func (i Identity) IsZero() bool { return i == "" }

// TemplateRef points at the executable template unit a product type currently
// delegates to. The zero value means "unset".
type TemplateRef string

// IsZero reports whether the reference is unset.
func (t TemplateRef) IsZero() bool { return t == "" }

// InstanceID identifies a deployed token instance.
type InstanceID string

// IsZero reports whether the identifier is null.
func (id InstanceID) IsZero() bool { return id == "" }

// DeploymentRecord is the immutable metadata captured when an instance is
// registered. It is written exactly once and never mutated or deleted.
type DeploymentRecord struct {
	Instance  InstanceID  `json:"instance"`
	Product   ProductType `json:"product"`
	Name      string      `json:"name"`
	Symbol    string      `json:"symbol"`
	Deployer  Identity    `json:"deployer"`
	Owner     Identity    `json:"owner"`
	CreatedAt time.Time   `json:"created_at"`
	Template  TemplateRef `json:"template"` // template in effect at creation time
	Network   string      `json:"network"`  // fixed at registry construction
	Ordinal   uint64      `json:"ordinal"`  // position in deployment order
}

// Validate checks the structural invariants of a record before it is appended.
func (r *DeploymentRecord) Validate() error {
	if r == nil {
		return errors.WrapInvalid(errors.ErrInvalidInstance, "DeploymentRecord", "Validate", "nil record")
	}
	if r.Instance.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidInstance, "DeploymentRecord", "Validate", "instance check")
	}
	if !r.Product.Valid() {
		return errors.WrapInvalid(errors.ErrUnknownProductType, "DeploymentRecord", "Validate", "product check")
	}
	if r.Owner.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidOwner, "DeploymentRecord", "Validate", "owner check")
	}
	if r.Template.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidTemplate, "DeploymentRecord", "Validate", "template check")
	}
	return nil
}
