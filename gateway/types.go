package gateway

import (
	"encoding/json"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Response is the reply envelope for every gateway subject.
type Response struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody carries the failure message and its classification so callers
// can tell a retryable failure from a rejected request.
type ErrorBody struct {
	Message string `json:"message"`
	Class   string `json:"class"`
}

// DeployRequest is the request body for the four deploy.* subjects. Params
// is decoded into the bundle type matching the subject.
type DeployRequest struct {
	Caller types.Identity  `json:"caller"`
	Params json.RawMessage `json:"params"`
}

// DeployResult is the success payload for the deploy.* subjects.
type DeployResult struct {
	Instance types.InstanceID `json:"instance"`
}

// TemplateSetRequest overwrites a template reference.
type TemplateSetRequest struct {
	Caller  types.Identity    `json:"caller"`
	Product types.ProductType `json:"product"`
	Ref     types.TemplateRef `json:"ref"`
}

// TemplateCurrentRequest reads the template for a product type.
type TemplateCurrentRequest struct {
	Product types.ProductType `json:"product"`
}

// TemplateResult carries a template reference, empty when unset.
type TemplateResult struct {
	Ref types.TemplateRef `json:"ref"`
}

// AdminTransferRequest hands the admin role to a new identity.
type AdminTransferRequest struct {
	Caller types.Identity `json:"caller"`
	Next   types.Identity `json:"next"`
}

// CountResult is the success payload for deployments.count.
type CountResult struct {
	Count int `json:"count"`
}

// OrdinalRequest looks up the instance at a deployment-order index.
type OrdinalRequest struct {
	Index int `json:"index"`
}

// InfoRequest looks up the full record for an instance.
type InfoRequest struct {
	Instance types.InstanceID `json:"instance"`
}

// ByDeployerRequest lists the instances created by a deployer.
type ByDeployerRequest struct {
	Deployer types.Identity `json:"deployer"`
}

// InstancesResult carries an ordered list of instance IDs.
type InstancesResult struct {
	Instances []types.InstanceID `json:"instances"`
}

func okResponse(result any) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Response{OK: true, Result: raw})
}

func errResponse(err error) []byte {
	body := &ErrorBody{Message: err.Error(), Class: errors.Classify(err).String()}
	// Marshaling a flat struct of two strings cannot fail.
	raw, _ := json.Marshal(Response{OK: false, Error: body})
	return raw
}
