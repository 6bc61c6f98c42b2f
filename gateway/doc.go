// Package gateway exposes the factory over NATS request/reply.
//
// Every operation is a JSON request on a subject under the configured
// prefix (default "luxuryx.factory.v1"):
//
//	deploy.standard        deploy a standard token
//	deploy.tax             deploy a tax token
//	deploy.royalty         deploy a royalty collection
//	deploy.compliance      deploy a compliance token
//	template.set           overwrite a template reference (admin only)
//	template.current       read the template for a product type
//	admin.transfer         hand the admin role to a new identity
//	deployments.count      number of deployments
//	deployments.ordinal    instance at a deployment-order index
//	deployments.info       full record for an instance
//	deployments.bydeployer instances created by a deployer
//
// Handlers join a queue group so multiple gateway processes share load.
// Replies carry ok/result on success, or an error message plus its
// classification on failure so callers can decide whether to retry.
package gateway
