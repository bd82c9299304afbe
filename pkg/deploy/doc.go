/*
Package deploy submits the smoke-test deployment manifest into a namespace.

A manifest is a multi-document YAML file carrying the Job that runs the IQE
test suite plus its supporting objects (ServiceAccount, RBAC bindings,
ConfigMaps, Secrets). Run parameters such as the image tag and the IQE
test-selection expressions are substituted into the manifest as ${NAME}
references before decoding.

# Apply strategy

Supporting objects are created idempotently - if they already exist they are
reused. The Job is deleted and recreated on each run so every smoke run starts
from clean state.

# Testing

The package works against kubernetes.Interface and is exercised with the fake
clientset:

	clientset := fake.NewClientset()
	deployer := deploy.NewDeployer(clientset, "test-namespace")
	err := deployer.Apply(ctx, objs)
*/
package deploy
