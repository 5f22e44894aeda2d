package provisioning

import "context"

// ProvisioningMetrics defines the metrics the provisioning service records
// about its mutation traffic.
type ProvisioningMetrics interface {
	// IncProgressReport increments the count of accepted progress reports for
	// an entity kind ("host", "cluster_host", or "cluster").
	IncProgressReport(ctx context.Context, entityKind string)

	// IncReinstallRequest increments the count of reinstall requests for an
	// entity kind ("host" or "cluster").
	IncReinstallRequest(ctx context.Context, entityKind string)

	// IncConfigWrite increments the count of config writes for an entity kind.
	IncConfigWrite(ctx context.Context, entityKind string)

	// IncCascadeUpdate increments the count of entities rewritten as a side
	// effect of another entity's state change.
	IncCascadeUpdate(ctx context.Context, count int)
}
