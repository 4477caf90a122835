package authz

// Action identifies an action a subject carries out on a resource.
type Action string

const (
	CreateTenantAction Action = "create_tenant"
	GetTenantAction    Action = "get_tenant"
	ListTenantsAction  Action = "list_tenants"
	DeleteTenantAction Action = "delete_tenant"

	CreateProfileAction Action = "create_profile"
	GetProfileAction    Action = "get_profile"
	ListProfilesAction  Action = "list_profiles"
	UpdateProfileAction Action = "update_profile"
	DeleteProfileAction Action = "delete_profile"

	CreateMappingAction   Action = "create_mapping"
	ResolveMappingAction  Action = "resolve_mapping"
	ListMappingsAction    Action = "list_mappings"
	DeleteMappingAction   Action = "delete_mapping"
	GetMappingStatsAction Action = "get_mapping_stats"
	// SweepMappingsAction gates the maintenance sweep; it requires higher
	// privileges than ordinary read and resolve actions.
	SweepMappingsAction Action = "sweep_mappings"

	IngestEventAction Action = "ingest_event"
	ListEventsAction  Action = "list_events"
)

func (a Action) String() string { return string(a) }
