package event

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stitchkit/stitch/internal/api"
	stitchhttp "github.com/stitchkit/stitch/internal/http"
	"github.com/stitchkit/stitch/internal/http/decode"
	"github.com/stitchkit/stitch/internal/identity"
	"github.com/stitchkit/stitch/internal/resource"
)

type (
	apiHandlers struct {
		svc apiClient
		*api.Responder
	}

	apiClient interface {
		Ingest(ctx context.Context, opts IngestOptions) (*Event, error)
		Identify(ctx context.Context, tenantID, entityID resource.ID, identifiers []Identifier) ([]*identity.Mapping, error)
		ListByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Event, error)
	}
)

func (a *apiHandlers) addHandlers(r *mux.Router) {
	r = stitchhttp.APIRouter(r)

	r.HandleFunc("/tenants/{tenant_id}/events", a.ingest).Methods("POST")
	r.HandleFunc("/tenants/{tenant_id}/entities/{entity_id}/identify", a.identify).Methods("POST")
	r.HandleFunc("/tenants/{tenant_id}/entities/{entity_id}/events", a.listByEntity).Methods("GET")
}

func (a *apiHandlers) ingest(w http.ResponseWriter, r *http.Request) {
	tenantID, err := decode.ID("tenant_id", r)
	if err != nil {
		api.Error(w, err)
		return
	}
	var opts IngestOptions
	if err := api.Unmarshal(r, &opts); err != nil {
		api.Error(w, err)
		return
	}
	opts.TenantID = tenantID
	event, err := a.svc.Ingest(r.Context(), opts)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, event, http.StatusCreated)
}

func (a *apiHandlers) identify(w http.ResponseWriter, r *http.Request) {
	var params struct {
		TenantID resource.ID `schema:"tenant_id,required"`
		EntityID resource.ID `schema:"entity_id,required"`
	}
	if err := decode.Route(&params, r); err != nil {
		api.Error(w, err)
		return
	}
	var identifiers []Identifier
	if err := api.Unmarshal(r, &identifiers); err != nil {
		api.Error(w, err)
		return
	}
	mappings, err := a.svc.Identify(r.Context(), params.TenantID, params.EntityID, identifiers)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, mappings, http.StatusCreated)
}

func (a *apiHandlers) listByEntity(w http.ResponseWriter, r *http.Request) {
	var params struct {
		TenantID resource.ID `schema:"tenant_id,required"`
		EntityID resource.ID `schema:"entity_id,required"`
	}
	if err := decode.Route(&params, r); err != nil {
		api.Error(w, err)
		return
	}
	events, err := a.svc.ListByEntity(r.Context(), params.TenantID, params.EntityID)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, events, http.StatusOK)
}
