package identity

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stitchkit/stitch/internal/api"
	stitchhttp "github.com/stitchkit/stitch/internal/http"
	"github.com/stitchkit/stitch/internal/http/decode"
	"github.com/stitchkit/stitch/internal/resource"
)

type (
	apiHandlers struct {
		svc apiClient
		*api.Responder
	}

	apiClient interface {
		Upsert(ctx context.Context, opts UpsertOptions) (*Mapping, error)
		BatchUpsert(ctx context.Context, opts []UpsertOptions) ([]*Mapping, error)
		Resolve(ctx context.Context, tenantID resource.ID, t Type, value string) (resource.ID, error)
		ListByEntity(ctx context.Context, tenantID, entityID resource.ID) ([]*Mapping, error)
		Delete(ctx context.Context, tenantID resource.ID, t Type, value string) error
		DeleteAllForEntity(ctx context.Context, tenantID, entityID resource.ID) (int64, error)
		SweepExpired(ctx context.Context, tenantID *resource.ID) (int64, error)
		Stats(ctx context.Context, tenantID resource.ID) (*Stats, error)
	}
)

func (a *apiHandlers) addHandlers(r *mux.Router) {
	r = stitchhttp.APIRouter(r)

	r.HandleFunc("/tenants/{tenant_id}/mappings", a.upsert).Methods("POST")
	r.HandleFunc("/tenants/{tenant_id}/mappings", a.delete).Methods("DELETE")
	r.HandleFunc("/tenants/{tenant_id}/mappings/resolve", a.resolve).Methods("GET")
	r.HandleFunc("/tenants/{tenant_id}/mappings/stats", a.stats).Methods("GET")
	r.HandleFunc("/tenants/{tenant_id}/entities/{entity_id}/mappings", a.listByEntity).Methods("GET")
	r.HandleFunc("/tenants/{tenant_id}/entities/{entity_id}/mappings", a.deleteAllForEntity).Methods("DELETE")
	r.HandleFunc("/mappings/batch", a.batchUpsert).Methods("POST")
	r.HandleFunc("/mappings/sweep", a.sweep).Methods("POST")
}

func (a *apiHandlers) upsert(w http.ResponseWriter, r *http.Request) {
	tenantID, err := decode.ID("tenant_id", r)
	if err != nil {
		api.Error(w, err)
		return
	}
	var opts UpsertOptions
	if err := api.Unmarshal(r, &opts); err != nil {
		api.Error(w, err)
		return
	}
	opts.TenantID = tenantID
	mapping, err := a.svc.Upsert(r.Context(), opts)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, mapping, http.StatusCreated)
}

func (a *apiHandlers) batchUpsert(w http.ResponseWriter, r *http.Request) {
	var opts []UpsertOptions
	if err := api.Unmarshal(r, &opts); err != nil {
		api.Error(w, err)
		return
	}
	mappings, err := a.svc.BatchUpsert(r.Context(), opts)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, mappings, http.StatusCreated)
}

// resolve translates an identifier into an entity ID. An unmapped or expired
// identifier produces a 404 with an error body: the caller always receives an
// unambiguous present-vs-absent signal, never a null entity ID.
func (a *apiHandlers) resolve(w http.ResponseWriter, r *http.Request) {
	var params struct {
		TenantID resource.ID `schema:"tenant_id,required"`
		Type     string      `schema:"type,required"`
		Value    string      `schema:"value,required"`
	}
	if err := decode.All(&params, r); err != nil {
		api.Error(w, err)
		return
	}
	entityID, err := a.svc.Resolve(r.Context(), params.TenantID, Type(params.Type), params.Value)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, struct {
		EntityID resource.ID `json:"entity_id"`
	}{EntityID: entityID}, http.StatusOK)
}

func (a *apiHandlers) stats(w http.ResponseWriter, r *http.Request) {
	tenantID, err := decode.ID("tenant_id", r)
	if err != nil {
		api.Error(w, err)
		return
	}
	stats, err := a.svc.Stats(r.Context(), tenantID)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, stats, http.StatusOK)
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
	mappings, err := a.svc.ListByEntity(r.Context(), params.TenantID, params.EntityID)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, mappings, http.StatusOK)
}

func (a *apiHandlers) delete(w http.ResponseWriter, r *http.Request) {
	var params struct {
		TenantID resource.ID `schema:"tenant_id,required"`
		Type     string      `schema:"type,required"`
		Value    string      `schema:"value,required"`
	}
	if err := decode.All(&params, r); err != nil {
		api.Error(w, err)
		return
	}
	if err := a.svc.Delete(r.Context(), params.TenantID, Type(params.Type), params.Value); err != nil {
		api.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiHandlers) deleteAllForEntity(w http.ResponseWriter, r *http.Request) {
	var params struct {
		TenantID resource.ID `schema:"tenant_id,required"`
		EntityID resource.ID `schema:"entity_id,required"`
	}
	if err := decode.Route(&params, r); err != nil {
		api.Error(w, err)
		return
	}
	count, err := a.svc.DeleteAllForEntity(r.Context(), params.TenantID, params.EntityID)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, struct {
		Count int64 `json:"count"`
	}{Count: count}, http.StatusOK)
}

// sweep triggers a maintenance sweep, optionally scoped to one tenant via a
// tenant_id query parameter.
func (a *apiHandlers) sweep(w http.ResponseWriter, r *http.Request) {
	var tenantID *resource.ID
	if s := r.URL.Query().Get("tenant_id"); s != "" {
		id, err := resource.ParseID(s)
		if err != nil {
			api.Error(w, err)
			return
		}
		tenantID = &id
	}
	count, err := a.svc.SweepExpired(r.Context(), tenantID)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, struct {
		Count int64 `json:"count"`
	}{Count: count}, http.StatusOK)
}
