package profile

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
		Create(ctx context.Context, opts CreateOptions) (*Profile, error)
		Get(ctx context.Context, tenantID, profileID resource.ID) (*Profile, error)
		List(ctx context.Context, tenantID resource.ID) ([]*Profile, error)
		Update(ctx context.Context, tenantID, profileID resource.ID, opts UpdateOptions) (*Profile, error)
		Delete(ctx context.Context, tenantID, profileID resource.ID) error
	}
)

func (a *apiHandlers) addHandlers(r *mux.Router) {
	r = stitchhttp.APIRouter(r)

	r.HandleFunc("/tenants/{tenant_id}/profiles", a.create).Methods("POST")
	r.HandleFunc("/tenants/{tenant_id}/profiles", a.list).Methods("GET")
	r.HandleFunc("/tenants/{tenant_id}/profiles/{profile_id}", a.get).Methods("GET")
	r.HandleFunc("/tenants/{tenant_id}/profiles/{profile_id}", a.update).Methods("PATCH")
	r.HandleFunc("/tenants/{tenant_id}/profiles/{profile_id}", a.delete).Methods("DELETE")
}

func (a *apiHandlers) create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := decode.ID("tenant_id", r)
	if err != nil {
		api.Error(w, err)
		return
	}
	var opts CreateOptions
	if err := api.Unmarshal(r, &opts); err != nil {
		api.Error(w, err)
		return
	}
	opts.TenantID = tenantID
	profile, err := a.svc.Create(r.Context(), opts)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, profile, http.StatusCreated)
}

func (a *apiHandlers) get(w http.ResponseWriter, r *http.Request) {
	var params struct {
		TenantID  resource.ID `schema:"tenant_id,required"`
		ProfileID resource.ID `schema:"profile_id,required"`
	}
	if err := decode.Route(&params, r); err != nil {
		api.Error(w, err)
		return
	}
	profile, err := a.svc.Get(r.Context(), params.TenantID, params.ProfileID)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, profile, http.StatusOK)
}

func (a *apiHandlers) list(w http.ResponseWriter, r *http.Request) {
	tenantID, err := decode.ID("tenant_id", r)
	if err != nil {
		api.Error(w, err)
		return
	}
	profiles, err := a.svc.List(r.Context(), tenantID)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, profiles, http.StatusOK)
}

func (a *apiHandlers) update(w http.ResponseWriter, r *http.Request) {
	var params struct {
		TenantID  resource.ID `schema:"tenant_id,required"`
		ProfileID resource.ID `schema:"profile_id,required"`
	}
	if err := decode.Route(&params, r); err != nil {
		api.Error(w, err)
		return
	}
	var opts UpdateOptions
	if err := api.Unmarshal(r, &opts); err != nil {
		api.Error(w, err)
		return
	}
	profile, err := a.svc.Update(r.Context(), params.TenantID, params.ProfileID, opts)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, profile, http.StatusOK)
}

func (a *apiHandlers) delete(w http.ResponseWriter, r *http.Request) {
	var params struct {
		TenantID  resource.ID `schema:"tenant_id,required"`
		ProfileID resource.ID `schema:"profile_id,required"`
	}
	if err := decode.Route(&params, r); err != nil {
		api.Error(w, err)
		return
	}
	if err := a.svc.Delete(r.Context(), params.TenantID, params.ProfileID); err != nil {
		api.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
