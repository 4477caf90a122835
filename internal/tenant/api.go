package tenant

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
		Create(ctx context.Context, opts CreateOptions) (*Tenant, error)
		Get(ctx context.Context, tenantID resource.ID) (*Tenant, error)
		List(ctx context.Context) ([]*Tenant, error)
		Delete(ctx context.Context, tenantID resource.ID) error
	}
)

func (a *apiHandlers) addHandlers(r *mux.Router) {
	r = stitchhttp.APIRouter(r)

	r.HandleFunc("/tenants", a.create).Methods("POST")
	r.HandleFunc("/tenants", a.list).Methods("GET")
	r.HandleFunc("/tenants/{tenant_id}", a.get).Methods("GET")
	r.HandleFunc("/tenants/{tenant_id}", a.delete).Methods("DELETE")
}

func (a *apiHandlers) create(w http.ResponseWriter, r *http.Request) {
	var opts CreateOptions
	if err := api.Unmarshal(r, &opts); err != nil {
		api.Error(w, err)
		return
	}
	tenant, err := a.svc.Create(r.Context(), opts)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, tenant, http.StatusCreated)
}

func (a *apiHandlers) get(w http.ResponseWriter, r *http.Request) {
	tenantID, err := decode.ID("tenant_id", r)
	if err != nil {
		api.Error(w, err)
		return
	}
	tenant, err := a.svc.Get(r.Context(), tenantID)
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, tenant, http.StatusOK)
}

func (a *apiHandlers) list(w http.ResponseWriter, r *http.Request) {
	tenants, err := a.svc.List(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	a.Respond(w, tenants, http.StatusOK)
}

func (a *apiHandlers) delete(w http.ResponseWriter, r *http.Request) {
	tenantID, err := decode.ID("tenant_id", r)
	if err != nil {
		api.Error(w, err)
		return
	}
	if err := a.svc.Delete(r.Context(), tenantID); err != nil {
		api.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
