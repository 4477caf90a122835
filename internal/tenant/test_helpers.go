package tenant

import (
	"context"

	"github.com/stitchkit/stitch/internal/resource"
)

type fakeService struct {
	tenant *Tenant
	err    error
}

func (f *fakeService) Create(context.Context, CreateOptions) (*Tenant, error) {
	return f.tenant, f.err
}

func (f *fakeService) Get(context.Context, resource.ID) (*Tenant, error) {
	return f.tenant, f.err
}

func (f *fakeService) List(context.Context) ([]*Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*Tenant{f.tenant}, nil
}

func (f *fakeService) Delete(context.Context, resource.ID) error {
	return f.err
}
