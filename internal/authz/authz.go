// Package authz handles all things authorization
package authz

import (
	"context"
	"fmt"

	"github.com/stitchkit/stitch/internal/resource"
)

// unexported key types prevents collisions
type (
	subjectCtxKeyType   string
	skipAuthzCtxKeyType string
)

const (
	subjectCtxKey   subjectCtxKeyType   = "subject"
	skipAuthzCtxKey skipAuthzCtxKeyType = "skip_authz"
)

// Subject is an entity that carries out actions on resources.
type Subject interface {
	CanAccess(action Action, id resource.ID) bool

	String() string
}

// AddSubjectToContext adds a subject to a context
func AddSubjectToContext(ctx context.Context, subj Subject) context.Context {
	return context.WithValue(ctx, subjectCtxKey, subj)
}

// SubjectFromContext retrieves a subject from a context
func SubjectFromContext(ctx context.Context) (Subject, error) {
	subj, ok := ctx.Value(subjectCtxKey).(Subject)
	if !ok {
		return nil, fmt.Errorf("no subject in context")
	}
	return subj, nil
}

// AddSkipAuthz adds to the context an instruction to skip authorization.
// Should only be used for testing purposes.
func AddSkipAuthz(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthzCtxKey, "")
}

// SkipAuthz determines whether the context contains an instruction to skip
// authorization.
func SkipAuthz(ctx context.Context) bool {
	return ctx.Value(skipAuthzCtxKey) != nil
}

// Superuser is a subject with unlimited privileges.
type Superuser struct {
	Username string
}

func (*Superuser) CanAccess(Action, resource.ID) bool { return true }
func (s *Superuser) String() string                   { return s.Username }
