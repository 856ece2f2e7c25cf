package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/msu-projects/sitio-portal/modules/review/domain/resource"
)

// ResourceReader adapts the registry's aggregates to the review engine's
// read-only view of live resources. The JSON shape it returns is exactly the
// portal's public record shape, so conflict detection compares what reviewers
// actually see.
type ResourceReader struct {
	sitios   *SitioService
	projects *ProjectService
}

func NewResourceReader(sitios *SitioService, projects *ProjectService) *ResourceReader {
	return &ResourceReader{sitios: sitios, projects: projects}
}

func (r *ResourceReader) CurrentState(ctx context.Context, resourceType resource.Type, id uuid.UUID) (json.RawMessage, error) {
	switch resourceType {
	case resource.TypeSitio:
		s, err := r.sitios.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(s)
	case resource.TypeProject:
		p, err := r.projects.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	default:
		return nil, errors.Errorf("unknown resource type %q", resourceType)
	}
}

var _ resource.Reader = (*ResourceReader)(nil)
