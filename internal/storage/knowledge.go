package storage

import (
	"context"

	"github.com/google/uuid"
)

// Knowledge exposes the read accessors the answering pipeline needs,
// backed by the individual repositories.
type Knowledge struct {
	repos *Repositories
}

// NewKnowledge wraps repositories as a knowledge store.
func NewKnowledge(repos *Repositories) *Knowledge {
	return &Knowledge{repos: repos}
}

// CompanyContent returns one company content record.
func (k *Knowledge) CompanyContent(ctx context.Context, id uuid.UUID) (*CompanyContent, error) {
	return k.repos.CompanyContents.GetByID(ctx, id)
}

// Project returns one project.
func (k *Knowledge) Project(ctx context.Context, id uuid.UUID) (*Project, error) {
	return k.repos.Projects.GetByID(ctx, id)
}

// BlogPost returns one blog post.
func (k *Knowledge) BlogPost(ctx context.Context, id uuid.UUID) (*BlogPost, error) {
	return k.repos.BlogPosts.GetByID(ctx, id)
}

// HighlightProjects returns portfolio highlights in store order.
func (k *Knowledge) HighlightProjects(ctx context.Context) ([]*Project, error) {
	return k.repos.Projects.ListHighlights(ctx)
}

// ActiveBlogsForProject returns active posts linked to a project.
func (k *Knowledge) ActiveBlogsForProject(ctx context.Context, projectID uuid.UUID) ([]*BlogPost, error) {
	return k.repos.BlogPosts.ListActiveByProject(ctx, projectID)
}

// ActiveCompanyContents returns every active company content record.
func (k *Knowledge) ActiveCompanyContents(ctx context.Context) ([]*CompanyContent, error) {
	return k.repos.CompanyContents.ListActive(ctx)
}

// AllProjects returns every project.
func (k *Knowledge) AllProjects(ctx context.Context) ([]*Project, error) {
	return k.repos.Projects.List(ctx)
}

// ActiveBlogPosts returns every active blog post.
func (k *Knowledge) ActiveBlogPosts(ctx context.Context) ([]*BlogPost, error) {
	return k.repos.BlogPosts.ListActive(ctx)
}
