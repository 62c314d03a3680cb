/**
 * @description
 * This file defines the content source capability set and its CMS-backed
 * implementation. Demo mode provides an alternate implementation of the
 * same interface; the choice is made once at wiring time, not per request.
 */
package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/theinsider/membership-service/internal/domain"
)

// Querier issues a GraphQL request and returns the raw response bytes.
// Satisfied by cmsclient.Client.
type Querier interface {
	Query(ctx context.Context, body []byte) ([]byte, int, error)
}

// Source lists and resolves articles.
type Source interface {
	AllPosts(ctx context.Context) ([]domain.Article, error)
	FeaturedPosts(ctx context.Context) ([]domain.Article, error)
	PostBySlug(ctx context.Context, slug string) (*domain.Article, error)
}

// CMSSource serves articles from the Drupal GraphQL backend.
type CMSSource struct {
	client Querier
}

// NewCMSSource creates a CMS-backed content source.
func NewCMSSource(client Querier) *CMSSource {
	return &CMSSource{client: client}
}

// graphqlRequest is the JSON body of an outbound GraphQL call.
type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// AllPosts lists articles, dropping nodes that fail normalization.
func (s *CMSSource) AllPosts(ctx context.Context) ([]domain.Article, error) {
	return s.list(ctx, QueryAllPosts)
}

// FeaturedPosts lists the newest articles for the home page.
func (s *CMSSource) FeaturedPosts(ctx context.Context) ([]domain.Article, error) {
	return s.list(ctx, QueryFeaturedPosts)
}

func (s *CMSSource) list(ctx context.Context, query string) ([]domain.Article, error) {
	raw, _, err := s.query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	var envelope listEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode article listing: %w", err)
	}

	articles := make([]domain.Article, 0, len(envelope.Data.NodeArticles.Nodes))
	for i := range envelope.Data.NodeArticles.Nodes {
		if article := TransformNode(&envelope.Data.NodeArticles.Nodes[i]); article != nil {
			articles = append(articles, *article)
		}
	}
	return articles, nil
}

// PostBySlug resolves one article via the CMS route lookup. A slug that
// resolves to nothing returns (nil, nil).
func (s *CMSSource) PostBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	raw, _, err := s.query(ctx, QueryPostByPath, map[string]interface{}{
		"path": slugPrefix + slug,
	})
	if err != nil {
		return nil, err
	}

	var envelope routeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode article: %w", err)
	}
	return TransformNode(envelope.Data.Route.Entity), nil
}

func (s *CMSSource) query(ctx context.Context, query string, variables map[string]interface{}) ([]byte, int, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, 0, err
	}
	return s.client.Query(ctx, body)
}
