/**
 * @description
 * This file contains the demo-mode content source. It serves a fixed set of
 * sample articles and answers the GraphQL proxy's queries from that set, so
 * the whole site works with no CMS and no Stripe account.
 *
 * Demo mode is selected once in main by wiring DemoSource in place of
 * CMSSource; request handlers carry no demo conditionals.
 */
package content

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/theinsider/membership-service/internal/domain"
)

// DemoSource serves static sample articles.
type DemoSource struct {
	posts []Node
}

// NewDemoSource creates a source backed by the built-in sample articles.
func NewDemoSource() *DemoSource {
	return &DemoSource{posts: samplePosts()}
}

// AllPosts lists the sample articles.
func (s *DemoSource) AllPosts(_ context.Context) ([]domain.Article, error) {
	articles := make([]domain.Article, 0, len(s.posts))
	for i := range s.posts {
		if article := TransformNode(&s.posts[i]); article != nil {
			articles = append(articles, *article)
		}
	}
	return articles, nil
}

// FeaturedPosts lists the newest sample articles, mirroring the CMS's
// three-item home-page query.
func (s *DemoSource) FeaturedPosts(ctx context.Context) ([]domain.Article, error) {
	articles, err := s.AllPosts(ctx)
	if err != nil {
		return nil, err
	}
	if len(articles) > 3 {
		articles = articles[:3]
	}
	return articles, nil
}

// PostBySlug resolves a sample article by slug, or (nil, nil).
func (s *DemoSource) PostBySlug(_ context.Context, slug string) (*domain.Article, error) {
	for i := range s.posts {
		if strings.TrimPrefix(s.posts[i].Path, slugPrefix) == slug {
			return TransformNode(&s.posts[i]), nil
		}
	}
	return nil, nil
}

// HandleQuery answers a raw GraphQL request from the sample set, mirroring
// the response shapes the CMS would produce. Unrecognized queries get an
// empty data object.
func (s *DemoSource) HandleQuery(body []byte) ([]byte, error) {
	var req graphqlRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}

	// Route lookups carry the article path in variables.
	if path, ok := req.Variables["path"].(string); ok && path != "" {
		var envelope routeEnvelope
		slug := strings.TrimPrefix(path, slugPrefix)
		for i := range s.posts {
			if strings.TrimPrefix(s.posts[i].Path, slugPrefix) == slug {
				envelope.Data.Route.Entity = &s.posts[i]
				break
			}
		}
		return json.Marshal(envelope)
	}

	if strings.Contains(req.Query, "nodeArticles") {
		var envelope listEnvelope
		envelope.Data.NodeArticles.Nodes = s.posts
		return json.Marshal(envelope)
	}

	return []byte(`{"data":{}}`), nil
}

// samplePosts builds the demo article set.
func samplePosts() []Node {
	posts := []struct {
		id, title, slug, summary, body, published, readTime string
		featured                                            bool
		imageURL                                            string
		author                                              string
	}{
		{
			id:    "demo-1",
			title: "The Quiet Rise of Headless Publishing",
			slug:  "quiet-rise-headless-publishing",
			summary: "<p>Why newsrooms are splitting their content from their " +
				"presentation layer, and what it costs them.</p>",
			body: "<p>Why newsrooms are splitting their content from their " +
				"presentation layer, and what it costs them.</p>" +
				"<p>The CMS used to be the website. Today the CMS is a database " +
				"with opinions, and the website is whoever asks it nicely over " +
				"GraphQL. This piece follows three mid-size publishers through " +
				"that migration.</p>" +
				"<p>The punchline: the hard part was never the technology. It " +
				"was deciding who owns the markup.</p>",
			published: "2024-11-04T09:00:00+00:00",
			readTime:  "8 min read",
			featured:  true,
			imageURL:  "https://images.example.com/headless.jpg",
			author:    "Maya Okafor",
		},
		{
			id:    "demo-2",
			title: "Paywalls That Don't Make Readers Hate You",
			slug:  "paywalls-readers-dont-hate",
			summary: "",
			body: "<p>A survey of metering strategies across forty subscription " +
				"sites, and the three patterns that kept churn under control.</p>" +
				"<p>Hard paywalls convert worst and retain best. Metered walls " +
				"do the opposite. The interesting designs live in between.</p>",
			published: "2024-11-18T09:00:00+00:00",
			readTime:  "6 min read",
		},
		{
			id:    "demo-3",
			title: "What We Learned Running Our Own Billing",
			slug:  "running-our-own-billing",
			summary: "<p>Eighteen months of subscription billing taught us more " +
				"about edge cases than a decade of feature work.</p>",
			body: "<p>Eighteen months of subscription billing taught us more " +
				"about edge cases than a decade of feature work.</p>" +
				"<p>Dunning emails, proration, and the customer who paid twice " +
				"on purpose: a field guide.</p>",
			published: "2024-12-02T09:00:00+00:00",
			readTime:  "11 min read",
		},
	}

	nodes := make([]Node, 0, len(posts))
	for _, p := range posts {
		var n Node
		n.ID = p.id
		n.Title = p.title
		n.Path = slugPrefix + p.slug
		n.Created.Time = p.published
		n.Body.Processed = p.body
		n.Body.Summary = p.summary
		n.ReadTime = p.readTime
		n.Featured = p.featured
		n.AuthorName = p.author
		if p.imageURL != "" {
			n.Image = &struct {
				URL    string `json:"url"`
				Alt    string `json:"alt"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			}{URL: p.imageURL}
		}
		nodes = append(nodes, n)
	}
	return nodes
}
