/**
 * @description
 * This file normalizes raw CMS article nodes into the uniform Article shape
 * the rest of the service consumes. Normalization is a pure function with
 * no network access; callers fetch nodes first and transform after.
 */
package content

import (
	"regexp"
	"strings"
	"time"

	"github.com/theinsider/membership-service/internal/domain"
)

// slugPrefix is stripped from a node's path to derive the public slug.
const slugPrefix = "/posts/"

// defaultReadTime is used when the CMS provides no reading-time estimate.
const defaultReadTime = "5 min read"

// defaultAuthorName is the byline for articles with no author set.
const defaultAuthorName = "The Insider Team"

// firstParagraph matches the first <p>...</p> block, across newlines.
var firstParagraph = regexp.MustCompile(`(?s)<p>.*?</p>`)

// TransformNode normalizes a raw CMS node into an Article. It returns nil
// for an absent node and for nodes with no derivable id or title, which
// listings filter out.
func TransformNode(node *Node) *domain.Article {
	if node == nil {
		return nil
	}
	if node.ID == "" || node.Title == "" {
		return nil
	}

	slug := node.ID
	if node.Path != "" {
		slug = strings.TrimPrefix(node.Path, slugPrefix)
	}

	// Prefer the explicit summary; otherwise take the first paragraph of
	// the body.
	excerpt := node.Body.Summary
	if excerpt == "" && node.Body.Processed != "" {
		excerpt = firstParagraph.FindString(node.Body.Processed)
	}

	publishedAt := node.Created.Time
	if publishedAt == "" {
		publishedAt = time.Now().UTC().Format(time.RFC3339)
	}

	readTime := node.ReadTime
	if readTime == "" {
		readTime = defaultReadTime
	}

	article := &domain.Article{
		ID:          node.ID,
		Title:       node.Title,
		Slug:        slug,
		Excerpt:     excerpt,
		Body:        node.Body.Processed,
		PublishedAt: publishedAt,
		ReadTime:    readTime,
		Featured:    node.Featured,
		Author:      domain.Author{Name: defaultAuthorName},
	}

	if node.Image != nil {
		image := &domain.Image{
			URL:    node.Image.URL,
			Alt:    node.Image.Alt,
			Width:  node.Image.Width,
			Height: node.Image.Height,
		}
		if image.Alt == "" {
			image.Alt = node.Title
		}
		if image.Width == 0 {
			image.Width = 1200
		}
		if image.Height == 0 {
			image.Height = 630
		}
		article.Image = image
	}

	if node.AuthorName != "" {
		article.Author.Name = node.AuthorName
	}
	if node.AuthorAvatar != nil {
		avatar := &domain.Avatar{
			URL: node.AuthorAvatar.URL,
			Alt: node.AuthorAvatar.Alt,
		}
		if avatar.Alt == "" {
			avatar.Alt = node.AuthorName
		}
		article.Author.Avatar = avatar
	}

	return article
}
