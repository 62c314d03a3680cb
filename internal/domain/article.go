/**
 * @description
 * This file defines the normalized article entity consumed from the CMS.
 * Raw Drupal GraphQL nodes are normalized into this shape by the content
 * package; handlers and templates never see CMS-specific field names.
 */
package domain

// Image describes an article's hero image.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Avatar is an author's profile image.
type Avatar struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Author is the article byline.
type Author struct {
	Name   string  `json:"name"`
	Avatar *Avatar `json:"avatar,omitempty"`
}

// Article is the uniform content entity the rest of the service works with.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Excerpt     string `json:"excerpt"`
	Body        string `json:"body,omitempty"`
	PublishedAt string `json:"publishedAt"`
	ReadTime    string `json:"readTime"`
	Featured    bool   `json:"featured"`
	Image       *Image `json:"image,omitempty"`
	Author      Author `json:"author"`
}
