/**
 * @description
 * This file holds the GraphQL documents sent to the Drupal CMS and the Go
 * shapes of the nodes they return. The documents are fixed strings; user
 * input only ever flows through the variables object.
 */
package content

// QueryAllPosts lists the newest articles.
const QueryAllPosts = `
  query GetAllPosts {
    nodeArticles(first: 50) {
      nodes {
        id
        title
        path
        created {
          time
        }
        body {
          processed
          summary
        }
        readTime
        featured
        image {
          url
          alt
          width
          height
        }
        authorName
        authorAvatar {
          url
          alt
        }
      }
    }
  }
`

// QueryFeaturedPosts lists the three newest articles for the home page.
// Bodies are never needed here, only summaries.
const QueryFeaturedPosts = `
  query GetFeaturedPosts {
    nodeArticles(first: 3) {
      nodes {
        id
        title
        path
        created {
          time
        }
        body {
          summary
        }
        readTime
        featured
        image {
          url
          alt
          width
          height
        }
        authorName
        authorAvatar {
          url
          alt
        }
      }
    }
  }
`

// QueryPostByPath resolves a single article through Drupal's route lookup.
const QueryPostByPath = `
  query GetPostBySlug($path: String!) {
    route(path: $path) {
      ... on RouteInternal {
        entity {
          ... on NodeArticle {
            id
            title
            path
            created {
              time
            }
            body {
              processed
              summary
            }
            readTime
            featured
            image {
              url
              alt
              width
              height
            }
            authorName
            authorAvatar {
              url
              alt
            }
          }
        }
      }
    }
  }
`

// Node is the raw CMS article node as returned by the queries above.
type Node struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Path    string `json:"path"`
	Created struct {
		Time string `json:"time"`
	} `json:"created"`
	Body struct {
		Processed string `json:"processed"`
		Summary   string `json:"summary"`
	} `json:"body"`
	ReadTime string `json:"readTime"`
	Featured bool   `json:"featured"`
	Image    *struct {
		URL    string `json:"url"`
		Alt    string `json:"alt"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"image"`
	AuthorName   string `json:"authorName"`
	AuthorAvatar *struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	} `json:"authorAvatar"`
}

// listEnvelope is the response shape of QueryAllPosts.
type listEnvelope struct {
	Data struct {
		NodeArticles struct {
			Nodes []Node `json:"nodes"`
		} `json:"nodeArticles"`
	} `json:"data"`
}

// routeEnvelope is the response shape of QueryPostByPath.
type routeEnvelope struct {
	Data struct {
		Route struct {
			Entity *Node `json:"entity"`
		} `json:"route"`
	} `json:"data"`
}
