package http

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses. The
// category filter, when present, is carried into every link.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	extra := ""
	if cat := c.Query("category"); cat != "" {
		extra = "&category=" + url.QueryEscape(cat)
	}

	var links []string

	// first
	links = append(links, fmt.Sprintf(`<%s?offset=0&limit=%d%s>; rel="first"`, base, p.Limit, extra))

	// prev
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d%s>; rel="prev"`, base, prev, p.Limit, extra))
	}

	// next
	if p.Offset+p.Limit < p.Total {
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d%s>; rel="next"`, base, p.Offset+p.Limit, p.Limit, extra))
	}

	// last
	lastOffset := p.Total - p.Limit
	if lastOffset < 0 {
		lastOffset = 0
	}
	links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d%s>; rel="last"`, base, lastOffset, p.Limit, extra))

	c.Set("Link", strings.Join(links, ", "))
}
