package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"watchmate/internal/logging"
)

// FetchFriends walks the paginated following list of username and returns the
// usernames found, in page order and deduplicated. The user's own username is
// excluded. As with watchlists, rate limiting and page errors end the walk
// with a partial result and no error.
func (c *Client) FetchFriends(ctx context.Context, username string) ([]string, error) {
	var friends []string
	seen := make(map[string]struct{})

	log := c.logger.With(logging.String(logging.FieldUsername, username))
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return friends, err
		}
		url := fmt.Sprintf("%s/%s/following/page/%d/", c.baseURL, username, page)
		doc, err := c.fetchDocument(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return friends, ctxErr
			}
			if errors.Is(err, errRateLimited) {
				log.Warn("rate limited, stopping with partial friend list",
					logging.Int(logging.FieldPage, page),
					logging.Int("friends", len(friends)))
				return friends, nil
			}
			log.Warn("following page failed, stopping with partial friend list",
				logging.Int(logging.FieldPage, page),
				logging.Error(err))
			return friends, nil
		}

		found := 0
		doc.Find(".person-summary").Each(func(_ int, person *goquery.Selection) {
			href, ok := person.Find("a.avatar").First().Attr("href")
			if !ok {
				return
			}
			found++
			name := firstPathSegment(href)
			if name == "" || strings.EqualFold(name, username) {
				return
			}
			if _, dup := seen[name]; dup {
				return
			}
			seen[name] = struct{}{}
			friends = append(friends, name)
		})
		if found == 0 {
			break
		}
		if err := c.pause(ctx); err != nil {
			return friends, err
		}
	}

	log.Info("friends fetched", logging.Int("friends", len(friends)))
	return friends, nil
}

func firstPathSegment(href string) string {
	for _, segment := range strings.Split(href, "/") {
		if segment != "" {
			return segment
		}
	}
	return ""
}
