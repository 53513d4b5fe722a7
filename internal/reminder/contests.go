// Package reminder mails every user about contests starting tomorrow.
package reminder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sakif/codeminder/internal/platform"
)

type Contest struct {
	Name      string    `json:"contestName"`
	StartDate time.Time `json:"contestStartDate"`
	URL       string    `json:"contestUrl"`
}

// ContestClient reads the upcoming contest calendar.
type ContestClient struct {
	url  string
	http *platform.Client
}

func NewContestClient(url string, hc *http.Client) *ContestClient {
	header := http.Header{}
	header.Set("Accept", "application/json")
	return &ContestClient{url: url, http: platform.NewClient(hc, header)}
}

func (c *ContestClient) Upcoming(ctx context.Context) ([]Contest, error) {
	var resp struct {
		Data []Contest `json:"data"`
	}
	if err := c.http.GetJSON(ctx, c.url, &resp); err != nil {
		return nil, fmt.Errorf("reminder: fetching contests: %w", err)
	}
	return resp.Data, nil
}
