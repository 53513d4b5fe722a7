// Package sheetsource reads a public practice sheet from the remote
// question tracker used to seed sheets.
package sheetsource

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/platform"
)

type Client struct {
	url  string
	http *platform.Client
}

// New returns a Client for the sheet document at url.
func New(url string, hc *http.Client) *Client {
	header := http.Header{}
	header.Set("Accept", "application/json")
	return &Client{url: url, http: platform.NewClient(hc, header)}
}

type sheetResponse struct {
	Data *struct {
		Questions []sheetItem `json:"questions"`
	} `json:"data"`
}

type sheetItem struct {
	Topic    string `json:"topic"`
	Question *struct {
		Name       string   `json:"name"`
		Platform   string   `json:"platform"`
		ProblemURL string   `json:"problemUrl"`
		Difficulty string   `json:"difficulty"`
		Topics     []string `json:"topics"`
	} `json:"questionId"`
}

// Questions returns the sheet's questions in sheet order. Items without a
// name are skipped. The returned questions have no ID.
func (c *Client) Questions(ctx context.Context) ([]model.Question, error) {
	var resp sheetResponse
	if err := c.http.GetJSON(ctx, c.url, &resp); err != nil {
		return nil, apperror.Upstream("sheet source", err)
	}
	if resp.Data == nil || resp.Data.Questions == nil {
		return nil, apperror.Upstream("sheet source", errors.New("response has no data.questions array"))
	}

	out := make([]model.Question, 0, len(resp.Data.Questions))
	for _, item := range resp.Data.Questions {
		if item.Question == nil || strings.TrimSpace(item.Question.Name) == "" {
			continue
		}
		q := item.Question
		tags := q.Topics
		if tags == nil {
			tags = []string{}
		}
		out = append(out, model.Question{
			Title:      q.Name,
			Platform:   q.Platform,
			URL:        q.ProblemURL,
			Difficulty: q.Difficulty,
			Topic:      item.Topic,
			Tags:       tags,
		})
	}
	return out, nil
}
