package jobs

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codeminder/internal/apperror"
)

const listingPage = `<html><body>
<div class="individual_internship">
  <h3><a href="/job/detail/backend-developer-123">Backend   Developer</a></h3>
  <p class="company_name"> Acme Corp </p>
  <div class="locations"><span><a>Bangalore</a></span></div>
  <div class="internship_logo"><img src="https://cdn.example.com/acme.png"></div>
  <div><i class="ic-16-briefcase"></i><span>6 Months</span></div>
  <div><i class="ic-16-money"></i><span>₹ 20,000 /month</span></div>
</div>
<div class="individual_internship">
  <p class="company_name">No Title Inc</p>
</div>
<div class="individual_internship">
  <h3><a href="https://other.example.com/x">Go Intern</a></h3>
</div>
</body></html>`

func TestSearch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	jobs, err := New(srv.URL+"/jobs/keywords-", srv.Client()).Search(t.Context(), "web development")
	require.NoError(t, err)
	assert.Equal(t, "/jobs/keywords-web%20development", gotPath)
	require.Len(t, jobs, 2, "card without a title is skipped")

	first := jobs[0]
	assert.Equal(t, "Backend Developer", first.Title)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.Equal(t, "Bangalore", first.Location)
	assert.Equal(t, srv.URL+"/job/detail/backend-developer-123", first.Link)
	assert.Equal(t, "https://cdn.example.com/acme.png", first.Logo)
	assert.Equal(t, "6 Months", first.Duration)
	assert.Equal(t, "₹ 20,000 /month", first.Stipend)

	second := jobs[1]
	assert.Equal(t, "Go Intern", second.Title)
	assert.Equal(t, defaultCompany, second.Company)
	assert.Equal(t, defaultLocation, second.Location)
	assert.Equal(t, defaultDuration, second.Duration)
	assert.Equal(t, defaultStipend, second.Stipend)
	assert.Equal(t, "https://other.example.com/x", second.Link)
	assert.Empty(t, second.Logo)
}

func TestSearch_Limit(t *testing.T) {
	var page strings.Builder
	page.WriteString("<html><body>")
	for i := range 20 {
		fmt.Fprintf(&page, `<div class="individual_internship"><h3><a href="/j/%d">Job %d</a></h3></div>`, i, i)
	}
	page.WriteString("</body></html>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page.String()))
	}))
	defer srv.Close()

	jobs, err := New(srv.URL+"/", srv.Client()).Search(t.Context(), "go")
	require.NoError(t, err)
	assert.Len(t, jobs, MaxResults)
	assert.Equal(t, "Job 14", jobs[MaxResults-1].Title)
}

func TestSearch_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	s := New(srv.URL+"/", srv.Client())

	_, err := s.Search(t.Context(), "  ")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = s.Search(t.Context(), "go")
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
}
