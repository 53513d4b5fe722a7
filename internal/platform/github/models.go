package github

type userResponse struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	Followers   int    `json:"followers"`
	PublicRepos int    `json:"public_repos"`
}

type repoResponse struct {
	Name            string   `json:"name"`
	Fork            bool     `json:"fork"`
	Language        string   `json:"language"`
	Size            int      `json:"size"`
	StargazersCount int      `json:"stargazers_count"`
	Topics          []string `json:"topics"`
}

type searchResponse struct {
	TotalCount int `json:"total_count"`
}

type graphQLResponse struct {
	Data struct {
		User *struct {
			ContributionsCollection contributionsCollection `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"errors"`
}

type contributionsCollection struct {
	TotalCommitContributions int `json:"totalCommitContributions"`
	ContributionCalendar     struct {
		TotalContributions int `json:"totalContributions"`
		Weeks              []struct {
			ContributionDays []struct {
				Date              string `json:"date"`
				ContributionCount int    `json:"contributionCount"`
			} `json:"contributionDays"`
		} `json:"weeks"`
	} `json:"contributionCalendar"`
}
