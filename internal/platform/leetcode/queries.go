package leetcode

const solvedQuery = `query userSolved($username: String!) {
  matchedUser(username: $username) {
    username
    submitStatsGlobal { acSubmissionNum { difficulty count } }
  }
}`

const calendarQuery = `query userCalendar($username: String!) {
  matchedUser(username: $username) {
    userCalendar { streak totalActiveDays submissionCalendar }
  }
}`

const topicsQuery = `query userTopics($username: String!) {
  matchedUser(username: $username) {
    tagProblemCounts {
      advanced { tagName problemsSolved }
      intermediate { tagName problemsSolved }
      fundamental { tagName problemsSolved }
    }
  }
}`

const badgesQuery = `query userBadges($username: String!) {
  matchedUser(username: $username) {
    badges { id displayName icon }
  }
}`

type solvedUser struct {
	Username          string `json:"username"`
	SubmitStatsGlobal struct {
		AcSubmissionNum []struct {
			Difficulty string `json:"difficulty"`
			Count      int    `json:"count"`
		} `json:"acSubmissionNum"`
	} `json:"submitStatsGlobal"`
}

type calendarUser struct {
	UserCalendar struct {
		Streak             int    `json:"streak"`
		TotalActiveDays    int    `json:"totalActiveDays"`
		SubmissionCalendar string `json:"submissionCalendar"`
	} `json:"userCalendar"`
}

type tagCount struct {
	TagName        string `json:"tagName"`
	ProblemsSolved int    `json:"problemsSolved"`
}

type topicsUser struct {
	TagProblemCounts struct {
		Advanced     []tagCount `json:"advanced"`
		Intermediate []tagCount `json:"intermediate"`
		Fundamental  []tagCount `json:"fundamental"`
	} `json:"tagProblemCounts"`
}

type badgesUser struct {
	Badges []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Icon        string `json:"icon"`
	} `json:"badges"`
}
