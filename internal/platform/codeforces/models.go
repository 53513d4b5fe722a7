package codeforces

type envelope struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  any    `json:"result"`
}

type userInfo struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
	Rank      string `json:"rank"`
	MaxRank   string `json:"maxRank"`
}

type submission struct {
	ID                  int64   `json:"id"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             problem `json:"problem"`
	Verdict             string  `json:"verdict"`
}

type problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}
