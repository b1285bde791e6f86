package router

import (
	"strings"

	"github.com/conneroisu/keystone/internal/tmpl"
)

// Score ranks candidate against requestPath. Both are slash-separated and
// compared segment by segment; the template extension is ignored on the
// candidate. A parameter segment scores nothing, an exact segment scores
// one, and an index candidate matching an empty request segment scores
// two.
func Score(requestPath, candidate string) int {
	req := strings.Split(requestPath, "/")
	cand := strings.Split(candidate, "/")

	score := 0
	for i := 0; i < len(req) && i < len(cand); i++ {
		seg := strings.TrimSuffix(cand[i], tmpl.Extension)

		switch {
		case strings.HasPrefix(seg, ParamPrefix):
		case seg == req[i]:
			score++
		case req[i] == "" && seg == "index":
			score += 2
		}
	}

	return score
}

// Params extracts URL parameters by pairing request segments with the
// candidate's parameter segments.
func Params(requestPath, candidate string) map[string]string {
	req := strings.Split(requestPath, "/")
	cand := strings.Split(candidate, "/")

	params := make(map[string]string)
	for i := 0; i < len(req) && i < len(cand); i++ {
		if !strings.HasPrefix(cand[i], ParamPrefix) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(cand[i], ParamPrefix), tmpl.Extension)
		params[name] = req[i]
	}

	return params
}
