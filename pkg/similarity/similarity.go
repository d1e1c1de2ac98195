// Package similarity scores how alike two job postings are using a fixed
// keyword taxonomy. It is a lexical heuristic: deterministic, allocation-light
// and free of any model dependency.
package similarity

import (
	"slices"
	"strings"
)

// Neutral is the group score used when either side has no features in a group.
const Neutral = 50.0

const (
	roleWeight   = 0.4
	levelWeight  = 0.3
	domainWeight = 0.3

	levelMismatch = 40.0
)

// Level values produced by Extract.
const (
	LevelSenior      = "senior"
	LevelJunior      = "junior"
	LevelMid         = "mid"
	LevelUnspecified = "unspecified"
)

type category struct {
	name     string
	keywords []string
}

// roleTypes covers language/framework families and functional families.
var roleTypes = []category{
	{"python", []string{"python", "py", "python3", "django", "flask", "fastapi"}},
	{"javascript", []string{"javascript", "js", "node", "nodejs", "react", "vue", "angular", "next.js"}},
	{"java", []string{"java", "spring", "spring boot", "maven", "gradle"}},
	{"golang", []string{"golang", "go", "goland"}},
	{"rust", []string{"rust", "rustlang"}},
	{"csharp", []string{".net", "csharp", "c#", "dotnet"}},
	{"php", []string{"php", "laravel", "symfony"}},
	{"backend", []string{"backend", "api", "server", "services", "microservices"}},
	{"frontend", []string{"frontend", "ui", "ux", "web", "client"}},
	{"fullstack", []string{"fullstack", "full-stack", "full stack"}},
	{"devops", []string{"devops", "dev-ops", "sre", "infrastructure", "cloud"}},
	{"data", []string{"data", "ml", "ai", "machine learning", "analytics", "deep learning"}},
	{"mobile", []string{"mobile", "ios", "android", "react native", "flutter"}},
	{"senior", []string{"senior", "lead", "principal", "architect", "expert", "staff"}},
	{"junior", []string{"junior", "entry", "intern", "graduate", "fresher"}},
	{"mid", []string{"mid", "mid-level", "mid level", "experience"}},
}

// levels are checked in order; the first match wins.
var levels = []category{
	{LevelSenior, []string{"senior", "lead", "principal", "staff"}},
	{LevelJunior, []string{"junior", "entry", "intern", "fresher"}},
	{LevelMid, []string{"mid", "experienced"}},
}

var domains = []category{
	{"backend", []string{"api", "database", "server", "sql", "rest", "grpc", "graphql", "postgresql", "mongodb"}},
	{"frontend", []string{"html", "css", "dom", "responsive", "accessibility", "spa", "component"}},
	{"devops", []string{"docker", "kubernetes", "ci/cd", "jenkins", "terraform", "aws", "gcp", "azure"}},
	{"data", []string{"pandas", "numpy", "sklearn", "tensorflow", "spark", "hadoop"}},
	{"mobile", []string{"ios", "android", "swift", "kotlin", "native"}},
	{"cloud", []string{"aws", "gcp", "azure", "heroku", "lambda", "serverless"}},
}

// traits are reported for display only and do not contribute to the score.
var traits = []string{"scalability", "performance", "security", "testing", "agile", "startup"}

// Features is the categorical fingerprint of one (role, description) pair.
type Features struct {
	RoleTypes []string `json:"role_types"`
	Level     string   `json:"level"`
	Domains   []string `json:"domains"`
	Keywords  []string `json:"keywords"`
}

// Breakdown holds the per-group scores behind a combined score.
type Breakdown struct {
	Role   float64 `json:"role"`
	Level  float64 `json:"level"`
	Domain float64 `json:"domain"`
	Total  float64 `json:"total"`
}

// Scorer computes similarity between job postings. The zero value is ready to use.
type Scorer struct{}

// New returns a Scorer.
func New() *Scorer {
	return &Scorer{}
}

// Extract derives the feature sets for a role and description. Matching is
// case-insensitive substring membership against the taxonomy.
func (s *Scorer) Extract(role, description string) Features {
	text := strings.ToLower(role + " " + description)

	f := Features{Level: LevelUnspecified}
	for _, c := range roleTypes {
		if containsAny(text, c.keywords) {
			f.RoleTypes = append(f.RoleTypes, c.name)
		}
	}
	for _, c := range levels {
		if containsAny(text, c.keywords) {
			f.Level = c.name
			break
		}
	}
	for _, c := range domains {
		if containsAny(text, c.keywords) {
			f.Domains = append(f.Domains, c.name)
		}
	}
	for _, kw := range traits {
		if strings.Contains(text, kw) {
			f.Keywords = append(f.Keywords, kw)
		}
	}
	return f
}

// Score returns a similarity in [0, 100] between (roleA, descA) and (roleB, descB).
func (s *Scorer) Score(roleA, descA, roleB, descB string) float64 {
	return s.Compare(roleA, descA, roleB, descB).Total
}

// Compare is Score with the per-group breakdown.
func (s *Scorer) Compare(roleA, descA, roleB, descB string) Breakdown {
	a := s.Extract(roleA, descA)
	b := s.Extract(roleB, descB)

	var bd Breakdown
	bd.Role = jaccard(a.RoleTypes, b.RoleTypes)
	bd.Level = 100
	if a.Level != b.Level {
		bd.Level = levelMismatch
	}
	bd.Domain = jaccard(a.Domains, b.Domains)
	bd.Total = bd.Role*roleWeight + bd.Level*levelWeight + bd.Domain*domainWeight
	return bd
}

// Reason labels a score for humans.
func Reason(score float64) string {
	switch {
	case score >= 85:
		return "Nearly identical roles"
	case score >= 70:
		return "Very similar roles"
	case score >= 50:
		return "Moderately similar roles"
	case score >= 30:
		return "Somewhat related roles"
	default:
		return "Very different roles"
	}
}

// jaccard returns |a∩b| / |a∪b| * 100, or Neutral if either set is empty.
// Inputs are duplicate-free.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return Neutral
	}
	inter := 0
	for _, v := range a {
		if slices.Contains(b, v) {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union) * 100
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
