// Package rapidfire serves offline interview rounds from a static question
// bank and scores answers by keyword coverage, without calling a model.
package rapidfire

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/intervue-ai/intervue/pkg/models"
)

// GeneralRole is the bank key used when no role-specific questions match.
const GeneralRole = "General"

// Bank holds questions grouped by role.
type Bank struct {
	roles map[string][]models.Question
	keys  []string // sorted role names

	mu  sync.Mutex
	rnd *rand.Rand
}

// Load reads a question bank JSON file of the form {"Role": [question, ...]}.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var roles map[string][]models.Question
	if err := json.Unmarshal(data, &roles); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	b := NewBank(roles, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	log.Printf("loaded %d offline questions for %d roles", b.Total(), len(b.keys))
	return b, nil
}

// NewBank wraps an in-memory question set. rnd drives sampling and shuffling.
func NewBank(roles map[string][]models.Question, rnd *rand.Rand) *Bank {
	if roles == nil {
		roles = map[string][]models.Question{}
	}
	keys := make([]string, 0, len(roles))
	for k := range roles {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return &Bank{roles: roles, keys: keys, rnd: rnd}
}

// Roles returns the role names in the bank, sorted.
func (b *Bank) Roles() []string {
	return slices.Clone(b.keys)
}

// Total returns the number of questions across all roles.
func (b *Bank) Total() int {
	n := 0
	for _, qs := range b.roles {
		n += len(qs)
	}
	return n
}

// Match resolves a requested role to a bank key: the exact key, else the first
// key (in sorted order) that contains or is contained in the role, ignoring
// case, else GeneralRole.
func (b *Bank) Match(role string) string {
	if _, ok := b.roles[role]; ok {
		return role
	}
	lower := strings.ToLower(role)
	for _, k := range b.keys {
		lk := strings.ToLower(k)
		if strings.Contains(lower, lk) || strings.Contains(lk, lower) {
			return k
		}
	}
	return GeneralRole
}

// Select draws n questions for the role. Short role sets are topped up from
// the general pool and, failing that, by repeating questions. The result is
// numbered from 1 and carries the per-question time limit.
func (b *Bank) Select(role string, n int, timeLimit time.Duration) []models.Question {
	key := b.Match(role)
	if key != role {
		log.Printf("rapid fire: mapped %q to %q", role, key)
	}
	candidates := b.roles[key]

	b.mu.Lock()
	defer b.mu.Unlock()

	var selected []models.Question
	if len(candidates) >= n {
		selected = b.sample(candidates, n)
	} else {
		log.Printf("rapid fire: only %d questions for %q, filling with %s", len(candidates), role, GeneralRole)
		selected = slices.Clone(candidates)
		var general []models.Question
		for _, q := range b.roles[GeneralRole] {
			if !slices.ContainsFunc(selected, func(s models.Question) bool { return s.Question == q.Question }) {
				general = append(general, q)
			}
		}
		selected = append(selected, b.sample(general, min(n-len(selected), len(general)))...)
		for len(selected) > 0 && len(selected) < n {
			selected = append(selected, selected[b.rnd.IntN(len(selected))])
		}
		b.rnd.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	}

	out := make([]models.Question, len(selected))
	for i, q := range selected {
		out[i] = models.Question{
			Question:   q.Question,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			Keywords:   slices.Clone(q.Keywords),
			Number:     i + 1,
			TimeLimit:  int(timeLimit.Seconds()),
		}
	}
	return out
}

// sample picks n distinct elements in random order. Callers hold b.mu.
func (b *Bank) sample(qs []models.Question, n int) []models.Question {
	perm := b.rnd.Perm(len(qs))
	out := make([]models.Question, 0, n)
	for _, i := range perm[:n] {
		out = append(out, qs[i])
	}
	return out
}
