// Package answers holds the word dictionary and the scoring rules applied
// when a round's cards are compared.
package answers

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"wordclash/internal/domain"
)

// Dictionary maps an uppercase letter to the accepted words per category.
type Dictionary map[string]map[domain.Category][]string

// Store answers two questions: is a word acceptable for a letter and
// category, and what word would a bot play. Lookups are case-insensitive.
type Store struct {
	words Dictionary
	index map[string]map[domain.Category]map[string]struct{}
	rng   *rand.Rand
}

// New builds a Store from a dictionary. A nil rng gets a time-based seed.
func New(words Dictionary, rng *rand.Rand) *Store {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Store{
		words: make(Dictionary, len(words)),
		index: make(map[string]map[domain.Category]map[string]struct{}, len(words)),
		rng:   rng,
	}
	for letter, categories := range words {
		letter = strings.ToUpper(letter)
		s.words[letter] = categories
		byCategory := make(map[domain.Category]map[string]struct{}, len(categories))
		for category, list := range categories {
			set := make(map[string]struct{}, len(list))
			for _, w := range list {
				set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
			}
			byCategory[category] = set
		}
		s.index[letter] = byCategory
	}
	return s
}

// Load reads a JSON dictionary file shaped letter -> category -> [words].
func Load(path string, rng *rand.Rand) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var words Dictionary
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}
	return New(words, rng), nil
}

// Valid reports whether an answer is acceptable for the letter and category:
// non-empty after trimming, at least two characters, starting with the
// letter, and present in the dictionary.
func (s *Store) Valid(letter string, category domain.Category, answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < 2 {
		return false
	}
	letter = strings.ToUpper(letter)
	if !strings.EqualFold(trimmed[:1], letter) {
		return false
	}
	byCategory, ok := s.index[letter]
	if !ok {
		return false
	}
	set, ok := byCategory[category]
	if !ok {
		return false
	}
	_, ok = set[strings.ToLower(trimmed)]
	return ok
}

// Pick returns a random dictionary word for the letter and category, skipping
// any word in exclude (case-insensitive). Empty string when nothing fits.
func (s *Store) Pick(letter string, category domain.Category, exclude ...string) string {
	letter = strings.ToUpper(letter)
	categories, ok := s.words[letter]
	if !ok {
		return ""
	}
	list := categories[category]
	if len(list) == 0 {
		return ""
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, w := range exclude {
		skip[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	candidates := make([]string, 0, len(list))
	for _, w := range list {
		if _, dup := skip[strings.ToLower(strings.TrimSpace(w))]; dup {
			continue
		}
		candidates = append(candidates, w)
	}
	if len(candidates) == 0 {
		// Everything is excluded; fall back to a duplicate rather than a blank
		// card.
		candidates = list
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// Letters lists the letters the dictionary covers for every category, sorted.
// The letter-selection phase only offers letters a bot could complete.
func (s *Store) Letters() []string {
	letters := make([]string, 0, len(s.words))
	for letter, categories := range s.words {
		complete := true
		for _, category := range domain.CardSequence {
			if len(categories[category]) == 0 {
				complete = false
				break
			}
		}
		if complete {
			letters = append(letters, letter)
		}
	}
	sort.Strings(letters)
	return letters
}
