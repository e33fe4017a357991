// Package matching scores how well two users would work as accountability
// partners and ranks a candidate pool for a subject user.
//
// Every sub-score is bounded to [0,100] and the overall score is a weighted
// sum whose weights add up to 1, so the overall score is bounded as well.
// Profiles with little data fall back to neutral mid-range scores so that
// new accounts still surface in discovery.
package matching

import (
	"hash/fnv"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	weightHabits   = 0.35
	weightTimezone = 0.25
	weightActivity = 0.25
	weightGoals    = 0.15

	maxCommonShown = 3
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// HabitProfile is the part of a habit that matching looks at.
type HabitProfile struct {
	Name       string
	Category   string
	Difficulty Difficulty
	Frequency  Frequency
}

type Stats struct {
	TotalHabitsCompleted int
	CurrentStreak        int
}

// Profile is a fully loaded user as seen by the matcher.
type Profile struct {
	UserID   string
	Timezone string
	Goals    []string
	Stats    Stats
	Habits   []HabitProfile
}

// Criteria holds the four sub-scores behind a match score.
type Criteria struct {
	HabitSimilarity       float64 `json:"habitSimilarity"`
	TimezoneCompatibility float64 `json:"timezoneCompatibility"`
	ActivityLevel         float64 `json:"activityLevel"`
	GoalAlignment         float64 `json:"goalAlignment"`
}

// Match is one ranked candidate.
type Match struct {
	UserID           string   `json:"userId"`
	Timezone         string   `json:"timezone"`
	HabitCount       int      `json:"habitCount"`
	MatchScore       float64  `json:"matchScore"`
	MatchingCriteria Criteria `json:"matchingCriteria"`
	CommonHabits     []string `json:"commonHabits"`
	CommonCategories []string `json:"commonCategories"`
}

// Matcher ranks candidates. The clock only drives the daily rotation of
// displayed common interests; scores do not depend on it.
type Matcher struct {
	now func() time.Time
}

func NewMatcher(now func() time.Time) *Matcher {
	if now == nil {
		now = time.Now
	}
	return &Matcher{now: now}
}

// FindPartners scores every candidate in pool against subject and returns
// the best k, highest score first. Equal scores keep pool order. k <= 0
// returns every candidate.
func (m *Matcher) FindPartners(subject Profile, pool []Profile, k int) []Match {
	matches := make([]Match, 0, len(pool))
	for _, candidate := range pool {
		if candidate.UserID == subject.UserID {
			continue
		}
		matches = append(matches, m.Score(subject, candidate))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Score computes the match of a single candidate against subject.
func (m *Matcher) Score(subject, candidate Profile) Match {
	criteria := Criteria{
		HabitSimilarity:       HabitSimilarity(subject.Habits, candidate.Habits),
		TimezoneCompatibility: TimezoneCompatibility(subject.Timezone, candidate.Timezone),
		ActivityLevel:         ActivityLevel(subject.Stats, candidate.Stats),
		GoalAlignment:         GoalAlignment(subject.Goals, candidate.Goals),
	}

	seed := diversifySeed(subject.UserID, candidate.UserID, m.now())

	return Match{
		UserID:           candidate.UserID,
		Timezone:         normalizeTimezone(candidate.Timezone),
		HabitCount:       len(candidate.Habits),
		MatchScore:       round2(overall(criteria)),
		MatchingCriteria: roundCriteria(criteria),
		CommonHabits:     diversify(commonHabitNames(subject.Habits, candidate.Habits), maxCommonShown, seed),
		CommonCategories: diversify(commonCategories(subject.Habits, candidate.Habits), maxCommonShown, seed),
	}
}

// Evaluation compares a stored partnership score with a fresh one.
type Evaluation struct {
	CurrentScore float64  `json:"currentScore"`
	NewScore     float64  `json:"newScore"`
	Improvement  float64  `json:"improvement"`
	Criteria     Criteria `json:"criteria"`
}

// Evaluate rescores an existing pair and reports the change from current.
func (m *Matcher) Evaluate(current float64, a, b Profile) Evaluation {
	match := m.Score(a, b)
	return Evaluation{
		CurrentScore: current,
		NewScore:     match.MatchScore,
		Improvement:  round2(match.MatchScore - current),
		Criteria:     match.MatchingCriteria,
	}
}

func overall(c Criteria) float64 {
	return clamp(c.HabitSimilarity*weightHabits +
		c.TimezoneCompatibility*weightTimezone +
		c.ActivityLevel*weightActivity +
		c.GoalAlignment*weightGoals)
}

// HabitSimilarity blends category overlap, difficulty closeness and
// frequency overlap. Empty habit lists get neutral scores.
func HabitSimilarity(a, b []HabitProfile) float64 {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 50
	case len(a) == 0 || len(b) == 0:
		return 25
	}

	catsA := categorySet(a)
	catsB := categorySet(b)
	intersection := 0
	union := len(catsB)
	for c := range catsA {
		if _, ok := catsB[c]; ok {
			intersection++
		} else {
			union++
		}
	}
	categorySim := 0.0
	if union > 0 {
		categorySim = float64(intersection) / float64(union)
	}

	diffGap := math.Abs(avgDifficulty(a) - avgDifficulty(b))
	difficultySim := math.Max(0, 1-diffGap/2)

	freqsB := make(map[Frequency]struct{}, len(b))
	for _, h := range b {
		freqsB[frequencyOf(h)] = struct{}{}
	}
	freqMatches := 0
	for _, h := range a {
		if _, ok := freqsB[frequencyOf(h)]; ok {
			freqMatches++
		}
	}
	frequencySim := float64(freqMatches) / float64(max(len(a), len(b)))

	return clamp((categorySim*0.4 + difficultySim*0.3 + frequencySim*0.3) * 100)
}

// TimezoneCompatibility drops 10 points per hour of offset difference.
func TimezoneCompatibility(tz1, tz2 string) float64 {
	tz1 = normalizeTimezone(tz1)
	tz2 = normalizeTimezone(tz2)
	if tz1 == tz2 {
		return 100
	}
	diff := math.Abs(timezoneOffset(tz1) - timezoneOffset(tz2))
	return clamp(100 - diff*10)
}

// ActivityLevel compares completions plus weighted streaks.
func ActivityLevel(a, b Stats) float64 {
	actA := activity(a)
	actB := activity(b)
	switch {
	case actA == 0 && actB == 0:
		return 100
	case actA == 0 || actB == 0:
		return 20
	}
	return clamp(math.Min(actA, actB) / math.Max(actA, actB) * 100)
}

// GoalAlignment is the share of a's goals that b shares, relative to the
// longer list.
func GoalAlignment(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 50
	}
	inB := make(map[string]struct{}, len(b))
	for _, g := range b {
		inB[g] = struct{}{}
	}
	common := 0
	for _, g := range a {
		if _, ok := inB[g]; ok {
			common++
		}
	}
	return clamp(float64(common) / float64(max(len(a), len(b))) * 100)
}

func activity(s Stats) float64 {
	return float64(max(s.TotalHabitsCompleted, 0) + 2*max(s.CurrentStreak, 0))
}

func categorySet(habits []HabitProfile) map[string]struct{} {
	set := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		set[h.Category] = struct{}{}
	}
	return set
}

func avgDifficulty(habits []HabitProfile) float64 {
	sum := 0
	for _, h := range habits {
		sum += difficultyValue(h.Difficulty)
	}
	return float64(sum) / float64(len(habits))
}

func difficultyValue(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

func frequencyOf(h HabitProfile) Frequency {
	if h.Frequency == "" {
		return FrequencyDaily
	}
	return h.Frequency
}

func commonHabitNames(a, b []HabitProfile) []string {
	names := make(map[string]struct{}, len(b))
	for _, h := range b {
		if h.Name != "" {
			names[strings.ToLower(h.Name)] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, h := range a {
		key := strings.ToLower(h.Name)
		if h.Name == "" {
			continue
		}
		if _, ok := names[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h.Name)
	}
	return out
}

func commonCategories(a, b []HabitProfile) []string {
	catsB := categorySet(b)
	seen := make(map[string]struct{})
	var out []string
	for _, h := range a {
		if h.Category == "" {
			continue
		}
		if _, ok := catsB[h.Category]; !ok {
			continue
		}
		if _, dup := seen[h.Category]; dup {
			continue
		}
		seen[h.Category] = struct{}{}
		out = append(out, h.Category)
	}
	return out
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundCriteria(c Criteria) Criteria {
	return Criteria{
		HabitSimilarity:       round2(c.HabitSimilarity),
		TimezoneCompatibility: round2(c.TimezoneCompatibility),
		ActivityLevel:         round2(c.ActivityLevel),
		GoalAlignment:         round2(c.GoalAlignment),
	}
}

// diversifySeed changes once per day for each ordered pair of users.
func diversifySeed(subjectID, candidateID string, now time.Time) uint32 {
	dayOfYear := (now.Unix() / 86400) % 365
	h := fnv.New32a()
	_, _ = h.Write([]byte(subjectID + "-" + candidateID + "-" + strconv.FormatInt(dayOfYear, 10)))
	return h.Sum32()
}

// diversify picks up to limit items starting at a seeded offset and
// stepping by two, then tops up in input order.
func diversify(items []string, limit int, seed uint32) []string {
	if len(items) <= limit {
		return items
	}

	n := len(items)
	start := int(seed % uint32(n))
	picked := make(map[int]struct{}, limit)
	out := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (start + i*2) % n
		if _, dup := picked[idx]; dup {
			continue
		}
		picked[idx] = struct{}{}
		out = append(out, items[idx])
	}
	for idx := 0; idx < n && len(out) < limit; idx++ {
		if _, dup := picked[idx]; dup {
			continue
		}
		picked[idx] = struct{}{}
		out = append(out, items[idx])
	}
	return out
}
