// Package draft models the Captain's Mode pick/ban sequence.
package draft

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

type Team string

const (
	FirstPick  Team = "first_pick"
	SecondPick Team = "second_pick"
)

type Action string

const (
	Ban  Action = "ban"
	Pick Action = "pick"
)

type Step struct {
	Order  int    `json:"order"`
	Phase  int    `json:"phase"`
	Team   Team   `json:"team"`
	Action Action `json:"action"`
}

const TotalSteps = 24

var order = [TotalSteps]Step{
	{1, 1, FirstPick, Ban},
	{2, 1, FirstPick, Ban},
	{3, 1, SecondPick, Ban},
	{4, 1, SecondPick, Ban},
	{5, 1, FirstPick, Ban},
	{6, 1, SecondPick, Ban},
	{7, 1, SecondPick, Ban},
	{8, 1, FirstPick, Pick},
	{9, 1, SecondPick, Pick},

	{10, 2, FirstPick, Ban},
	{11, 2, FirstPick, Ban},
	{12, 2, SecondPick, Ban},
	{13, 2, SecondPick, Pick},
	{14, 2, FirstPick, Pick},
	{15, 2, FirstPick, Pick},
	{16, 2, SecondPick, Pick},
	{17, 2, SecondPick, Pick},
	{18, 2, FirstPick, Pick},

	{19, 3, FirstPick, Ban},
	{20, 3, SecondPick, Ban},
	{21, 3, FirstPick, Ban},
	{22, 3, SecondPick, Ban},
	{23, 3, FirstPick, Pick},
	{24, 3, SecondPick, Pick},
}

// Order returns a copy of the sequence, steps 1 through 24.
func Order() []Step {
	out := make([]Step, TotalSteps)
	copy(out, order[:])
	return out
}

// StepAt returns the step with the given order number.
func StepAt(n int) (Step, bool) {
	if n < 1 || n > TotalSteps {
		return Step{}, false
	}
	return order[n-1], true
}

// State maps a step order to the hero chosen there. Zero means empty.
type State map[int]int

func (s State) hero(n int) int {
	if s == nil {
		return 0
	}
	return s[n]
}

// SelectHero returns a new state with heroID placed at step. The input is
// never modified. A zero heroID clears the step.
func SelectHero(s State, step, heroID int) State {
	out := make(State, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	if heroID == 0 {
		delete(out, step)
	} else {
		out[step] = heroID
	}
	return out
}

type Analysis struct {
	Banned          []int `json:"banned"`
	FirstPickPicks  []int `json:"first_pick_picks"`
	SecondPickPicks []int `json:"second_pick_picks"`
	CompletedSteps  int   `json:"completed_steps"`
	TotalSteps      int   `json:"total_steps"`
}

func Analyze(s State) Analysis {
	a := Analysis{
		Banned:          []int{},
		FirstPickPicks:  []int{},
		SecondPickPicks: []int{},
		TotalSteps:      TotalSteps,
	}
	for _, st := range order {
		hero := s.hero(st.Order)
		if hero == 0 {
			continue
		}
		a.CompletedSteps++
		switch {
		case st.Action == Ban:
			a.Banned = append(a.Banned, hero)
		case st.Team == FirstPick:
			a.FirstPickPicks = append(a.FirstPickPicks, hero)
		default:
			a.SecondPickPicks = append(a.SecondPickPicks, hero)
		}
	}
	return a
}

func IsHeroAvailable(s State, heroID int) bool {
	for _, hero := range s {
		if hero == heroID {
			return false
		}
	}
	return true
}

// NextEmptyStep returns the first unfilled step order.
func NextEmptyStep(s State) (int, bool) {
	for _, st := range order {
		if s.hero(st.Order) == 0 {
			return st.Order, true
		}
	}
	return 0, false
}

func EmptySteps(s State) []int {
	out := []int{}
	for _, st := range order {
		if s.hero(st.Order) == 0 {
			out = append(out, st.Order)
		}
	}
	return out
}

type TeamAction struct {
	Step
	HeroID *int `json:"hero_id"`
}

// ActionsForTeam lists the steps owned by team in table order, with the hero
// filled at each one, if any.
func ActionsForTeam(s State, team Team) []TeamAction {
	out := []TeamAction{}
	for _, st := range order {
		if st.Team != team {
			continue
		}
		action := TeamAction{Step: st}
		if hero := s.hero(st.Order); hero != 0 {
			action.HeroID = &hero
		}
		out = append(out, action)
	}
	return out
}

// Serialize renders the filled steps with string keys, the shape used in JSON.
func Serialize(s State) map[string]int {
	out := make(map[string]int, len(s))
	for k, v := range s {
		if v == 0 {
			continue
		}
		out[strconv.Itoa(k)] = v
	}
	return out
}

// Deserialize is permissive: keys or values that are not numbers are skipped.
func Deserialize(raw map[string]any) State {
	out := State{}
	for k, v := range raw {
		step, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if _, ok := StepAt(step); !ok {
			continue
		}
		hero, ok := toInt(v)
		if !ok || hero == 0 {
			continue
		}
		out[step] = hero
	}
	return out
}

// ParseState decodes a JSON object into a State. Only malformed JSON fails.
func ParseState(data []byte) (State, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse draft state: %w", err)
	}
	return Deserialize(raw), nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

// Steps returns the filled step numbers in ascending order.
func (s State) Steps() []int {
	out := make([]int, 0, len(s))
	for k, v := range s {
		if v != 0 {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}
