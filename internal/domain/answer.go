package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxExactIndex bounds the float range that still converts to an exact int.
const maxExactIndex = 1 << 53

// Answer is a submitted option index. Clients send either a JSON number or its textual form,
// so both 2 and "2" normalize to the same index. Values that are not an integral number
// (bool, null, empty or non-numeric text, 2.5) are kept but never match any index.
type Answer struct {
	index int
	valid bool
}

// Answers maps question IDs to submitted answers.
type Answers map[string]Answer

// AnswerIndex builds an answer for option index i.
func AnswerIndex(i int) Answer {
	return Answer{index: i, valid: true}
}

// ParseAnswer normalizes a decoded value (number, numeric string, json.Number) into an Answer.
func ParseAnswer(v any) Answer {
	switch x := v.(type) {
	case Answer:
		return x
	case int:
		return AnswerIndex(x)
	case int64:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		return fromText(x.String())
	case string:
		return fromText(x)
	default:
		return Answer{}
	}
}

// Index returns the normalized index and whether the answer is an integral number at all.
func (a Answer) Index() (int, bool) {
	return a.index, a.valid
}

// Matches reports whether the answer selects the given option index.
func (a Answer) Matches(correctIndex int) bool {
	return a.valid && a.index == correctIndex
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		*a = Answer{}
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = fromText(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*a = fromText(raw)
	default:
		// null, booleans, objects and arrays are accepted but never match
		*a = Answer{}
	}
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(a.index)), nil
}

func fromText(s string) Answer {
	s = strings.TrimSpace(s)
	if s == "" {
		return Answer{}
	}
	if i, err := strconv.Atoi(s); err == nil {
		return AnswerIndex(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Answer{}
	}
	return fromFloat(f)
}

func fromFloat(f float64) Answer {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxExactIndex {
		return Answer{}
	}
	return AnswerIndex(int(f))
}
