package dataset

import (
	"encoding/json"
	"fmt"

	"github.com/xiaolongtang/rw/internal/model"
)

// Validate parses raw JSON and checks it against the dataset schema.
// It fails fast on the first violation and never returns a partial
// dataset. Unit and question indexes in messages are 1-based.
func Validate(raw []byte) (*model.Dataset, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidData, err)
	}
	return ValidateValue(value)
}

// ValidateValue checks an already-parsed JSON value against the
// dataset schema.
func ValidateValue(value any) (*model.Dataset, error) {
	root, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root must be an object", ErrInvalidData)
	}

	codes, err := languageCodes(root)
	if err != nil {
		return nil, err
	}

	dataset := &model.Dataset{
		Language: codes,
		Nodes:    make(map[string]model.LanguageNode, len(codes)),
	}
	for _, code := range codes {
		node, err := languageNode(root, code)
		if err != nil {
			return nil, err
		}
		dataset.Nodes[code] = node
	}
	return dataset, nil
}

func languageCodes(root map[string]any) ([]string, error) {
	rawList, ok := root["language"].([]any)
	if !ok || len(rawList) == 0 {
		return nil, fmt.Errorf("%w: language must be a non-empty array", ErrInvalidData)
	}
	codes := make([]string, 0, len(rawList))
	seen := make(map[string]struct{}, len(rawList))
	for _, entry := range rawList {
		code, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("%w: language entries must be strings", ErrInvalidData)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("%w: duplicate language code %q", ErrInvalidData, code)
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

func languageNode(root map[string]any, code string) (model.LanguageNode, error) {
	var node model.LanguageNode
	rawNode, ok := root[code].(map[string]any)
	if !ok {
		return node, fmt.Errorf("%w: language %s has no node object", ErrInvalidData, code)
	}
	keyboard, ok := rawNode["keyboard"].(string)
	if !ok {
		return node, fmt.Errorf("%w: language %s is missing the keyboard field", ErrInvalidData, code)
	}
	rawUnits, ok := rawNode["Unit"].([]any)
	if !ok {
		return node, fmt.Errorf("%w: Unit of language %s must be an array", ErrInvalidData, code)
	}

	node.Keyboard = keyboard
	node.Units = make([]model.Unit, 0, len(rawUnits))
	seen := make(map[string]struct{}, len(rawUnits))
	for unitIdx, rawUnit := range rawUnits {
		entry, ok := rawUnit.(map[string]any)
		if !ok || len(entry) == 0 {
			return node, fmt.Errorf("%w: unit %d of language %s is empty", ErrInvalidData, unitIdx+1, code)
		}
		if len(entry) != 1 {
			return node, fmt.Errorf("%w: unit %d of language %s must map exactly one name", ErrInvalidData, unitIdx+1, code)
		}
		for name, rawQuestions := range entry {
			if _, dup := seen[name]; dup {
				return node, fmt.Errorf("%w: duplicate unit %q in language %s", ErrInvalidData, name, code)
			}
			seen[name] = struct{}{}
			questions, err := unitQuestions(code, name, rawQuestions)
			if err != nil {
				return node, err
			}
			node.Units = append(node.Units, model.Unit{Name: name, Questions: questions})
		}
	}
	return node, nil
}

func unitQuestions(code, name string, raw any) ([]model.Question, error) {
	rawQuestions, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: questions of unit %s in language %s must be an array", ErrInvalidData, name, code)
	}
	questions := make([]model.Question, 0, len(rawQuestions))
	for idx, rawQuestion := range rawQuestions {
		q, err := question(rawQuestion)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d of unit %s in language %s: %v", ErrInvalidData, idx+1, name, code, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func question(raw any) (model.Question, error) {
	var q model.Question
	obj, ok := raw.(map[string]any)
	if !ok {
		return q, fmt.Errorf("must be an object")
	}
	statement, ok := obj["statement"].(string)
	if !ok {
		return q, fmt.Errorf("statement must be a string")
	}
	translate, ok := obj["translate"].(string)
	if !ok {
		return q, fmt.Errorf("translate must be a string")
	}
	rawKeywords, ok := obj["keywords"].([]any)
	if !ok {
		return q, fmt.Errorf("keywords must be an array")
	}
	keywords := make([]string, 0, len(rawKeywords))
	for _, rawKeyword := range rawKeywords {
		keyword, ok := rawKeyword.(string)
		if !ok {
			return q, fmt.Errorf("keywords must be strings")
		}
		keywords = append(keywords, keyword)
	}
	q.Statement = statement
	q.Translate = translate
	q.Keywords = keywords
	return q, nil
}
