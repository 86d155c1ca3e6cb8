package compliance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"apar/lib/models"
)

var (
	itemIDKeys    = []string{"checklistItemId", "checklistId", "checklist_id", "ChecklistId", "itemId", "item_id", "id"}
	passKeys      = []string{"passed", "pass", "isPassed", "checked", "dicentang", "Dicentang", "ok", "value"}
	conditionKeys = []string{"condition", "kondisi", "Kondisi"}
	noteKeys      = []string{"note", "notes", "keterangan", "Keterangan", "catatan"}
	reasonKeys    = []string{"reason", "alasan", "Alasan"}

	// Anything else, "false", "tidak" and "rusak" included, maps to false
	positiveTokens = map[string]struct{}{
		"true": {}, "1": {}, "yes": {}, "y": {}, "ya": {}, "ok": {}, "pass": {},
		"passed": {}, "baik": {}, "good": {}, "checked": {}, "v": {}, "✓": {},
	}
	goodConditionLabels = map[string]struct{}{"baik": {}, "good": {}}
)

// NormalizeChecklist converts a client checklist payload into canonical
// answers. The payload is a JSON array of objects, or a JSON string holding
// one. Entries without a resolvable positive item id are dropped. When an
// item id repeats the last entry wins but keeps the first entry's position.
func NormalizeChecklist(raw json.RawMessage) ([]models.ChecklistAnswer, error) {
	entries, err := decodeEntries(raw)
	if err != nil {
		return nil, err
	}

	answers := make([]models.ChecklistAnswer, 0, len(entries))
	position := make(map[int64]int, len(entries))
	for _, entry := range entries {
		answer, ok := normalizeEntry(entry)
		if !ok {
			continue
		}
		if i, seen := position[answer.ChecklistItemID]; seen {
			answers[i] = answer
			continue
		}
		position[answer.ChecklistItemID] = len(answers)
		answers = append(answers, answer)
	}
	return answers, nil
}

func decodeEntries(raw json.RawMessage) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("%w: checklist: %v", models.ErrInvalidInput, err)
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return nil, nil
		}
		trimmed = []byte(inner)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: checklist must be a JSON array: %v", models.ErrInvalidInput, err)
	}

	entries := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var entry map[string]any
		d := json.NewDecoder(bytes.NewReader(item))
		d.UseNumber()
		if err := d.Decode(&entry); err != nil || entry == nil {
			// non-object elements carry no item id
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func normalizeEntry(entry map[string]any) (models.ChecklistAnswer, bool) {
	idValue, ok := firstPresent(entry, itemIDKeys)
	if !ok {
		return models.ChecklistAnswer{}, false
	}
	id, ok := parseItemID(idValue)
	if !ok {
		return models.ChecklistAnswer{}, false
	}

	answer := models.ChecklistAnswer{ChecklistItemID: id}

	condition, hasCondition := firstPresent(entry, conditionKeys)
	conditionGood := hasCondition && isGoodCondition(condition)

	if v, ok := firstPresent(entry, passKeys); ok {
		answer.Passed = isPositive(v)
	} else if hasCondition {
		answer.Passed = conditionGood
	}

	if v, ok := firstPresent(entry, noteKeys); ok {
		answer.Note = textValue(v)
	} else if !answer.Passed {
		if v, ok := firstPresent(entry, reasonKeys); ok {
			answer.Note = textValue(v)
		}
	}

	return answer, true
}

// firstPresent returns the first aliased value that is neither null nor blank
func firstPresent(entry map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		v, ok := entry[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func parseItemID(v any) (int64, bool) {
	var (
		id  int64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		id, err = t.Int64()
	case string:
		id, err = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return 0, false
	}
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func token(v any) string {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case string:
		return strings.ToLower(strings.TrimSpace(t))
	default:
		return ""
	}
}

func isPositive(v any) bool {
	_, ok := positiveTokens[token(v)]
	return ok
}

func isGoodCondition(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, good := goodConditionLabels[strings.ToLower(strings.TrimSpace(s))]
	return good
}

func textValue(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

// FilterByType splits answers into those whose item belongs to the type's
// checklist and the ids of those that do not.
func FilterByType(answers []models.ChecklistAnswer, items []models.ChecklistItem) ([]models.ChecklistAnswer, []int64) {
	defined := make(map[int64]struct{}, len(items))
	for _, item := range items {
		defined[item.ID] = struct{}{}
	}

	kept := make([]models.ChecklistAnswer, 0, len(answers))
	var rejected []int64
	for _, a := range answers {
		if _, ok := defined[a.ChecklistItemID]; ok {
			kept = append(kept, a)
		} else {
			rejected = append(rejected, a.ChecklistItemID)
		}
	}
	return kept, rejected
}

// FillMissingAsPass appends a passed answer with no note for every template
// item the submission did not mention, in template order.
func FillMissingAsPass(answers []models.ChecklistAnswer, items []models.ChecklistItem) []models.ChecklistAnswer {
	present := make(map[int64]struct{}, len(answers))
	for _, a := range answers {
		present[a.ChecklistItemID] = struct{}{}
	}

	out := make([]models.ChecklistAnswer, 0, len(answers)+len(items))
	out = append(out, answers...)
	for _, item := range items {
		if _, ok := present[item.ID]; ok {
			continue
		}
		out = append(out, models.ChecklistAnswer{ChecklistItemID: item.ID, Passed: true})
		present[item.ID] = struct{}{}
	}
	return out
}
