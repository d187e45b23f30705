// Package quiz contains the practice queue scheduler. Every function
// is pure: inputs are never mutated and randomness comes from the
// caller's *rand.Rand, so tests can assert exact sequences.
package quiz

import (
	"math/rand"

	"github.com/xiaolongtang/rw/internal/model"
)

// Requeue offsets: a wrong or skipped item resurfaces 3 to 6 positions
// later, giving interleaving without losing the item long-term.
const (
	requeueMinOffset = 3
	requeueMaxOffset = 6
)

// TotalItems counts the practice items a question set yields: one per
// keyword slot of every question with a non-empty keyword list.
func TotalItems(questions []model.Question) int {
	total := 0
	for _, q := range questions {
		total += len(q.Keywords)
	}
	return total
}

// Shuffle returns a uniformly shuffled copy of items (Fisher-Yates).
func Shuffle(items []model.QuizItem, rnd *rand.Rand) []model.QuizItem {
	out := append([]model.QuizItem(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// BuildInitialQueue enumerates every unmastered (question, keyword)
// pair and returns them in shuffled order.
func BuildInitialQueue(questions []model.Question, mastered model.MasteredMap, rnd *rand.Rand) []model.QuizItem {
	var queue []model.QuizItem
	for questionIndex, q := range questions {
		if len(q.Keywords) == 0 {
			continue
		}
		for keywordIndex := range q.Keywords {
			item := model.QuizItem{QuestionIndex: questionIndex, KeywordIndex: keywordIndex}
			if !IsItemMastered(mastered, item) {
				queue = append(queue, item)
			}
		}
	}
	return Shuffle(queue, rnd)
}

// IsItemMastered reports whether the item has been answered correctly
// before.
func IsItemMastered(mastered model.MasteredMap, item model.QuizItem) bool {
	for _, kw := range mastered[item.QuestionIndex] {
		if kw == item.KeywordIndex {
			return true
		}
	}
	return false
}

// MarkMastered returns a new map with the item added to its question's
// sorted keyword set. Marking an already-mastered item is a no-op.
func MarkMastered(mastered model.MasteredMap, item model.QuizItem) model.MasteredMap {
	next := mastered.Clone()
	if next == nil {
		next = model.MasteredMap{}
	}
	current := next[item.QuestionIndex]
	if IsItemMastered(mastered, item) {
		return next
	}
	inserted := false
	updated := make([]int, 0, len(current)+1)
	for _, kw := range current {
		if !inserted && item.KeywordIndex < kw {
			updated = append(updated, item.KeywordIndex)
			inserted = true
		}
		updated = append(updated, kw)
	}
	if !inserted {
		updated = append(updated, item.KeywordIndex)
	}
	next[item.QuestionIndex] = updated
	return next
}

// Requeue reinserts a wrong or skipped item 3-6 positions into the
// queue, clamped to the queue length. The caller must already have
// removed the current head.
func Requeue(queue []model.QuizItem, item model.QuizItem, rnd *rand.Rand) []model.QuizItem {
	offset := requeueMinOffset + rnd.Intn(requeueMaxOffset-requeueMinOffset+1)
	position := offset
	if position > len(queue) {
		position = len(queue)
	}
	next := make([]model.QuizItem, 0, len(queue)+1)
	next = append(next, queue[:position]...)
	next = append(next, item)
	next = append(next, queue[position:]...)
	return next
}

// MasteredCount sums the mastered keyword sets across all questions.
func MasteredCount(mastered model.MasteredMap) int {
	total := 0
	for _, kws := range mastered {
		total += len(kws)
	}
	return total
}

// IsUnitMastered reports whether every practice item of the question
// set has been mastered. A unit with no items is never mastered; it
// has nothing to practice.
func IsUnitMastered(questions []model.Question, mastered model.MasteredMap) bool {
	total := TotalItems(questions)
	if total == 0 {
		return false
	}
	return MasteredCount(mastered) >= total
}
