package usecase

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"jobrag/internal/domain"
)

// Assemble turns relevance-ordered candidates into a bounded context string.
// It collapses candidates to one per posting, drops those that cannot be
// attributed to a named company, drops exact text duplicates, orders the rest
// by importance, keeps at most targetCount entries and packs them into at
// most maxChars characters. Entries are packed in priority order; the first
// entry that would overflow the budget ends packing.
func Assemble(candidates []domain.Candidate, targetCount, maxChars int) domain.AssembledContext {
	if targetCount < 1 {
		targetCount = 1
	}

	// One candidate per posting. Input is already relevance-ordered, so the
	// first occurrence is the best-ranked one.
	seenPostings := make(map[domain.PostingKey]bool, len(candidates))
	deduped := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.PostingKey()
		if seenPostings[key] {
			continue
		}
		seenPostings[key] = true
		deduped = append(deduped, c)
	}

	// A candidate without a company cannot be attributed to an employer, and
	// identical text showing up under several postings or chunk groups would
	// waste the budget saying the same thing twice.
	seenTexts := make(map[string]bool, len(deduped))
	unique := deduped[:0]
	for _, c := range deduped {
		if c.Metadata.Company() == "" {
			continue
		}
		text := strings.TrimSpace(c.Text)
		if text == "" || seenTexts[text] {
			continue
		}
		seenTexts[text] = true
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return importanceOf(unique[i]).sortsBefore(importanceOf(unique[j]))
	})
	if targetCount < len(unique) {
		unique = unique[:targetCount]
	}

	return pack(unique, maxChars)
}

// importanceKey is the composite ordering for context entries: relevance
// dominates, a later deadline breaks relevance ties, and a longer company
// tenure breaks what remains.
type importanceKey struct {
	relevance float64
	deadline  int64
	tenure    int64
}

func (k importanceKey) sortsBefore(o importanceKey) bool {
	if k.relevance != o.relevance {
		return k.relevance > o.relevance
	}
	if k.deadline != o.deadline {
		return k.deadline > o.deadline
	}
	return k.tenure > o.tenure
}

func importanceOf(c domain.Candidate) importanceKey {
	return importanceKey{
		relevance: c.RerankScore,
		deadline:  deadlineOrdinal(c.Metadata.String(domain.MetaDeadline)),
		tenure:    companyTenure(c.Metadata.String(domain.MetaCompanyYearsNum)),
	}
}

// deadlineOrdinal reads a deadline like "2026-02-19" as the integer 20260219.
// Anything without at least eight digits maps to 0 so unparseable deadlines
// sort last within equal relevance.
func deadlineOrdinal(s string) int64 {
	var n int64
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		n = n*10 + int64(r-'0')
		digits++
		if digits == 8 {
			return n
		}
	}
	return 0
}

// companyTenure extracts the first run of digits, e.g. 18 from "18년차".
func companyTenure(s string) int64 {
	var n int64
	found := false
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n = n*10 + int64(r-'0')
			found = true
			continue
		}
		if found {
			break
		}
	}
	if !found {
		return 0
	}
	return n
}

// pack renders the entries with per-item attribution and concatenates them
// under the character budget. Later entries are never pulled forward to fill
// space freed by an entry that overflowed.
func pack(items []domain.Candidate, maxChars int) domain.AssembledContext {
	parts := make([]string, 0, len(items))
	selected := make([]domain.Candidate, 0, len(items))
	total := 0

	for i, c := range items {
		line := fmt.Sprintf("[%d] (company: %s, job_role: %s)\n%s",
			i+1, c.Metadata.Company(), c.Metadata.JobRole(), strings.TrimSpace(c.Text))
		if total+utf8.RuneCountInString(line)+2 > maxChars {
			break
		}
		parts = append(parts, line)
		selected = append(selected, c)
		total += utf8.RuneCountInString(line) + 2
	}

	text := strings.Join(parts, "\n\n")
	return domain.AssembledContext{
		Text:     text,
		Selected: selected,
		Length:   utf8.RuneCountInString(text),
	}
}
