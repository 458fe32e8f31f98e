package repository

import "fmt"

// LanguageStat describes one language's share of a repository's contents.
type LanguageStat struct {
	fileCount  int
	lineCount  int
	percentage float64
}

// NewLanguageStat creates a LanguageStat.
func NewLanguageStat(fileCount, lineCount int, percentage float64) LanguageStat {
	return LanguageStat{fileCount: fileCount, lineCount: lineCount, percentage: percentage}
}

// FileCount returns the number of files in this language.
func (l LanguageStat) FileCount() int { return l.fileCount }

// LineCount returns the number of lines in this language.
func (l LanguageStat) LineCount() int { return l.lineCount }

// Percentage returns this language's share of the repository, in [0, 100].
func (l LanguageStat) Percentage() float64 { return l.percentage }

// Statistics summarizes a repository's structural composition.
type Statistics struct {
	fileCount         int
	lineCount         int
	languageBreakdown map[string]LanguageStat
}

// ErrNegativeCount indicates a negative fileCount or lineCount was supplied.
var ErrNegativeCount = fmt.Errorf("repository: file/line counts must be non-negative")

// NewStatistics creates repository Statistics.
func NewStatistics(fileCount, lineCount int, languageBreakdown map[string]LanguageStat) (Statistics, error) {
	if fileCount < 0 || lineCount < 0 {
		return Statistics{}, ErrNegativeCount
	}
	if languageBreakdown == nil {
		languageBreakdown = map[string]LanguageStat{}
	}
	return Statistics{
		fileCount:         fileCount,
		lineCount:         lineCount,
		languageBreakdown: languageBreakdown,
	}, nil
}

// FileCount returns the total number of files.
func (s Statistics) FileCount() int { return s.fileCount }

// LineCount returns the total number of lines.
func (s Statistics) LineCount() int { return s.lineCount }

// LanguageBreakdown returns the per-language statistics.
func (s Statistics) LanguageBreakdown() map[string]LanguageStat {
	result := make(map[string]LanguageStat, len(s.languageBreakdown))
	for k, v := range s.languageBreakdown {
		result[k] = v
	}
	return result
}

// PercentageSum returns the sum of all language percentages, used to verify
// the "sums to 100 ± 0.5" invariant.
func (s Statistics) PercentageSum() float64 {
	total := 0.0
	for _, stat := range s.languageBreakdown {
		total += stat.percentage
	}
	return total
}
