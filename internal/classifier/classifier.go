// Package classifier implements the deterministic keyword classifier used
// when no language model is available. It performs no I/O and never fails.
package classifier

import (
	"fmt"
	"strings"

	"complaint-router/internal/dataset"
	"complaint-router/internal/models"
)

const RuleBasedConfidence = 0.7

var (
	negativeWords = []string{"angry", "frustrated", "terrible", "worst", "horrible"}
	positiveWords = []string{"thank", "appreciate", "good", "excellent", "satisfied"}
)

type Classifier struct {
	ds *dataset.Dataset
}

func New(ds *dataset.Dataset) *Classifier {
	return &Classifier{ds: ds}
}

// Classify scores text against every department's keywords and derives
// priority and sentiment from fixed word lists.
func (c *Classifier) Classify(text string) *models.ComplaintAnalysis {
	lower := strings.ToLower(text)

	category := models.CategoryOther
	department := models.DefaultDepartment
	if dep, ok := c.bestDepartment(lower); ok {
		category = models.ParseCategory(dep.Category)
		department = dep.Name
	}

	info := c.ds.ResolveFor(department, string(category), "")

	return &models.ComplaintAnalysis{
		Category:       category,
		Priority:       c.priority(lower),
		Department:     department,
		Sentiment:      sentiment(lower),
		Timeline:       info.ResponseTime,
		Confidence:     RuleBasedConfidence,
		Source:         models.SourceRuleBased,
		DepartmentInfo: info,
		SuggestedResponse: fmt.Sprintf(
			"Thank you for your %s complaint. Contact %s at %s. Response time: %s.",
			strings.ToLower(string(category)), department, info.Contact, info.ResponseTime,
		),
	}
}

// bestDepartment returns the department with the most keyword hits. Ties go
// to the department declared first in the dataset.
func (c *Classifier) bestDepartment(lower string) (dataset.Department, bool) {
	var (
		best      dataset.Department
		bestScore int
	)
	for _, dep := range c.ds.Departments() {
		score := countMatches(lower, dep.PriorityKeywords)
		if score > bestScore {
			best, bestScore = dep, score
		}
	}
	return best, bestScore > 0
}

// priority checks critical, then high, then low. The first list with a hit
// wins so critical terms shadow the rest.
func (c *Classifier) priority(lower string) models.Priority {
	pk := c.ds.PriorityKeywords()
	ordered := []struct {
		p     models.Priority
		words []string
	}{
		{models.PriorityCritical, pk.Critical.General},
		{models.PriorityHigh, pk.High.General},
		{models.PriorityLow, pk.Low.General},
	}
	for _, o := range ordered {
		if countMatches(lower, o.words) > 0 {
			return o.p
		}
	}
	return models.PriorityMedium
}

func sentiment(lower string) models.Sentiment {
	neg := countMatches(lower, negativeWords)
	pos := countMatches(lower, positiveWords)
	switch {
	case neg > pos:
		return models.SentimentNegative
	case pos > neg:
		return models.SentimentPositive
	default:
		return models.SentimentNeutral
	}
}

// countMatches counts the keywords that occur in text as substrings. Each
// keyword counts once regardless of repetitions.
func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}
