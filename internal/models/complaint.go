// internal/models/complaint.go
package models

import "strings"

type Category string

const (
	CategoryInfrastructure Category = "Infrastructure"
	CategoryUtilities      Category = "Utilities"
	CategoryEnvironment    Category = "Environment"
	CategoryTraffic        Category = "Traffic"
	CategoryHealthcare     Category = "Healthcare"
	CategoryEducation      Category = "Education"
	CategoryOther          Category = "Other"
)

var categories = []Category{
	CategoryInfrastructure,
	CategoryUtilities,
	CategoryEnvironment,
	CategoryTraffic,
	CategoryHealthcare,
	CategoryEducation,
	CategoryOther,
}

// ParseCategory matches case-insensitively and maps anything unknown to Other.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority maps anything unknown to medium.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p
	}
	return PriorityMedium
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps anything unknown to neutral.
func ParseSentiment(s string) Sentiment {
	switch v := Sentiment(strings.ToLower(strings.TrimSpace(s))); v {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return v
	}
	return SentimentNeutral
}

type AnalysisSource string

const (
	SourceAIRAG     AnalysisSource = "ai_rag"
	SourceRuleBased AnalysisSource = "rule_based"
)

const DefaultDepartment = "General Services"

// DepartmentInfo is a read-only snapshot of a reference dataset record.
type DepartmentInfo struct {
	Department    string   `json:"department"`
	Contact       string   `json:"contact"`
	Email         string   `json:"email"`
	Emergency     string   `json:"emergency"`
	ResponseTime  string   `json:"responseTime"`
	Services      []string `json:"services"`
	Head          string   `json:"head"`
	Address       string   `json:"address"`
	DistrictDM    string   `json:"districtDm,omitempty"`
	DistrictEmail string   `json:"districtEmail,omitempty"`
}

type ComplaintAnalysis struct {
	Category          Category       `json:"category"`
	Priority          Priority       `json:"priority"`
	Department        string         `json:"department"`
	Sentiment         Sentiment      `json:"sentiment"`
	Timeline          string         `json:"timeline"`
	Confidence        float64        `json:"confidence"`
	Source            AnalysisSource `json:"source"`
	District          string         `json:"district,omitempty"`
	SuggestedResponse string         `json:"suggestedResponse"`
	DepartmentInfo    DepartmentInfo `json:"departmentInfo"`
}

// ComplaintResult is the combined output returned to API callers and
// workflow jobs.
type ComplaintResult struct {
	Analysis   *ComplaintAnalysis `json:"analysis"`
	AIResponse string             `json:"aiResponse"`
	Language   string             `json:"language"`
}
