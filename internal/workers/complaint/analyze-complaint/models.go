package analyzecomplaint

import "complaint-router/internal/models"

type Input struct {
	Complaint string `json:"complaint"`
	Language  string `json:"language,omitempty"`
}

type Output struct {
	Analysis   *models.ComplaintAnalysis `json:"analysis"`
	AIResponse string                    `json:"aiResponse"`
	Language   string                    `json:"language"`
}
