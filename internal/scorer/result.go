package scorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrScoreParse is returned when the model's final answer does not
	// conform to the scoring contract. Never retried; the raw text is
	// preserved for diagnosis.
	ErrScoreParse = errors.New("score output violates contract")
	// ErrBudgetExhausted is returned when the step budget runs out before a
	// final answer.
	ErrBudgetExhausted = errors.New("step budget exhausted without final answer")
)

// Kind selects a scoring contract.
type Kind string

const (
	// KindAICheck scores AI-authorship likelihood (100 = human).
	KindAICheck Kind = "ai_check"
	// KindCampaign scores virality, quality, and campaign fit.
	KindCampaign Kind = "campaign"
)

// AICheckResult is the AI-authorship contract: a 0-100 human score and a
// short explanation.
type AICheckResult struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// CampaignResult is the six-field campaign contract. All scores are integers
// in [0,100].
type CampaignResult struct {
	ViralityScore     int    `json:"virality_score"`
	ViralityReason    string `json:"virality_reason"`
	QualityScore      int    `json:"quality_score"`
	QualityReason     string `json:"quality_reason"`
	CampaignFitScore  int    `json:"campaign_fit_score"`
	CampaignFitReason string `json:"campaign_fit_reason"`
}

// Result carries whichever contract was requested.
type Result struct {
	Kind     Kind            `json:"kind"`
	AICheck  *AICheckResult  `json:"ai_check,omitempty"`
	Campaign *CampaignResult `json:"campaign,omitempty"`
}

// jsonObjectPattern pulls a JSON object out of surrounding prose or a
// markdown fence the model may have wrapped it in.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON tolerates markdown code fences around the object but nothing
// beyond that.
func extractJSON(text string) string {
	if match := jsonObjectPattern.FindString(text); match != "" {
		return match
	}
	return text
}

// parseResult strictly decodes and validates the final answer for the kind.
// Any violation fails the whole call; partial results are not accepted.
func parseResult(kind Kind, raw string) (*Result, error) {
	payload := extractJSON(raw)

	switch kind {
	case KindAICheck:
		var fields struct {
			Score       *int    `json:"score"`
			Explanation *string `json:"explanation"`
		}
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScoreParse, err)
		}
		if fields.Score == nil || fields.Explanation == nil {
			return nil, fmt.Errorf("%w: missing required field", ErrScoreParse)
		}
		if err := checkRange("score", *fields.Score); err != nil {
			return nil, err
		}
		return &Result{
			Kind:    kind,
			AICheck: &AICheckResult{Score: *fields.Score, Explanation: *fields.Explanation},
		}, nil

	case KindCampaign:
		var fields struct {
			ViralityScore     *int    `json:"virality_score"`
			ViralityReason    *string `json:"virality_reason"`
			QualityScore      *int    `json:"quality_score"`
			QualityReason     *string `json:"quality_reason"`
			CampaignFitScore  *int    `json:"campaign_fit_score"`
			CampaignFitReason *string `json:"campaign_fit_reason"`
		}
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScoreParse, err)
		}
		if fields.ViralityScore == nil || fields.ViralityReason == nil ||
			fields.QualityScore == nil || fields.QualityReason == nil ||
			fields.CampaignFitScore == nil || fields.CampaignFitReason == nil {
			return nil, fmt.Errorf("%w: missing required field", ErrScoreParse)
		}
		for name, v := range map[string]int{
			"virality_score":     *fields.ViralityScore,
			"quality_score":      *fields.QualityScore,
			"campaign_fit_score": *fields.CampaignFitScore,
		} {
			if err := checkRange(name, v); err != nil {
				return nil, err
			}
		}
		return &Result{
			Kind: kind,
			Campaign: &CampaignResult{
				ViralityScore:     *fields.ViralityScore,
				ViralityReason:    *fields.ViralityReason,
				QualityScore:      *fields.QualityScore,
				QualityReason:     *fields.QualityReason,
				CampaignFitScore:  *fields.CampaignFitScore,
				CampaignFitReason: *fields.CampaignFitReason,
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown scoring kind %q", kind)
	}
}

func checkRange(name string, v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %s %d outside [0,100]", ErrScoreParse, name, v)
	}
	return nil
}
