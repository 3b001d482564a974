package scorer

import (
	"errors"
	"testing"
)

func TestParseAICheckResult(t *testing.T) {
	result, err := parseResult(KindAICheck, `{"score": 85, "explanation": "Human written"}`)
	if err != nil {
		t.Fatalf("parseResult: %v", err)
	}
	if result.AICheck == nil {
		t.Fatal("AICheck is nil")
	}
	if result.AICheck.Score != 85 || result.AICheck.Explanation != "Human written" {
		t.Errorf("result = %+v", result.AICheck)
	}
	if result.Campaign != nil {
		t.Error("Campaign should be empty for an AI check")
	}
}

func TestParseAICheckToleratesFences(t *testing.T) {
	raw := "```json\n{\"score\": 40, \"explanation\": \"Likely AI\"}\n```"
	result, err := parseResult(KindAICheck, raw)
	if err != nil {
		t.Fatalf("fenced JSON rejected: %v", err)
	}
	if result.AICheck.Score != 40 {
		t.Errorf("Score = %d", result.AICheck.Score)
	}
}

func TestParseAICheckViolations(t *testing.T) {
	cases := map[string]string{
		"score out of range":  `{"score": 150, "explanation": "x"}`,
		"negative score":      `{"score": -1, "explanation": "x"}`,
		"missing score":       `{"explanation": "x"}`,
		"missing explanation": `{"score": 10}`,
		"not JSON":            `the content scores about 85 out of 100`,
		"fractional score":    `{"score": 85.5, "explanation": "x"}`,
	}
	for name, raw := range cases {
		if _, err := parseResult(KindAICheck, raw); !errors.Is(err, ErrScoreParse) {
			t.Errorf("%s: err = %v, want ErrScoreParse", name, err)
		}
	}
}

func TestParseCampaignResult(t *testing.T) {
	raw := `{"virality_score":20,"virality_reason":"weak hook","quality_score":70,"quality_reason":"well structured","campaign_fit_score":10,"campaign_fit_reason":"off topic"}`
	result, err := parseResult(KindCampaign, raw)
	if err != nil {
		t.Fatalf("parseResult: %v", err)
	}
	c := result.Campaign
	if c == nil {
		t.Fatal("Campaign is nil")
	}
	if c.ViralityScore != 20 || c.QualityScore != 70 || c.CampaignFitScore != 10 {
		t.Errorf("scores = %d/%d/%d", c.ViralityScore, c.QualityScore, c.CampaignFitScore)
	}
	if c.CampaignFitReason != "off topic" {
		t.Errorf("CampaignFitReason = %q", c.CampaignFitReason)
	}
}

func TestParseCampaignViolations(t *testing.T) {
	cases := map[string]string{
		"missing field": `{"virality_score":20,"virality_reason":"x","quality_score":70,"quality_reason":"y","campaign_fit_score":10}`,
		"out of range":  `{"virality_score":101,"virality_reason":"x","quality_score":70,"quality_reason":"y","campaign_fit_score":10,"campaign_fit_reason":"z"}`,
		"string score":  `{"virality_score":"20","virality_reason":"x","quality_score":70,"quality_reason":"y","campaign_fit_score":10,"campaign_fit_reason":"z"}`,
	}
	for name, raw := range cases {
		if _, err := parseResult(KindCampaign, raw); !errors.Is(err, ErrScoreParse) {
			t.Errorf("%s: err = %v, want ErrScoreParse", name, err)
		}
	}
}

func TestParseUnknownKind(t *testing.T) {
	if _, err := parseResult(Kind("mystery"), `{}`); err == nil {
		t.Error("unknown kind should error")
	}
}
