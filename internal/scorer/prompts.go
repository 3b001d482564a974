package scorer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// System prompts are configuration, not contract: the JSON shapes they demand
// are enforced separately in result.go. A prompt directory may override them
// per kind (<kind>.txt).

const aiCheckSystemPrompt = `Act as an advanced AI detection analyst. Analyze the content step-by-step to determine if it is AI-generated or human-written. Assign a "Human Score" from 0-100 (100 = human). Follow this protocol:

Step 1: Check for hallmarks of AI generation.
- Repetition/redundancy: overly repetitive phrases, structures, or ideas (subtract 10-20 points).
- Excessive politeness/formality: stiff tone, unnatural qualifiers like "It is important to note..." (subtract 5-15 points).
- Surface-level coherence: abrupt transitions, disjointed logic, vague detail despite fluency (subtract 10-25 points).

Step 2: Assess human-like traits.
- Nuanced opinions: subjective viewpoints, emotions, culturally specific references (add 15-25 points).
- Imperfections: minor grammatical quirks, colloquial language, creative metaphors (add 10-20 points).
- Depth/originality: unique insights, domain expertise, counterarguments (add 20-30 points).

Step 3: Calculate the final score.
- Start at 50 (neutral baseline) and adjust from the findings above.
- Ensure extremes: 0-20 (clearly AI), 80-100 (clearly human).

Rules:
- Output ONLY valid JSON. No extra text.
- "explanation" must be 10 words max.
- Example: {"score": 85, "explanation": "Human written"}`

const campaignSystemPrompt = `Act as a professional content analyst for crypto and web3 campaigns. Analyze the content and assign three scores (0-100):

1. Virality Score
- Emotional appeal (positive/negative intensity).
- Use of trending keywords or hashtags (e.g., "AI", "DeFi", "NFT").
- Hook quality (first sentence grabs attention).
- Shareability (clear call-to-action, meme potential, controversy).

2. Quality Score
- Readability (grammar, structure, clarity).
- Originality (unique insights, not generic).
- Depth (data-driven claims, examples, actionable advice).
- Audience value (educational, entertaining, or inspiring).
- Penalize clickbait or misleading claims.

3. Campaign Fit
- Match against the campaign description, keywords, target audience, and
  call-to-action goal supplied with the task.
- Highlight mismatches between content and campaign keywords.

Mandatory output format: a single valid JSON object, scores as integers in
[0,100] inclusive, reasons one concise sentence each:
{"virality_score":20,"virality_reason":"...","quality_score":30,"quality_reason":"...","campaign_fit_score":10,"campaign_fit_reason":"..."}

Output ONLY the JSON object.`

// CampaignMeta is the per-request campaign metadata embedded in the task
// prompt.
type CampaignMeta struct {
	Description    string
	Keywords       string
	TargetAudience string
	CTAGoal        string
}

// systemPrompt returns the rubric for the kind, honoring overrides in dir.
func systemPrompt(kind Kind, dir string) string {
	fallback := aiCheckSystemPrompt
	if kind == KindCampaign {
		fallback = campaignSystemPrompt
	}

	if dir == "" {
		return fallback
	}
	data, err := os.ReadFile(filepath.Join(dir, string(kind)+".txt"))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return fallback
	}
	return string(data)
}

// taskPrompt composes the per-request instruction around the content locator.
func taskPrompt(kind Kind, contentURL string, meta CampaignMeta) string {
	if kind == KindAICheck {
		return fmt.Sprintf("Analyze the content at %s to determine if it is AI-generated or human-written. "+
			`Return a JSON object with a "score" (0-100, where 100 = human) and a short "explanation".`, contentURL)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Score the content at %s against the campaign below. Scores are integers between 0 and 100.\n\n", contentURL)
	fmt.Fprintf(&sb, "campaign_description: %s\n", meta.Description)
	fmt.Fprintf(&sb, "campaign_keywords: %s\n", meta.Keywords)
	fmt.Fprintf(&sb, "target_audience: %s\n", meta.TargetAudience)
	fmt.Fprintf(&sb, "CTA_goal: %s\n", meta.CTAGoal)
	return sb.String()
}
