// Package assist provides an AI advisor that reads a lead's current state
// and history and suggests concrete next steps. It is optional: without an
// API key the module simply does not register its routes.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"salespipe_backend/internal/pipeline/domain"
	"salespipe_backend/platform/apperr"

	"google.golang.org/genai"
)

// Advice is the structured suggestion returned for a lead.
type Advice struct {
	Summary    string   `json:"summary"`
	NextSteps  []string `json:"nextSteps"`
	RiskFlags  []string `json:"riskFlags,omitempty"`
	Confidence string   `json:"confidence"`
}

// Advisor generates advice from the configured Gemini model.
type Advisor struct {
	client *genai.Client
	model  string
}

// NewAdvisor creates an advisor backed by the Gemini API.
func NewAdvisor(ctx context.Context, apiKey, model string) (*Advisor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Advisor{client: client, model: model}, nil
}

// Advise asks the model for next steps on the given lead.
func (a *Advisor) Advise(ctx context.Context, lead *domain.Lead) (Advice, error) {
	prompt := buildPrompt(lead)

	resp, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: prompt}},
		}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return Advice{}, apperr.Wrap(apperr.KindInternal, "advisor request failed", err)
	}

	var advice Advice
	if err := json.Unmarshal([]byte(resp.Text()), &advice); err != nil {
		return Advice{}, apperr.Wrap(apperr.KindInternal, "advisor returned malformed response", err)
	}
	return advice, nil
}

func buildPrompt(lead *domain.Lead) string {
	var b strings.Builder
	b.WriteString("You are a sales coach for a B2B services pipeline. ")
	b.WriteString("Given the lead below, respond with JSON matching ")
	b.WriteString(`{"summary": string, "nextSteps": [string], "riskFlags": [string], "confidence": "low"|"medium"|"high"}`)
	b.WriteString(". Keep nextSteps concrete and at most five.\n\n")

	fmt.Fprintf(&b, "Company: %s\nContact: %s\nStage: %s\nColumn: %s\nStatus: %s\n",
		lead.Company, lead.ContactName, lead.Stage, lead.ColumnID, lead.Status)

	if lead.Prospect != nil {
		fmt.Fprintf(&b, "Engagement: %s, contact quality: %s\n",
			lead.Prospect.EngagementType, lead.Prospect.ContactQuality)
		if len(lead.Prospect.PainPoints) > 0 {
			fmt.Fprintf(&b, "Pain points: %s\n", strings.Join(lead.Prospect.PainPoints, "; "))
		}
	}
	if lead.Proposal != nil {
		fmt.Fprintf(&b, "Proposal: %s, revision %d, %d months\n",
			lead.Proposal.Template, lead.Proposal.Revision, lead.Proposal.DurationMonths)
	}
	if lead.InternalReview != nil {
		fmt.Fprintf(&b, "Internal review: CST %s, CRO %s\n",
			lead.InternalReview.CST.Status, lead.InternalReview.CRO.Status)
	}

	if len(lead.StatusHistory) > 0 {
		b.WriteString("Recent history:\n")
		history := lead.StatusHistory
		if len(history) > 5 {
			history = history[len(history)-5:]
		}
		for _, update := range history {
			fmt.Fprintf(&b, "- %s %s", update.Date.Format("2006-01-02"), update.Status)
			if update.Notes != "" {
				fmt.Fprintf(&b, ": %s", update.Notes)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
