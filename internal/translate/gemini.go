package translate

import (
	"google.golang.org/genai"

	"github.com/zarvd/khaithi-translator/internal/fault"
)

const stageExtract = "extract"

type generateRequest struct {
	Contents []*genai.Content `json:"contents"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type generateResponse struct {
	Candidates     []*genai.Candidate `json:"candidates"`
	PromptFeedback *promptFeedback    `json:"promptFeedback,omitempty"`
	Error          *apiError          `json:"error,omitempty"`
}

func newGenerateRequest(prompt string) generateRequest {
	return generateRequest{
		Contents: []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
	}
}

// extractText returns the first text part of the first candidate. A missing
// text with a non-STOP finish reason is reported with that reason.
func extractText(resp *generateResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", stopped(resp.PromptFeedback.BlockReason, "prompt was blocked")
		}
		return "", fault.New(fault.Extraction, stageExtract, "could not extract translated text from the API response: no candidates")
	}

	// Text wins over the finish reason: a MAX_TOKENS candidate with text is
	// returned as is, matching the original deployment.
	candidate := resp.Candidates[0]
	if candidate != nil && candidate.Content != nil && len(candidate.Content.Parts) > 0 {
		if part := candidate.Content.Parts[0]; part != nil && part.Text != "" {
			return part.Text, nil
		}
	}

	if candidate != nil && candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
		return "", stopped(string(candidate.FinishReason), "generation stopped")
	}
	return "", fault.New(fault.Extraction, stageExtract, "could not extract translated text from the API response")
}

func stopped(reason, what string) error {
	err := fault.Newf(fault.Extraction, stageExtract, "%s with finish reason %s", what, reason)
	err.FinishReason = reason
	return err
}
