package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agentsearch/internal/agent"
	"agentsearch/internal/config"
	"agentsearch/internal/llm"
	"agentsearch/internal/pipeline"
)

type turnDialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type turnRequest struct {
	AgentName     string             `json:"agent_name"`
	AgentIdentity string             `json:"agent_identity"`
	AgentPlan     string             `json:"agent_plan"`
	OtherName     string             `json:"other_name"`
	OtherIdentity string             `json:"other_identity"`
	Question      string             `json:"question"`
	History       []turnDialogueLine `json:"history"`
}

type turnResponse struct {
	Reply       string `json:"reply"`
	Augmented   bool   `json:"augmented"`
	TriggerType string `json:"trigger_type,omitempty"`
	Decision    string `json:"decision,omitempty"`
	Query       string `json:"query,omitempty"`
	FailureLang string `json:"failure_lang,omitempty"`
}

// TurnHandler runs one full conversational turn through the pipeline and
// generates the persona reply with the shared completion backend.
func TurnHandler(cfg *config.Config, pipe *pipeline.Pipeline, completer llm.Completer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req turnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request body"}})
			return
		}
		if req.AgentName == "" || req.Question == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "agent_name and question are required"}})
			return
		}

		self := agent.Context{Name: req.AgentName, Identity: req.AgentIdentity, Plan: req.AgentPlan}
		other := agent.Context{Name: req.OtherName, Identity: req.OtherIdentity}

		var tc agent.TurnContext
		if len(req.History) == 0 {
			tc = agent.NewStartTurn(self, other)
		} else {
			history := make([]agent.DialogueLine, 0, len(req.History))
			for _, line := range req.History {
				history = append(history, agent.DialogueLine{Speaker: line.Speaker, Text: line.Text})
			}
			tc = agent.NewContinueTurn(self, other, history)
		}

		generate := personaGenerator(completer, cfg.LLM.MaxTokens, tc, req.Question)

		result, err := pipe.RunTurn(c.Request.Context(), tc, req.Question, generate)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "reply generation failed"}})
			return
		}

		resp := turnResponse{
			Reply:       result.Reply,
			Augmented:   result.Augmented,
			TriggerType: string(result.TriggerType),
			Decision:    string(result.Decision),
			FailureLang: result.FailureLang,
		}
		if result.Query != nil {
			resp.Query = result.Query.RewrittenQuestion
		}
		c.JSON(http.StatusOK, resp)
	}
}

// personaGenerator builds the in-character generation collaborator handed to
// the pipeline. Augmentation text, when present, is prepended to the user
// message so the model answers from the retrieved material.
func personaGenerator(completer llm.Completer, maxTokens int, tc agent.TurnContext, question string) pipeline.GenerateFunc {
	self := tc.Agent()
	other := tc.Interlocutor()

	var convo strings.Builder
	for _, line := range tc.History() {
		fmt.Fprintf(&convo, "%s: %s\n", line.Speaker, line.Text)
	}
	fmt.Fprintf(&convo, "%s: %s\n%s:", other.Name, question, self.Name)

	system := fmt.Sprintf("You are %s. %s", self.Name, self.Identity)
	if self.Plan != "" {
		system += fmt.Sprintf(" Your current plan: %s.", self.Plan)
	}
	system += fmt.Sprintf(" You are talking to %s. Reply with a single conversational message, staying fully in character.", other.Name)

	return func(ctx context.Context, augmentation string) (string, error) {
		user := convo.String()
		if augmentation != "" {
			user = augmentation + "\n\n" + user
		}
		messages := []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		}
		reply, err := completer.Complete(ctx, messages, maxTokens, nil)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(reply), nil
	}
}
