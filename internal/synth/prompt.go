package synth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/roboplan/internal/ir"
)

// Message is one chat message sent to a Completer.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles understood by OpenAI-compatible services.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

const systemPrompt = `You are a robot task planner. Convert the user's command into a sequence of robot actions using only the objects in the scene.

Respond with a single JSON object and nothing else:
{
  "actions": [
    {
      "type": one of %s,
      "target": "<scene object name>",
      "end_effector": "right hand" or "left hand",
      "position": {"x": <m>, "y": <m>, "z": <m>} (optional),
      "parameters": {} (optional, action-specific)
    }
  ],
  "confidence": <number between 0 and 1>,
  "reasoning": "<one sentence>"
}

Use "move to" before "grasp" when the hand must travel to the object. Use an empty actions list with low confidence when the command cannot be carried out in this scene.`

// BuildMessages renders the chat request for a command and scene: a
// system message fixing the output contract, then a user message with the
// scene as JSON and the command text.
func BuildMessages(cmd ir.Command, scene ir.Scene) ([]Message, error) {
	sceneJSON, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scene: %w", err)
	}

	types := make([]string, len(ir.ActionTypes))
	for i, t := range ir.ActionTypes {
		types[i] = fmt.Sprintf("%q", string(t))
	}

	var user strings.Builder
	user.WriteString("Scene:\n")
	user.Write(sceneJSON)
	user.WriteString("\n\nCommand: ")
	user.WriteString(cmd.Text)

	return []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(systemPrompt, strings.Join(types, ", "))},
		{Role: RoleUser, Content: user.String()},
	}, nil
}
