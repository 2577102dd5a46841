package llm

import "context"

// MockChatClient is a test double for ChatClient.
type MockChatClient struct {
	Response string
	Err      error
	Calls    []string
}

// Complete records the prompt and returns the canned response.
func (m *MockChatClient) Complete(ctx context.Context, systemMessage, prompt string) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
