package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kahani-labs/kahani/pkg/session"
	"github.com/kahani-labs/kahani/pkg/story"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

type storyListResponse struct {
	Stories []*story.Story `json:"stories"`
	Count   int            `json:"count"`
}

func listStories(client *http.Client, baseURL string) ([]*story.Story, error) {
	resp, err := client.Get(baseURL + "/v1/stories")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to list stories: %s", errorResp.Error)
	}

	var list storyListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse story list response: %w", err)
	}
	return list.Stories, nil
}

func startSession(client *http.Client, baseURL, storyID string) (*session.Session, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/interactive/start/%s", baseURL, storyID),
		"application/json",
		bytes.NewBufferString("{}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to start session: %s", errorResp.Error)
	}

	var sess session.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &sess, nil
}

type chooseRequest struct {
	SessionID string `json:"session_id"`
	ChoiceID  string `json:"choice_id"`
	Version   int64  `json:"version,omitempty"`
}

type chooseResponse struct {
	SessionID      string         `json:"session_id"`
	PreviousChoice string         `json:"previous_choice"`
	CurrentScene   string         `json:"current_scene"`
	Choices        []story.Choice `json:"choices"`
	Version        int64          `json:"version"`
}

func sendChoice(client *http.Client, baseURL, sessionID, choiceID string, version int64) (*chooseResponse, error) {
	jsonData, err := json.Marshal(chooseRequest{
		SessionID: sessionID,
		ChoiceID:  choiceID,
		Version:   version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/interactive/choose",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("choice failed: %s", errorResp.Error)
	}

	var choice chooseResponse
	if err := json.Unmarshal(body, &choice); err != nil {
		return nil, fmt.Errorf("failed to parse choice response: %w", err)
	}
	return &choice, nil
}

func restartSession(client *http.Client, baseURL, sessionID string) (*session.Session, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/interactive/session/%s/restart", baseURL, sessionID),
		"application/json",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to restart session: %s", errorResp.Error)
	}

	var sess session.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &sess, nil
}

func endSession(client *http.Client, baseURL, sessionID string) error {
	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/v1/interactive/session/%s", baseURL, sessionID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return nil
}
