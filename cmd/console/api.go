package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/internal/handlers"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func decodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func postJSON(client *http.Client, url string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	return decodeResponse(resp, out)
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	return decodeResponse(resp, out)
}

func listScenarios(client *http.Client, baseURL string) (map[string]string, error) {
	scenarios := make(map[string]string)
	if err := getJSON(client, baseURL+"/v1/scenarios", &scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

func createSession(client *http.Client, baseURL string, scenarioFile string) (*session.Session, error) {
	var sess session.Session
	err := postJSON(client, baseURL+"/v1/sessions", handlers.CreateSessionRequest{
		ScenarioFile: scenarioFile,
	}, &sess)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &sess, nil
}

func joinSession(client *http.Client, baseURL string, sessionID uuid.UUID, name, role string) error {
	url := fmt.Sprintf("%s/v1/sessions/%s/join", baseURL, sessionID)
	return postJSON(client, url, handlers.JoinRequest{Name: name, Persona: role}, nil)
}

func fetchTimeline(client *http.Client, baseURL string, sessionID uuid.UUID, role string) (*handlers.TimelineResponse, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s/timeline?persona=%s", baseURL, sessionID, role)
	var tl handlers.TimelineResponse
	if err := getJSON(client, url, &tl); err != nil {
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}
	return &tl, nil
}

func submitDecision(client *http.Client, baseURL string, sessionID uuid.UUID, role, eventID, optionID, reasoning string) error {
	url := fmt.Sprintf("%s/v1/sessions/%s/decision", baseURL, sessionID)
	return postJSON(client, url, handlers.DecisionRequest{
		Persona:   role,
		EventID:   eventID,
		OptionID:  optionID,
		Reasoning: reasoning,
	}, nil)
}

func skipDelay(client *http.Client, baseURL string, sessionID uuid.UUID, role string) error {
	url := fmt.Sprintf("%s/v1/sessions/%s/skip", baseURL, sessionID)
	return postJSON(client, url, handlers.SkipRequest{Persona: role}, nil)
}

func fetchDebrief(client *http.Client, baseURL string, sessionID uuid.UUID) (*handlers.DebriefResponse, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s/debrief", baseURL, sessionID)
	var debrief handlers.DebriefResponse
	if err := getJSON(client, url, &debrief); err != nil {
		return nil, fmt.Errorf("failed to get debrief: %w", err)
	}
	return &debrief, nil
}
