package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewClient(t *testing.T) {
	client := NewClient("", 0, zap.NewNop())

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}

	if client.baseURL != defaultBaseURL {
		t.Errorf("baseURL = %s, want %s", client.baseURL, defaultBaseURL)
	}

	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", client.httpClient.Timeout)
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("https://gitlab.example.com/", 10*time.Second, zap.NewNop())

	if client.baseURL != "https://gitlab.example.com" {
		t.Errorf("baseURL = %s, want https://gitlab.example.com", client.baseURL)
	}
}

func TestClient_TriggerPipeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		if r.URL.Path != "/api/v4/projects/42/trigger/pipeline" {
			t.Errorf("Expected trigger path, got %s", r.URL.Path)
		}

		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %s, want form encoding", ct)
		}

		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error: %v", err)
		}

		if got := r.PostForm.Get("token"); got != "glptt-secret" {
			t.Errorf("token = %s, want glptt-secret", got)
		}
		if got := r.PostForm.Get("ref"); got != "main" {
			t.Errorf("ref = %s, want main", got)
		}
		if got := r.PostForm.Get("variables[SECRET_NAME]"); got != "my-secret" {
			t.Errorf("variables[SECRET_NAME] = %s, want my-secret", got)
		}
		if got := r.PostForm.Get("variables[SECRET_EVENT_TYPE]"); got != "CREATE" {
			t.Errorf("variables[SECRET_EVENT_TYPE] = %s, want CREATE", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(PipelineRun{
			ID:     1337,
			Ref:    "main",
			Status: "created",
			WebURL: "https://gitlab.example.com/group/project/-/pipelines/1337",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())

	run, err := client.TriggerPipeline(context.Background(), TriggerRequest{
		ProjectID: "42",
		Token:     "glptt-secret",
		Ref:       "main",
		Variables: map[string]string{
			"SECRET_NAME":       "my-secret",
			"SECRET_EVENT_TYPE": "CREATE",
		},
	})
	if err != nil {
		t.Fatalf("TriggerPipeline() error: %v", err)
	}

	if run.ID != 1337 {
		t.Errorf("pipeline ID = %d, want 1337", run.ID)
	}
	if run.WebURL != "https://gitlab.example.com/group/project/-/pipelines/1337" {
		t.Errorf("unexpected web_url: %s", run.WebURL)
	}
}

func TestClient_TriggerPipeline_EncodesProjectPath(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		wantPath  string
	}{
		{
			name:      "numeric id",
			projectID: "12345",
			wantPath:  "/api/v4/projects/12345/trigger/pipeline",
		},
		{
			name:      "namespaced path",
			projectID: "group/project",
			wantPath:  "/api/v4/projects/group%2Fproject/trigger/pipeline",
		},
		{
			name:      "nested namespace",
			projectID: "group/subgroup/project",
			wantPath:  "/api/v4/projects/group%2Fsubgroup%2Fproject/trigger/pipeline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.EscapedPath()
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(PipelineRun{ID: 1})
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, zap.NewNop())

			_, err := client.TriggerPipeline(context.Background(), TriggerRequest{
				ProjectID: tt.projectID,
				Token:     "tok",
				Ref:       "main",
			})
			if err != nil {
				t.Fatalf("TriggerPipeline() error: %v", err)
			}

			if gotPath != tt.wantPath {
				t.Errorf("request path = %s, want %s", gotPath, tt.wantPath)
			}
		})
	}
}

func TestClient_TriggerPipeline_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"404 Project Not Found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())

	run, err := client.TriggerPipeline(context.Background(), TriggerRequest{
		ProjectID: "missing",
		Token:     "tok",
		Ref:       "main",
	})
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if run != nil {
		t.Error("Expected nil run on error")
	}

	var triggerErr *TriggerError
	if !errors.As(err, &triggerErr) {
		t.Fatalf("error type = %T, want *TriggerError", err)
	}
	if triggerErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", triggerErr.StatusCode)
	}
	if triggerErr.Message == "" {
		t.Error("Message not populated from response body")
	}

	if !IsTriggerError(err) {
		t.Error("IsTriggerError() = false, want true")
	}
}

func TestClient_TriggerPipeline_UnauthorizedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":{"base":["Invalid token"]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())

	_, err := client.TriggerPipeline(context.Background(), TriggerRequest{
		ProjectID: "42",
		Token:     "wrong",
		Ref:       "main",
	})

	var triggerErr *TriggerError
	if !errors.As(err, &triggerErr) {
		t.Fatalf("error type = %T, want *TriggerError", err)
	}
	if triggerErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", triggerErr.StatusCode)
	}
}

func TestClient_TriggerPipeline_InvalidSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not-json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())

	_, err := client.TriggerPipeline(context.Background(), TriggerRequest{
		ProjectID: "42",
		Token:     "tok",
		Ref:       "main",
	})
	if err == nil {
		t.Fatal("Expected error for unparseable success body")
	}
}

func TestClient_TriggerPipeline_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	client := NewClient(server.URL, 2*time.Second, zap.NewNop())

	_, err := client.TriggerPipeline(context.Background(), TriggerRequest{
		ProjectID: "42",
		Token:     "tok",
		Ref:       "main",
	})
	if err == nil {
		t.Fatal("Expected transport error")
	}

	var triggerErr *TriggerError
	if !errors.As(err, &triggerErr) {
		t.Fatalf("error type = %T, want *TriggerError", err)
	}
	if triggerErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport error", triggerErr.StatusCode)
	}
	if triggerErr.Unwrap() == nil {
		t.Error("Unwrap() = nil, want underlying transport error")
	}
}
