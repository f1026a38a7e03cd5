package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/coerce"
	"github.com/tbxark/ticketagent/llm"
	"github.com/tbxark/ticketagent/patch"
	"github.com/tbxark/ticketagent/planner"
	"github.com/tbxark/ticketagent/summary"
	"github.com/tbxark/ticketagent/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const loanTapePlan = `{"items":[{"service_area":"SRE/Production Support","category":"Financial Service Request","ticket_type":"Loan Tape","title":"Final loan tape for AAA","description":"final loan tape","form":{},"labels":[]}]}`

func setupRouter(t *testing.T) (*gin.Engine, *agent.Engine) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	model := llm.CompleterFunc(func(ctx context.Context, req *llm.Request) (string, error) {
		switch req.Name {
		case "planner":
			return loanTapePlan, nil
		case "summary":
			return "Final loan tape for AAA", nil
		}
		return "", errors.New("unexpected call " + req.Name)
	})
	p, err := planner.NewTextPlanner(cat, model)
	if err != nil {
		t.Fatalf("NewTextPlanner: %v", err)
	}
	engine, err := agent.NewEngine(cat, p, patch.NewApplier(cat, coerce.New()), summary.NewGenerator(cat, model))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return New(engine, cat, Options{TurnWindow: 10}), engine
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionLifecycle(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/v1/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var created CreateSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.SessionID == "" {
		t.Fatalf("create body = %s (%v)", w.Body.String(), err)
	}
	base := "/v1/sessions/" + created.SessionID

	w = do(t, r, http.MethodPost, base+"/messages", MessageRequest{
		Text:      "I need a final loan tape for AAA",
		Requester: "me@example.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("message status = %d: %s", w.Code, w.Body.String())
	}
	var resp agent.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != types.StatusNeedMoreInfo || resp.Question == nil || resp.Question.FieldName != "urgency" {
		t.Fatalf("unexpected first turn: %+v", resp)
	}
	if resp.Plan.Items[0].Form["email"] != "me@example.com" {
		t.Errorf("email not prefilled: %v", resp.Plan.Items[0].Form)
	}

	w = do(t, r, http.MethodGet, base, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"phase":"awaiting_answer"`) {
		t.Errorf("get session = %d: %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, base+"/turns?limit=1", nil)
	var turns struct {
		Turns []types.ChatTurn `json:"turns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &turns); err != nil {
		t.Fatalf("decode turns: %v", err)
	}
	if len(turns.Turns) != 1 || turns.Turns[0].Role != types.RoleAssistant {
		t.Errorf("turns = %+v", turns.Turns)
	}

	w = do(t, r, http.MethodDelete, base, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	w = do(t, r, http.MethodGet, base, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted session status = %d", w.Code)
	}
}

func TestPostMessageValidation(t *testing.T) {
	r, _ := setupRouter(t)
	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"text":""}`},
		{"not json", `text=hi`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s1/messages", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), "INVALID_REQUEST") {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestListTurnsRejectsBadLimit(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(t, r, http.MethodGet, "/v1/sessions/s1/turns?limit=-2", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/v1/sessions/unknown/turns", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"turns":[]`) {
		t.Errorf("unknown session turns = %d: %s", w.Code, w.Body.String())
	}
}

func TestCatalogAndMetrics(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(t, r, http.MethodGet, "/v1/catalog", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Loan Tape") {
		t.Errorf("catalog = %d: %.200s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Errorf("metrics status = %d", w.Code)
	}
}
