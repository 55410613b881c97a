package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testSettings() model.TenantSettings {
	return model.TenantSettings{
		Shop:                 "demo.myshopify.com",
		PhoneID:              "1234567890",
		AccessToken:          "secret-token",
		ConfirmationTemplate: "order_confirmation",
	}
}

func newTestClient(t *testing.T, baseURL string) (*Client, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewClient(Config{BaseURL: baseURL}, zap.New(core)), logs
}

func TestSend_PostsTemplateMessage(t *testing.T) {
	var got model.TemplateMessage
	var gotPath, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"messaging_product":"whatsapp","messages":[{"id":"wamid.ABC"}]}`)
	}))
	defer srv.Close()

	c, logs := newTestClient(t, srv.URL)
	params := []model.TextParameter{model.Text("Asha"), model.Text("#1001"), model.Text("500.00 INR"), model.Text("Blue Shirt")}

	if err := c.Send(context.Background(), testSettings(), "98765 43210", "order_confirmation", params); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/v20.0/1234567890/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if got.MessagingProduct != "whatsapp" || got.Type != "template" {
		t.Errorf("unexpected envelope: %+v", got)
	}
	if got.To != "919876543210" {
		t.Errorf("to = %q, want 919876543210", got.To)
	}
	if got.Template.Name != "order_confirmation" || got.Template.Language.Code != "en_US" {
		t.Errorf("unexpected template: %+v", got.Template)
	}
	if len(got.Template.Components) != 1 || got.Template.Components[0].Type != "body" {
		t.Fatalf("unexpected components: %+v", got.Template.Components)
	}
	if ps := got.Template.Components[0].Parameters; len(ps) != 4 || ps[2].Text != "500.00 INR" {
		t.Errorf("unexpected parameters: %+v", ps)
	}

	sent := logs.FilterMessage("whatsapp message sent").All()
	if len(sent) != 1 {
		t.Fatalf("expected one success log, got %d", len(sent))
	}
	if id := sent[0].ContextMap()["message_id"]; id != "wamid.ABC" {
		t.Errorf("message_id = %v", id)
	}
}

func TestSend_RemoteRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"Template name does not exist"}}`)
	}))
	defer srv.Close()

	c, logs := newTestClient(t, srv.URL)
	err := c.Send(context.Background(), testSettings(), "9876543210", "missing_tpl", nil)

	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeliveryError, got %v", err)
	}
	if de.Kind != KindRemoteRejected || de.Status != http.StatusBadRequest {
		t.Fatalf("unexpected classification: %+v", de)
	}
	if !strings.Contains(de.Body, "Template name does not exist") {
		t.Errorf("body not kept: %q", de.Body)
	}

	failed := logs.FilterMessage("whatsapp send failed").All()
	if len(failed) != 1 {
		t.Fatalf("expected one failure log, got %d", len(failed))
	}
	if reason := failed[0].ContextMap()["reason"]; reason != "remote_rejected" {
		t.Errorf("reason = %v", reason)
	}
}

func TestSend_NetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := newTestClient(t, url)
	err := c.Send(context.Background(), testSettings(), "9876543210", "order_confirmation", nil)
	if k := Classify(err); k != KindNetworkUnreachable {
		t.Fatalf("got kind %q (%v), want %q", k, err, KindNetworkUnreachable)
	}
}

func TestSend_RequestMalformed(t *testing.T) {
	c, _ := newTestClient(t, "http://127.0.0.1:1")

	err := c.Send(context.Background(), testSettings(), "not a phone", "order_confirmation", nil)
	if k := Classify(err); k != KindRequestMalformed {
		t.Fatalf("empty recipient: got kind %q, want %q", k, KindRequestMalformed)
	}

	s := testSettings()
	s.PhoneID = ""
	err = c.Send(context.Background(), s, "9876543210", "order_confirmation", nil)
	if k := Classify(err); k != KindRequestMalformed {
		t.Fatalf("missing phone id: got kind %q, want %q", k, KindRequestMalformed)
	}
}

func TestSend_NeverLogsAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"invalid token"}`)
	}))
	defer srv.Close()

	c, logs := newTestClient(t, srv.URL)
	_ = c.Send(context.Background(), testSettings(), "9876543210", "order_confirmation", nil)
	_ = c.Send(context.Background(), testSettings(), "", "order_confirmation", nil)

	for _, entry := range logs.All() {
		for k, v := range entry.ContextMap() {
			if s, ok := v.(string); ok && strings.Contains(s, "secret-token") {
				t.Fatalf("access token leaked in log field %q", k)
			}
		}
	}
}

func TestSend_RemoteRejectedKeepsBodyReadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":`))
		w.(http.Flusher).Flush()

		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		_ = conn.Close()
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	err := c.Send(context.Background(), testSettings(), "9876543210", "order_confirmation", nil)

	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeliveryError, got %T: %v", err, err)
	}
	if de.Kind != KindRemoteRejected || de.Status != http.StatusBadGateway {
		t.Fatalf("unexpected classification: %+v", de)
	}
	if de.Err == nil || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected the truncated body read to be kept, got %v", de.Err)
	}
}
