package shopify

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
)

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"id":1}`)
	sig := Sign("shh", body)

	if !VerifyWebhook("shh", body, sig) {
		t.Fatal("expected valid signature")
	}
	if VerifyWebhook("other", body, sig) {
		t.Fatal("expected invalid signature for wrong secret")
	}
	if VerifyWebhook("shh", []byte(`{"id":2}`), sig) {
		t.Fatal("expected invalid signature for tampered body")
	}
	if VerifyWebhook("shh", body, "%%%") {
		t.Fatal("expected invalid signature for garbage header")
	}
	if VerifyWebhook("", body, sig) {
		t.Fatal("empty secret must never verify")
	}
}

func TestValidShopDomain(t *testing.T) {
	if !ValidShopDomain("demo-store.myshopify.com") {
		t.Error("expected valid")
	}
	for _, s := range []string{"", "evil.com", "demo.myshopify.com.evil.com", "-x.myshopify.com"} {
		if ValidShopDomain(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestFetchOrderByGID(t *testing.T) {
	var gotToken, gotPath string
	var gotReq graphqlRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		io.WriteString(w, `{"data":{"order":{"name":"#1001","customer":{"firstName":"Ravi","phone":"+919876543210"}}}}`)
	}))
	defer srv.Close()

	c := NewAdminClient(AdminConfig{BaseURL: srv.URL}, "demo.myshopify.com", "shpat_x")
	order, err := c.FetchOrderByGID(context.Background(), "gid://shopify/Order/1")
	if err != nil {
		t.Fatalf("FetchOrderByGID: %v", err)
	}
	if order.Name != "#1001" || order.CustomerPhone() != "+919876543210" || order.FirstName() != "Ravi" {
		t.Fatalf("unexpected order: %+v", order)
	}
	if gotToken != "shpat_x" {
		t.Errorf("token = %q", gotToken)
	}
	if gotPath != "/admin/api/"+DefaultAPIVersion+"/graphql.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Variables["id"] != "gid://shopify/Order/1" || !strings.Contains(gotReq.Query, "order(id: $id)") {
		t.Errorf("unexpected query: %+v", gotReq)
	}
}

func TestFetchOrderByGID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"order":null}}`)
	}))
	defer srv.Close()

	order, err := NewAdminClient(AdminConfig{BaseURL: srv.URL}, "s", "t").FetchOrderByGID(context.Background(), "gid://shopify/Order/404")
	if err != nil || order != nil {
		t.Fatalf("got %+v, %v; want nil, nil", order, err)
	}
}

func TestFetchOrderByGID_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"errors":[{"message":"Throttled"}]}`)
	}))
	defer srv.Close()

	_, err := NewAdminClient(AdminConfig{BaseURL: srv.URL}, "s", "t").FetchOrderByGID(context.Background(), "gid://shopify/Order/1")
	if err == nil || !strings.Contains(err.Error(), "Throttled") {
		t.Fatalf("expected graphql error, got %v", err)
	}

	forbidden := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer forbidden.Close()

	_, err = NewAdminClient(AdminConfig{BaseURL: forbidden.URL}, "s", "t").FetchOrderByGID(context.Background(), "gid://shopify/Order/1")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

type memSessions map[string]*model.ShopSession

func (m memSessions) Get(ctx context.Context, shop string) (*model.ShopSession, error) {
	return m[shop], nil
}

func TestAdminFactory_ForShop(t *testing.T) {
	f := NewAdminFactory(AdminConfig{}, memSessions{
		"a.myshopify.com": {Shop: "a.myshopify.com", AccessToken: "tok"},
		"b.myshopify.com": {Shop: "b.myshopify.com"},
	})

	lookup, err := f.ForShop(context.Background(), "a.myshopify.com")
	if err != nil || lookup == nil {
		t.Fatalf("ForShop: %v", err)
	}
	c, ok := lookup.(*AdminClient)
	if !ok {
		t.Fatalf("ForShop returned %T", lookup)
	}
	if !strings.HasPrefix(c.endpoint, "https://a.myshopify.com/admin/api/") {
		t.Errorf("endpoint = %q", c.endpoint)
	}

	for _, shop := range []string{"b.myshopify.com", "missing.myshopify.com"} {
		if _, err := f.ForShop(context.Background(), shop); !errors.Is(err, ErrNoSession) {
			t.Errorf("%s: got %v, want ErrNoSession", shop, err)
		}
	}
}
