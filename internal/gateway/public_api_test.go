package gateway_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"MiniShop/internal/catalog"
	"MiniShop/internal/gateway"
	"MiniShop/internal/users"
)

const jwtSecret = "test-secret-that-is-at-least-32-chars"

func newUsersTS(t *testing.T) *httptest.Server {
	t.Helper()

	store := users.NewStore(users.PlainHasher{})
	if err := store.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	s := &users.Server{
		Log:   zap.NewNop(),
		Store: users.NewLockedStore(store),
		JWT:   users.NewTokenMaker(jwtSecret),
	}

	h := users.NewHandler(s, users.HTTPDeps{
		Log:          zap.NewNop(),
		Service:      "users",
		SignInPerMin: 100,
		SignUpPerMin: 100,
	})

	return httptest.NewServer(h)
}

func newCatalogTS(t *testing.T) *httptest.Server {
	t.Helper()

	s := &catalog.Server{Store: catalog.NewMemStore()}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "catalog",
	})

	return httptest.NewServer(h)
}

func newGatewayTS(t *testing.T, usersURL, catalogURL string) *httptest.Server {
	t.Helper()

	h, err := gateway.NewHandler(
		gateway.Deps{
			JWTSecret:  jwtSecret,
			UsersURL:   usersURL,
			CatalogURL: catalogURL,
		},
		gateway.HTTPDeps{
			Log:     zap.NewNop(),
			Service: "gateway",
			// Registry: nil
		},
	)
	if err != nil {
		t.Fatalf("gateway.NewHandler: %v", err)
	}

	return httptest.NewServer(h)
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func startStack(t *testing.T) *httptest.Server {
	t.Helper()

	usersTS := newUsersTS(t)
	t.Cleanup(usersTS.Close)

	catalogTS := newCatalogTS(t)
	t.Cleanup(catalogTS.Close)

	gwTS := newGatewayTS(t, usersTS.URL, catalogTS.URL)
	t.Cleanup(gwTS.Close)

	return gwTS
}

func TestGateway_PublicAPI_HappyPath(t *testing.T) {
	gwTS := startStack(t)
	c := &http.Client{}

	{
		resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/users/signup", map[string]any{
			"name":     "User",
			"lastname": "Example",
			"username": "user1",
			"email":    "user@example.com",
			"password": "password123",
		}, nil)

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("signup status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	var accessToken string
	{
		resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/users/signin", map[string]any{
			"email":    "user@example.com",
			"password": "password123",
		}, nil)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("signin status=%d body=%s", resp.StatusCode, string(raw))
		}

		var lr struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode signin: %v body=%s", err, string(raw))
		}
		if lr.AccessToken == "" {
			t.Fatalf("empty access_token")
		}
		accessToken = lr.AccessToken
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/users/me", nil, map[string]string{
			"Authorization": "Bearer " + accessToken,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("me status=%d body=%s", resp.StatusCode, string(raw))
		}

		var me users.User
		if err := json.Unmarshal(raw, &me); err != nil {
			t.Fatalf("decode me: %v body=%s", err, string(raw))
		}
		if me.Email != "user@example.com" || me.Gender != users.GenderIndeterminate {
			t.Fatalf("unexpected profile %+v", me)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/products/lookup", map[string]any{
			"product_id": "p1",
		}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("lookup status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/products", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("products status=%d body=%s", resp.StatusCode, string(raw))
		}
		var products []catalog.Product
		if err := json.Unmarshal(raw, &products); err != nil {
			t.Fatalf("decode products: %v", err)
		}
		if len(products) == 0 {
			t.Fatalf("expected non-empty products")
		}
	}
}

func TestGateway_PublicAPI_ProfileRequiresAuth(t *testing.T) {
	gwTS := startStack(t)
	c := &http.Client{}

	resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/users/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	resp, raw = doJSON(t, c, http.MethodPut, gwTS.URL+"/admin/admins/100", nil, map[string]string{
		"Authorization": "Bearer forged",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("admin status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestGateway_Readyz(t *testing.T) {
	gwTS := startStack(t)

	resp, raw := doJSON(t, &http.Client{}, http.MethodGet, gwTS.URL+"/readyz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestGateway_UpstreamDown(t *testing.T) {
	catalogTS := newCatalogTS(t)
	t.Cleanup(catalogTS.Close)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	gwTS := newGatewayTS(t, deadURL, catalogTS.URL)
	t.Cleanup(gwTS.Close)

	resp, _ := doJSON(t, &http.Client{}, http.MethodPost, gwTS.URL+"/users/signin", map[string]any{
		"email": "a@example.com", "password": "x",
	}, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("signin status=%d", resp.StatusCode)
	}

	resp, _ = doJSON(t, &http.Client{}, http.MethodGet, gwTS.URL+"/readyz", nil, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", resp.StatusCode)
	}
}
