package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, game *fakeGame) (*httptest.Server, func(steamID string) int64) {
	t.Helper()
	store := openTestStore(t)
	srv := httptest.NewServer(NewHandler(NewCoordinator(store, game), game))
	t.Cleanup(srv.Close)
	seed := func(steamID string) int64 {
		return createPendingPurchase(t, store, steamID).ID
	}
	return srv, seed
}

func postDeliver(t *testing.T, srv *httptest.Server, path, steamID, acceptLanguage string) *http.Response {
	t.Helper()
	form := url.Values{"steam_id": {steamID}}
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if acceptLanguage != "" {
		req.Header.Set("Accept-Language", acceptLanguage)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	t.Cleanup(func() {
		_ = res.Body.Close()
	})
	return res
}

func deliverPath(id int64) string {
	return fmt.Sprintf("/purchases/%d/deliver", id)
}

func decodeBody[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var body T
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHandlerUp(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeGame{configured: true, online: true})
	res, err := srv.Client().Get(srv.URL + "/up")
	if err != nil {
		t.Fatalf("get /up: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestHandlerDeliverPurchase(t *testing.T) {
	t.Parallel()

	srv, seed := newTestServer(t, &fakeGame{configured: true, online: true})
	id := seed("76561198000000001")

	res := postDeliver(t, srv, deliverPath(id), "76561198000000001", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	body := decodeBody[deliverResponse](t, res)
	if !body.Success {
		t.Fatal("expected success response")
	}
	if body.Item.Code != "rifle.ak" || body.Item.Quantity != 1 {
		t.Fatalf("item = %+v, want rifle.ak x1", body.Item)
	}
}

func TestHandlerDeliverPurchaseAlreadyUsed(t *testing.T) {
	t.Parallel()

	srv, seed := newTestServer(t, &fakeGame{configured: true, online: true})
	id := seed("76561198000000001")

	if res := postDeliver(t, srv, deliverPath(id), "76561198000000001", ""); res.StatusCode != http.StatusOK {
		t.Fatalf("first delivery status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	res := postDeliver(t, srv, deliverPath(id), "76561198000000001", "")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("second delivery status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	body := decodeBody[errorResponse](t, res)
	if body.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestHandlerDeliverPurchaseValidation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeGame{configured: true, online: true})

	res := postDeliver(t, srv, "/purchases/zero/deliver", "76561198000000001", "")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid id status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	res = postDeliver(t, srv, "/purchases/1/deliver", "", "")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty steam id status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestHandlerDeliverPurchaseLocalizedError(t *testing.T) {
	t.Parallel()

	srv, seed := newTestServer(t, &fakeGame{configured: true, online: false})
	id := seed("76561198000000001")

	res := postDeliver(t, srv, deliverPath(id), "76561198000000001", "ru-RU,ru;q=0.9")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	body := decodeBody[errorResponse](t, res)
	if !strings.Contains(body.Error, "сервер") {
		t.Fatalf("error = %q, want a russian message", body.Error)
	}
}

func TestHandlerDeliverPurchaseBridgeDown(t *testing.T) {
	t.Parallel()

	srv, seed := newTestServer(t, &fakeGame{configured: false})
	id := seed("76561198000000001")

	res := postDeliver(t, srv, deliverPath(id), "76561198000000001", "")
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestHandlerPlayerOnline(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeGame{configured: true, online: true})

	res, err := srv.Client().Get(srv.URL + "/players/76561198000000001/online")
	if err != nil {
		t.Fatalf("get online: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	body := decodeBody[onlineResponse](t, res)
	if !body.Online {
		t.Fatal("expected online=true")
	}
}

func TestHandlerPlayerOnlineWithoutBridge(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeGame{configured: false})

	res, err := srv.Client().Get(srv.URL + "/players/76561198000000001/online")
	if err != nil {
		t.Fatalf("get online: %v", err)
	}
	defer res.Body.Close()
	// Presence probes never surface transport problems as request errors.
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	body := decodeBody[onlineResponse](t, res)
	if body.Online {
		t.Fatal("expected online=false")
	}
	if body.Message == "" {
		t.Fatal("expected an explanatory message")
	}
}

func TestHandlerPlayerOnlineCheckFailure(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeGame{configured: true, onlineErr: errors.New("rcon command timed out")})

	res, err := srv.Client().Get(srv.URL + "/players/76561198000000001/online")
	if err != nil {
		t.Fatalf("get online: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	body := decodeBody[onlineResponse](t, res)
	if body.Online {
		t.Fatal("expected online=false")
	}
}
