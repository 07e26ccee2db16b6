package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bundlekeys/internal/engine"
)

const loginPage = `<!DOCTYPE html>
<html><head><title>Sign In</title></head>
<body><form name="logon"><input type="text" name="username"><input type="password" name="password"></form></body>
</html>`

type fakeStore struct {
	*httptest.Server
	redeems   atomic.Int32
	sessionID string
	expired   bool
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	f := &fakeStore{}
	mux := http.NewServeMux()

	mux.HandleFunc("/dynamicstore/userdata/", func(w http.ResponseWriter, r *http.Request) {
		if f.expired {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, loginPage)
			return
		}
		fmt.Fprint(w, `{"rgOwnedApps":[440,620],"rgOwnedPackages":[54029]}`)
	})
	mux.HandleFunc("/ISteamApps/GetAppList/v2/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"applist":{"apps":[
			{"appid":10,"name":"Counter-Strike"},
			{"appid":620,"name":"Portal 2"},
			{"appid":440,"name":"Team Fortress 2"},
			{"appid":441,"name":""}
		]}}`)
	})
	mux.HandleFunc("/account/ajaxregisterkey/", func(w http.ResponseWriter, r *http.Request) {
		f.redeems.Add(1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.sessionID = r.PostForm.Get("sessionid")
		switch r.PostForm.Get("product_key") {
		case "AAAAA-AAAAA-AAAAA":
			fmt.Fprint(w, `{"success":1,"purchase_receipt_info":{"line_items":[
				{"line_item_description":"Alpha"},{"line_item_description":"Alpha Soundtrack"}]}}`)
		case "LIMIT-LIMIT-LIMIT":
			fmt.Fprint(w, `{"success":2,"purchase_result_details":53}`)
		case "BLANK-BLANK-BLANK":
			fmt.Fprint(w, `{"success":2}`)
		case "ERROR-ERROR-ERROR":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><head><title>Error</title></head><body>Something broke</body></html>`)
		case "LOGIN-LOGIN-LOGIN":
			http.Redirect(w, r, "/login/?redir=account", http.StatusFound)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	})
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/account/registerkey", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(loginCookie); err != nil || ck.Value == "" {
			http.Redirect(w, r, "/login/", http.StatusFound)
			return
		}
		fmt.Fprint(w, "<html>register</html>")
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newClient(t *testing.T, f *fakeStore, login string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: f.URL, APIBaseURL: f.URL, SessionID: "sess-1", LoginToken: login})
	require.NoError(t, err)
	return c
}

func TestCatalog(t *testing.T) {
	f := newFakeStore(t)
	c := newClient(t, f, "token")

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)

	assert.True(t, cat.Owns("440"))
	assert.True(t, cat.Owns("54029"))
	assert.False(t, cat.Owns("10"))
	assert.Equal(t, 3, cat.Size())

	entries := cat.Entries()
	require.Len(t, entries, 2)
	// App list order is preserved.
	assert.Equal(t, "Portal 2", entries[0].DisplayName)
	assert.Equal(t, "440", entries[1].ID)
}

func TestCatalog_LoginPageIsSessionError(t *testing.T) {
	f := newFakeStore(t)
	f.expired = true
	c := newClient(t, f, "token")

	_, err := c.Catalog(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.True(t, engine.IsSessionError(err))
	assert.Contains(t, err.Error(), "Sign In")
}

func TestRedeem_Success(t *testing.T) {
	f := newFakeStore(t)
	c := newClient(t, f, "token")

	resp, err := c.Redeem(context.Background(), "AAAAA-AAAAA-AAAAA")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.ResultDetail)
	assert.Equal(t, []string{"Alpha", "Alpha Soundtrack"}, resp.LineItems)
	assert.Equal(t, "sess-1", f.sessionID)
}

func TestRedeem_ResultDetail(t *testing.T) {
	f := newFakeStore(t)
	c := newClient(t, f, "token")

	resp, err := c.Redeem(context.Background(), "LIMIT-LIMIT-LIMIT")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.ResultDetail)
	assert.Equal(t, 53, *resp.ResultDetail)

	resp, err = c.Redeem(context.Background(), "BLANK-BLANK-BLANK")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.ResultDetail)
}

func TestRedeem_Failures(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		session bool
	}{
		{"forbidden", "DENY0-DENY0-DENY0", true},
		{"redirect to login", "LOGIN-LOGIN-LOGIN", true},
		{"html error page", "ERROR-ERROR-ERROR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore(t)
			c := newClient(t, f, "token")

			_, err := c.Redeem(context.Background(), tt.code)
			require.Error(t, err)
			assert.Equal(t, tt.session, engine.IsSessionError(err), "error: %v", err)
			assert.Equal(t, int32(1), f.redeems.Load())
		})
	}
}

func TestVerifySession(t *testing.T) {
	f := newFakeStore(t)

	require.NoError(t, newClient(t, f, "token").VerifySession(context.Background()))

	err := newClient(t, f, "").VerifySession(context.Background())
	require.ErrorIs(t, err, ErrSessionInvalid)
}
