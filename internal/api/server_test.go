package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wishlistme/miniapp/internal/auth"
	"github.com/wishlistme/miniapp/internal/repository/postgres"
	"github.com/wishlistme/miniapp/internal/service"
)

const testBotToken = "123456:test-bot-token"

var userColumns = []string{"id", "telegram_id", "first_name", "last_name", "username", "created_at", "updated_at"}

func newTestServer(t *testing.T) (*httptest.Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := service.New(db, logger,
		postgres.NewUserRepository(db),
		postgres.NewWishlistRepository(db),
		postgres.NewItemRepository(db),
		postgres.NewTemplateRepository(db),
	)

	server := NewServer(svc, logger, Options{
		LoginSecret: auth.Secret(testBotToken),
		AuthMaxAge:  24 * time.Hour,
	})

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, mock
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func signedLoginQuery(t *testing.T) url.Values {
	t.Helper()

	values := url.Values{}
	values.Set("id", "42")
	values.Set("first_name", "Alice")
	values.Set("username", "alice")
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	values.Set("hash", auth.Sign(values, auth.Secret(testBotToken)))
	return values
}

func TestLoginRedirectsOnValidSignature(t *testing.T) {
	ts, mock := newTestServer(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("42", "Alice", "", "alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(ts.URL + "/auth/telegram?" + signedLoginQuery(t).Encode())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/app.html?user_id=42", resp.Header.Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsTamperedPayload(t *testing.T) {
	ts, mock := newTestServer(t)

	values := signedLoginQuery(t)
	values.Set("first_name", "Mallory")

	resp, err := http.Get(ts.URL + "/auth/telegram?" + values.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body, "error")
	require.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestCreateWishlistRequiresTitle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/wishlists", map[string]any{"user_id": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/wishlists", map[string]any{"user_id": 1, "title": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWishlistRequiresUserID(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/wishlists", map[string]any{"title": "Birthday"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWishlistsRequiresUserID(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/wishlists")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateTemplateRejectsOutOfRangeRating(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, rating := range []int{-1, 0, 6} {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/templates/10/rate",
			map[string]any{"user_id": 1, "rating": rating})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "rating %d must be rejected", rating)
	}
}

func TestAddItemRequiresName(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/wishlist/1/item", map[string]any{"price": 10})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// End-to-end scenario: create wishlist, add item, list items
// ---------------------------------------------------------------------------

func TestWishlistItemScenario(t *testing.T) {
	ts, mock := newTestServer(t)
	now := time.Now()

	// POST /api/wishlists: first sight of user 1, so a bare row is created.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, telegram_id")).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wishlists")).
		WithArgs(int64(1), "Birthday", sqlmock.AnyArg(), false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/wishlists",
		map[string]any{"user_id": 1, "title": "Birthday"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["wishlist_id"])

	// POST /api/wishlist/1/item: no ordinal given, first item lands at 0.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wishlist_items")).
		WithArgs(int64(1), nil, "Book", 0, nil, 10.0, nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ordinal"}).AddRow(int64(1), 0))

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/wishlist/1/item",
		map[string]any{"name": "Book", "price": 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["item_id"])

	// GET /api/wishlist/1/items
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY ordinal ASC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "wishlist_id", "ordinal", "name", "desired_level", "comment", "price", "url", "taken"}).
			AddRow(int64(1), int64(1), 0, "Book", 0, nil, 10.0, nil, false))

	listResp, err := http.Get(ts.URL + "/api/wishlist/1/items")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var items []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0]["id"])
	assert.EqualValues(t, 1, items[0]["wishlist_id"])
	assert.EqualValues(t, 0, items[0]["ordinal"])
	assert.Equal(t, "Book", items[0]["name"])
	assert.EqualValues(t, 10, items[0]["price"])
	assert.Equal(t, false, items[0]["taken"])

	require.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

func TestGetTemplatesReturnsGallery(t *testing.T) {
	ts, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY avg_rating DESC, items_count DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "background", "items_count", "avg_rating"}).
			AddRow(int64(10), "Gamer starter pack", nil, 12, 4.5))

	resp, err := http.Get(ts.URL + "/api/templates")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var templates []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&templates))
	require.Len(t, templates, 1)
	assert.EqualValues(t, 12, templates[0]["items_count"])
	assert.EqualValues(t, 4.5, templates[0]["avg_rating"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyTemplateNotFound(t *testing.T) {
	ts, mock := newTestServer(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, telegram_id")).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(1), "1", "", "", "", now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, background FROM wishlists")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "background"}))
	mock.ExpectRollback()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/templates/404/copy", map[string]any{"user_id": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItemReportsChanges(t *testing.T) {
	ts, mock := newTestServer(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM wishlist_items")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/wishlist/1/item/9", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["changes"])
	require.NoError(t, mock.ExpectationsWereMet())
}
