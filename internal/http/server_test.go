package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"echobo/internal/storage"
	"echobo/internal/store"
	"echobo/internal/view"
)

type testEnv struct {
	srv   *Server
	store *store.Store
	mem   *storage.MemoryStore
}

func newTestServer(t *testing.T, opts ...Option) testEnv {
	t.Helper()
	mem := storage.NewMemoryStore()
	st := store.New(mem)
	if _, err := st.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	sy := view.NewSynchronizer(st, view.WithClock(func() time.Time { return now }))
	srv, err := NewServer(":0", st, sy, nil, opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(srv.limiter.Stop)
	return testEnv{srv: srv, store: st, mem: mem}
}

func (e testEnv) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexRendersDashboard(t *testing.T) {
	env := newTestServer(t)

	rr := env.do(http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"ダッシュボード", "¥350,000", "¥127,000", "¥223,000", "profit-positive", "data-chart="} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("request id header missing")
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s body: %v", path, err)
		}
	}
}

func TestUnknownPathIs404(t *testing.T) {
	env := newTestServer(t)
	if rr := env.do(http.MethodGet, "/settings", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestNavigate(t *testing.T) {
	env := newTestServer(t)

	tests := []struct {
		view      string
		wantTitle string
		wantID    string
	}{
		{"addExpense", "経費の入力", `id="add-expense"`},
		{"report", "レポートと申告", `id="report"`},
		{"dashboard", "ダッシュボード", `id="dashboard"`},
		{"bogus", "ダッシュボード", `id="dashboard"`},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			rr := env.do(http.MethodPost, "/navigate", url.Values{"view": {tt.view}})
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			body := rr.Body.String()
			if !strings.Contains(body, tt.wantTitle) || !strings.Contains(body, tt.wantID) {
				t.Errorf("body missing %q / %q", tt.wantTitle, tt.wantID)
			}
			if !strings.Contains(rr.Header().Get("HX-Trigger"), `"scroll:top"`) {
				t.Errorf("missing scroll:top trigger: %s", rr.Header().Get("HX-Trigger"))
			}
		})
	}
}

func TestSubmitExpenseFlow(t *testing.T) {
	env := newTestServer(t)

	env.do(http.MethodPost, "/navigate", url.Values{"view": {"addExpense"}})

	rr := env.do(http.MethodPost, "/actions/select-category", url.Values{"category": {"materials"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("select status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `id="category-chooser"`) || !strings.Contains(rr.Body.String(), "selected") {
		t.Errorf("chooser partial missing selection: %s", rr.Body.String())
	}

	rr = env.do(http.MethodPost, "/actions/submit-expense",
		url.Values{"amount": {"5000"}, "date": {"2025-08-15"}, "memo": {"test"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("submit status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, `id="dashboard"`) || !strings.Contains(body, "¥132,000") || !strings.Contains(body, "¥218,000") {
		t.Errorf("dashboard not updated: %s", body)
	}
	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"show-notification"`) || !strings.Contains(trigger, `"scroll:top"`) {
		t.Errorf("unexpected triggers: %s", trigger)
	}
	if got := len(env.store.Snapshot().Ledger.Expenses); got != 4 {
		t.Errorf("expenses = %d, want 4", got)
	}
}

func TestSubmitExpenseValidation(t *testing.T) {
	env := newTestServer(t)
	env.do(http.MethodPost, "/navigate", url.Values{"view": {"addExpense"}})

	rr := env.do(http.MethodPost, "/actions/submit-expense",
		url.Values{"amount": {"0"}, "date": {"2025-08-15"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"show-alert"`) {
		t.Errorf("missing alert trigger: %s", rr.Header().Get("HX-Trigger"))
	}
	if got := len(env.store.Snapshot().Ledger.Expenses); got != 3 {
		t.Errorf("expenses = %d, want 3", got)
	}
}

func TestActionNotBoundOnCurrentScreen(t *testing.T) {
	env := newTestServer(t)

	rr := env.do(http.MethodPost, "/actions/submit-expense",
		url.Values{"amount": {"5000"}, "date": {"2025-08-15"}})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("HX-Refresh") != "true" {
		t.Errorf("expected HX-Refresh")
	}

	if rr := env.do(http.MethodPost, "/actions/unknown", url.Values{}); rr.Code != http.StatusConflict {
		t.Errorf("unknown action status=%d", rr.Code)
	}
}

func TestSelectUnknownCategory(t *testing.T) {
	env := newTestServer(t)
	env.do(http.MethodPost, "/navigate", url.Values{"view": {"addExpense"}})

	rr := env.do(http.MethodPost, "/actions/select-category", url.Values{"category": {"travel"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestServer(t)
	env.do(http.MethodPost, "/navigate", url.Values{"view": {"report"}})

	rr := env.do(http.MethodGet, "/actions/export-csv", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="iizuka_e-chobo_data.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	msg, _ := url.PathUnescape(rr.Header().Get(NotificationHeader))
	if msg != view.MsgExported {
		t.Errorf("notification = %q", msg)
	}
	want := "date,category,memo,amount\n" +
		"2025-08-10,materials,野菜と肉,32000\n" +
		"2025-08-12,utilities,電気代,15000\n" +
		"2025-08-14,rent,8月分,80000\n"
	if rr.Body.String() != want {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestSaveFailureReturns500(t *testing.T) {
	env := newTestServer(t)
	env.do(http.MethodPost, "/navigate", url.Values{"view": {"addExpense"}})
	env.do(http.MethodPost, "/actions/select-category", url.Values{"category": {"rent"}})

	env.mem.FailSave = errors.New("disk full")
	rr := env.do(http.MethodPost, "/actions/submit-expense",
		url.Values{"amount": {"1000"}, "date": {"2025-08-15"}})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := len(env.store.Snapshot().Ledger.Expenses); got != 3 {
		t.Errorf("expenses = %d, want 3", got)
	}
}

func TestActionsAreRateLimited(t *testing.T) {
	env := newTestServer(t, WithActionLimit(2))

	for _, v := range []string{"addExpense", "dashboard"} {
		if rr := env.do(http.MethodPost, "/navigate", url.Values{"view": {v}}); rr.Code != http.StatusOK {
			t.Fatalf("navigate %s status=%d", v, rr.Code)
		}
	}

	rr := env.do(http.MethodPost, "/navigate", url.Values{"view": {"report"}})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third navigate status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"show-notification"`) {
		t.Errorf("missing notification trigger: %s", rr.Header().Get("HX-Trigger"))
	}

	rr = env.do(http.MethodPost, "/actions/submit-expense", url.Values{"amount": {"100"}})
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("action status=%d, want 429", rr.Code)
	}
	if got := len(env.store.Snapshot().Ledger.Expenses); got != 3 {
		t.Errorf("ledger has %d records after a rejected submit, want 3", got)
	}

	for _, path := range []string{"/", "/healthz", "/actions/export-csv"} {
		if rr := env.do(http.MethodGet, path, nil); rr.Code == http.StatusTooManyRequests {
			t.Errorf("GET %s was rate limited", path)
		}
	}
}

func TestShutdownStopsLimiter(t *testing.T) {
	env := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := env.srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestServer(t)
	rr := env.do(http.MethodGet, "/static/app.js", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("Cache-Control") == "" {
		t.Errorf("Cache-Control not set")
	}
}
