package www

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fixtureaudit/config"
	"fixtureaudit/engine"
	"fixtureaudit/store"
)

const testMaster = `line,sub_assembly,kind,fixture_no,station_no,station_name,fixture_part_desc,check_point,qty,frequency_cycles,Changed before date
J Line,Crank,Fixture,F-12,,,Clamp block,Check wear,2,20000,20-05-2024
J Line,Crank,Fixture,F-13,,,Guide rail,Check alignment,1,20000,20-05-2024
`

// testServer stands up the full HTTP stack over temp stores.
func testServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	dir := t.TempDir()
	masterPath := filepath.Join(dir, "config_master.csv")
	if err := os.WriteFile(masterPath, []byte(testMaster), 0644); err != nil {
		t.Fatalf("write master: %v", err)
	}
	registry, err := store.OpenRegistry(masterPath)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	evidence, err := store.NewEvidence(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatalf("evidence: %v", err)
	}
	eng, err := engine.New(engine.Config{
		AppConfig: config.Defaults(),
		Registry:  registry,
		History:   store.NewHistory(filepath.Join(dir, "audit_history.csv")),
		Evidence:  evidence,
		Now:       func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	eng.Start()

	router, stop := NewRouter(eng)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		stop()
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

func login(t *testing.T, srv *httptest.Server, client *http.Client, employeeID string) {
	t.Helper()
	resp, err := client.PostForm(srv.URL+"/login", url.Values{"employee_id": {employeeID}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", resp.StatusCode)
	}
}

func postJSON(t *testing.T, client *http.Client, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, out
}

func TestPagesRequireLogin(t *testing.T) {
	srv, client := testServer(t)

	for _, path := range []string{"/", "/audit", "/history", "/api/due"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Errorf("GET %s without login: status = %d, want 303", path, resp.StatusCode)
			continue
		}
		if loc := resp.Header.Get("Location"); loc != "/login" {
			t.Errorf("GET %s redirects to %q, want /login", path, loc)
		}
	}
}

func TestLoginRequiresEmployeeID(t *testing.T) {
	srv, client := testServer(t)
	resp, err := client.PostForm(srv.URL+"/login", url.Values{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	// Empty id re-renders the form instead of redirecting.
	if resp.StatusCode != http.StatusOK {
		t.Errorf("empty login status = %d, want 200", resp.StatusCode)
	}
}

func TestDashboardAfterLogin(t *testing.T) {
	srv, client := testServer(t)
	login(t, srv, client, "EMP-7")

	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / after login: status = %d, want 200", resp.StatusCode)
	}
}

func TestAPIAuditFlow(t *testing.T) {
	srv, client := testServer(t)
	login(t, srv, client, "EMP-7")

	// Both fixtures are 200 cycles from their limit.
	resp, err := client.Get(srv.URL + "/api/due")
	if err != nil {
		t.Fatalf("GET /api/due: %v", err)
	}
	var due struct {
		Due            []json.RawMessage `json:"due"`
		CompletedToday int               `json:"completed_today"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&due); err != nil {
		t.Fatalf("decode due: %v", err)
	}
	resp.Body.Close()
	if len(due.Due) != 2 || due.CompletedToday != 0 {
		t.Fatalf("due = %d items, completed = %d; want 2, 0", len(due.Due), due.CompletedToday)
	}

	resp, opened := postJSON(t, client, srv.URL+"/api/audit/open",
		`{"line":"J Line","sub_assembly":"Crank","kind":"Fixture","fixture_no":"F-12"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open status = %d: %v", resp.StatusCode, opened)
	}
	if n := opened["audit_no"].(float64); n != 1 {
		t.Errorf("audit_no = %v, want 1", n)
	}
	rows := opened["rows"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	resp, _ = postJSON(t, client, srv.URL+"/api/audit/rows/0/status", `{"status":"No"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set status: %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, client, srv.URL+"/api/audit/rows/0/remark", `{"remark":"Clamp worn"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set remark: %d", resp.StatusCode)
	}

	resp, summary := postJSON(t, client, srv.URL+"/api/audit/commit", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("commit status = %d: %v", resp.StatusCode, summary)
	}
	if summary["total_items"].(float64) != 1 || summary["issues_found"].(float64) != 1 {
		t.Errorf("summary = %v", summary)
	}

	// The finding landed in today's history.
	resp, err = client.Get(srv.URL + "/api/due")
	if err != nil {
		t.Fatalf("GET /api/due: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&due); err != nil {
		t.Fatalf("decode due: %v", err)
	}
	resp.Body.Close()
	if due.CompletedToday != 1 {
		t.Errorf("completed today = %d, want 1", due.CompletedToday)
	}
}

func TestAPIRowStatusValidation(t *testing.T) {
	srv, client := testServer(t)
	login(t, srv, client, "EMP-7")

	resp, _ := postJSON(t, client, srv.URL+"/api/audit/open",
		`{"line":"J Line","sub_assembly":"Crank","kind":"Fixture"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open status = %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, client, srv.URL+"/api/audit/rows/0/status", `{"status":"Maybe"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status accepted: %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, client, srv.URL+"/api/audit/rows/99/status", `{"status":"No"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown row accepted: %d", resp.StatusCode)
	}
}

func TestAPIDiscardAbandonsSession(t *testing.T) {
	srv, client := testServer(t)
	login(t, srv, client, "EMP-7")

	resp, _ := postJSON(t, client, srv.URL+"/api/audit/open",
		`{"line":"J Line","sub_assembly":"Crank","kind":"Fixture"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open status = %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, client, srv.URL+"/api/audit/discard", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("discard status = %d", resp.StatusCode)
	}

	// Nothing was persisted.
	resp, err := client.Get(srv.URL + "/api/due")
	if err != nil {
		t.Fatalf("GET /api/due: %v", err)
	}
	var due struct {
		CompletedToday int `json:"completed_today"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&due); err != nil {
		t.Fatalf("decode due: %v", err)
	}
	resp.Body.Close()
	if due.CompletedToday != 0 {
		t.Errorf("completed today = %d after discard, want 0", due.CompletedToday)
	}
}
