//go:build e2e

// End-to-end tests against a running server. Requires the full stack
// (PostgreSQL, Redis, the server itself) and valid admin credentials:
//
//	E2E_BASE_URL  (default http://localhost:8080)
//	E2E_USERNAME  (default admin)
//	E2E_PASSWORD  (required)
//
// Run with: go test -tags e2e ./test/e2e/
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"
)

var (
	baseURL string
	token   string
	client  = &http.Client{Timeout: 10 * time.Second}
)

func TestMain(m *testing.M) {
	baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

	password := os.Getenv("E2E_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "E2E_PASSWORD not set, skipping e2e suite")
		os.Exit(0)
	}

	var err error
	token, err = login(getenv("E2E_USERNAME", "admin"), password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envelope mirrors the API response shape.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func login(username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := client.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %v", resp.StatusCode, env.Error)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", err
	}
	return data.Token, nil
}

func do(t *testing.T, method, path string, payload interface{}) (*http.Response, envelope) {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, baseURL+path, &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response of %s %s: %v", method, path, err)
	}
	return resp, env
}

type lesson struct {
	ID         string `json:"id"`
	StudentID  int    `json:"student_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	StatusText string `json:"status_text"`
	Status     struct {
		Kind       string `json:"kind"`
		Reason     string `json:"reason"`
		HasMakeup  bool   `json:"has_makeup"`
		OriginDate string `json:"origin_date"`
	} `json:"status"`
	MakeupDate string `json:"makeup_date"`
	MakeupTime string `json:"makeup_time"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// TestAttendanceLifecycle walks the full flow: enroll a student, verify
// materialization, mark attendance, record an absence with a makeup,
// relocate the makeup, and withdraw.
func TestAttendanceLifecycle(t *testing.T) {
	start := time.Now().Format("2006-01-02")
	weekday := fmt.Sprintf("%d", int(time.Now().Weekday()))

	// ── Enroll ──────────────────────────────────────────────────────
	resp, env := do(t, http.MethodPost, "/api/v1/students", map[string]interface{}{
		"name":       "E2E테스트학생",
		"school":     "테스트중학교",
		"grade":      "중1",
		"teacher":    "테스트선생",
		"start_date": start,
		"schedule":   map[string]string{weekday: "16:00"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enroll: status %d: %v", resp.StatusCode, env.Error)
	}

	var student struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &student); err != nil {
		t.Fatalf("decode student: %v", err)
	}
	defer do(t, http.MethodPost, fmt.Sprintf("/api/v1/students/%d/withdraw", student.ID),
		map[string]string{"date": start})

	// ── Materialization ─────────────────────────────────────────────
	resp, env = do(t, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/lessons", student.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list lessons: status %d: %v", resp.StatusCode, env.Error)
	}
	var lessons []lesson
	if err := json.Unmarshal(env.Data, &lessons); err != nil {
		t.Fatalf("decode lessons: %v", err)
	}
	if want := 52 * 7; len(lessons) != want {
		t.Fatalf("materialized %d lessons, want %d", len(lessons), want)
	}
	if lessons[0].Date != start {
		t.Errorf("first lesson on %s, want %s", lessons[0].Date, start)
	}

	first, second := lessons[0], lessons[1]

	// ── Attend ──────────────────────────────────────────────────────
	resp, env = do(t, http.MethodPost, "/api/v1/lessons/"+first.ID+"/attend",
		map[string]string{"start": "16:05"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attend: status %d: %v", resp.StatusCode, env.Error)
	}
	var attended lesson
	if err := json.Unmarshal(env.Data, &attended); err != nil {
		t.Fatal(err)
	}
	if attended.StatusText != "출석" || attended.Start != "16:05" || attended.End != "17:35" {
		t.Errorf("attend result: %q %s–%s", attended.StatusText, attended.Start, attended.End)
	}

	// ── Absence with makeup ─────────────────────────────────────────
	makeupDate := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	resp, env = do(t, http.MethodPost, "/api/v1/lessons/"+second.ID+"/absent",
		map[string]interface{}{
			"reason":       "감기",
			"wants_makeup": true,
			"makeup_date":  makeupDate,
			"makeup_time":  "17:00",
		})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("absent: status %d: %v", resp.StatusCode, env.Error)
	}
	var absence lesson
	if err := json.Unmarshal(env.Data, &absence); err != nil {
		t.Fatal(err)
	}
	if absence.StatusText != "결석 (감기) 보강O" {
		t.Errorf("absence status text = %q", absence.StatusText)
	}
	if absence.MakeupDate != makeupDate || absence.MakeupTime != "17:00" {
		t.Errorf("absence makeup slot = %s %s", absence.MakeupDate, absence.MakeupTime)
	}

	// One makeup lesson must now exist, linked to the absence.
	resp, env = do(t, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/lessons", student.ID), nil)
	if err := json.Unmarshal(env.Data, &lessons); err != nil {
		t.Fatal(err)
	}
	if want := 52*7 + 1; len(lessons) != want {
		t.Fatalf("after absence %d lessons, want %d", len(lessons), want)
	}
	var makeup *lesson
	for i := range lessons {
		if lessons[i].Status.Kind == "MAKEUP" {
			makeup = &lessons[i]
			break
		}
	}
	if makeup == nil {
		t.Fatal("no makeup lesson materialized")
	}
	if makeup.Status.OriginDate != absence.Date || makeup.Status.Reason != "감기" {
		t.Errorf("makeup status = %+v", makeup.Status)
	}

	// ── Relocate ────────────────────────────────────────────────────
	newDate := time.Now().AddDate(0, 0, 5).Format("2006-01-02")
	resp, env = do(t, http.MethodPost, "/api/v1/lessons/"+second.ID+"/relocate",
		map[string]string{"date": newDate, "time": "10:00"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("relocate: status %d: %v", resp.StatusCode, env.Error)
	}
	var moved lesson
	if err := json.Unmarshal(env.Data, &moved); err != nil {
		t.Fatal(err)
	}
	if moved.Date != newDate || moved.Time != "10:00" {
		t.Errorf("relocated to %s %s", moved.Date, moved.Time)
	}
	if moved.ID == makeup.ID {
		t.Error("relocation must replace the makeup lesson, not move it in place")
	}

	// ── Reset the absence ───────────────────────────────────────────
	resp, env = do(t, http.MethodPost, "/api/v1/lessons/"+second.ID+"/reset", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: status %d: %v", resp.StatusCode, env.Error)
	}
	var reset lesson
	if err := json.Unmarshal(env.Data, &reset); err != nil {
		t.Fatal(err)
	}
	if reset.Status.Kind != "SCHEDULED" || reset.MakeupDate != "" {
		t.Errorf("reset result: %+v makeup=%s", reset.Status, reset.MakeupDate)
	}
}

// TestStudentSearchFieldBoundaries verifies a search term cannot match
// across the end of one field and the start of the next.
func TestStudentSearchFieldBoundaries(t *testing.T) {
	start := time.Now().Format("2006-01-02")
	weekday := fmt.Sprintf("%d", int(time.Now().Weekday()))

	resp, env := do(t, http.MethodPost, "/api/v1/students", map[string]interface{}{
		"name":       "경계검색학생",
		"school":     "시험중학교",
		"grade":      "중1",
		"teacher":    "테스트선생",
		"start_date": start,
		"schedule":   map[string]string{weekday: "16:00"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enroll: status %d: %v", resp.StatusCode, env.Error)
	}
	var student struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &student); err != nil {
		t.Fatal(err)
	}
	defer do(t, http.MethodPost, fmt.Sprintf("/api/v1/students/%d/withdraw", student.ID),
		map[string]string{"date": start})

	type studentRow struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	search := func(q string) []studentRow {
		t.Helper()
		resp, env := do(t, http.MethodGet, "/api/v1/students?q="+url.QueryEscape(q), nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("search %q: status %d: %v", q, resp.StatusCode, env.Error)
		}
		var rows []studentRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			t.Fatal(err)
		}
		return rows
	}
	contains := func(rows []studentRow) bool {
		for _, r := range rows {
			if r.ID == student.ID {
				return true
			}
		}
		return false
	}

	if !contains(search("경계검색")) {
		t.Error("name term did not match")
	}
	if !contains(search("시험중학교")) {
		t.Error("school term did not match")
	}
	// "학생시험" spans end of name + start of school and must not match.
	if contains(search("학생시험")) {
		t.Error("term matched across the name/school boundary")
	}
}

func TestAuthRequired(t *testing.T) {
	resp, err := client.Get(baseURL + "/api/v1/students")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated request got %d, want 401", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health got %d, want 200", resp.StatusCode)
	}
}
