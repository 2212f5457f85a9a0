package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/health-dashboard/backend/internal/account"
	"github.com/health-dashboard/backend/internal/api/handlers"
	"github.com/health-dashboard/backend/internal/cache/memory"
	"github.com/health-dashboard/backend/internal/dashboard"
	"github.com/health-dashboard/backend/internal/diagnosis"
	"github.com/health-dashboard/backend/internal/documents"
	"github.com/health-dashboard/backend/internal/exercise"
	"github.com/health-dashboard/backend/internal/ocr"
	"github.com/health-dashboard/backend/internal/pose"
	"github.com/health-dashboard/backend/internal/routing"
	"github.com/health-dashboard/backend/internal/session"
	"github.com/health-dashboard/backend/internal/storage/sqlite"
)

const cookieName = "session_id"

type fixedPredictor struct{ class int }

func (p fixedPredictor) Predict([]float64) (int, error) { return p.class, nil }

type straightRoad struct{}

func (straightRoad) RoadRoute(_ context.Context, from, to routing.Location) ([]routing.LatLon, error) {
	return []routing.LatLon{{from.Lat, from.Lon}, {to.Lat, to.Lon}}, nil
}

type testServer struct {
	app       *fiber.App
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith builds the server around diag, or around a fixed
// classifier over the test tables when diag is nil.
func newTestServerWith(t *testing.T, diag *diagnosis.Service) *testServer {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.NewClient(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)

	if diag == nil {
		catalog, err := diagnosis.LoadCatalog("../diagnosis/testdata/tables")
		if err != nil {
			t.Fatalf("LoadCatalog() error = %v", err)
		}
		diag = diagnosis.NewService(fixedPredictor{class: 15}, catalog)
	}

	uploadDir := filepath.Join(dir, "uploads")
	docs, err := documents.NewService(db, uploadDir, 1<<20, []string{".pdf"})
	if err != nil {
		t.Fatalf("documents.NewService() error = %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	Register(app, Handlers{
		Auth:      handlers.NewAuthHandler(account.NewService(db, sessions), handlers.CookieConfig{Name: cookieName, TTL: time.Hour}),
		Dashboard: handlers.NewDashboardHandler(dashboard.NewService(nil, rand.NewSource(1))),
		Diagnosis: handlers.NewDiagnosisHandler(diag),
		Routes:    handlers.NewRouteHandler(routing.NewService(straightRoad{}, memory.New(), time.Hour)),
		Pose:      handlers.NewPoseHandler(),
		PoseWS:    handlers.NewWebSocketHandler(),
		Exercise:  handlers.NewExerciseHandler(),
		Documents: handlers.NewDocumentHandler(docs),
		OCR:       handlers.NewOCRHandler(ocr.NewService(nil, 0, 0), 1<<20),
		Health:    handlers.NewHealthHandler(map[string]handlers.Pinger{"sqlite": db}, map[string]handlers.Pinger{"diagnosis": diag}),
	}, Options{Sessions: sessions, CookieName: cookieName})

	return &testServer{app: app, uploadDir: uploadDir}
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body io.Reader, cookie *http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) doJSON(t *testing.T, method, path string, payload any, cookie *http.Cookie) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(data)
	}
	return s.do(t, method, path, fiber.MIMEApplicationJSON, body, cookie)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, want, data)
	}
}

// login registers alice and returns her session cookie.
func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()

	resp := s.doJSON(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"username": "alice", "password": "secret", "age": 30, "weight": 60, "height": 165,
	}, nil)
	expectStatus(t, resp, fiber.StatusCreated)

	resp = s.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"username": "alice", "password": "secret",
	}, nil)
	expectStatus(t, resp, fiber.StatusOK)

	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			if !c.HttpOnly {
				t.Error("session cookie is not HttpOnly")
			}
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/health", "", nil, nil), fiber.StatusOK)

	resp := s.do(t, http.MethodGet, "/api/v1/ready", "", nil, nil)
	expectStatus(t, resp, fiber.StatusOK)
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	if body.Checks["sqlite"] != "ok" {
		t.Errorf("sqlite check = %q, want ok", body.Checks["sqlite"])
	}
	if body.Checks["diagnosis"] != "ok" {
		t.Errorf("diagnosis check = %q, want ok", body.Checks["diagnosis"])
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/dashboard", "/api/v1/auth/me", "/api/v1/documents", "/api/v1/routes/last"} {
		t.Run(path, func(t *testing.T) {
			expectStatus(t, s.do(t, http.MethodGet, path, "", nil, nil), fiber.StatusUnauthorized)
		})
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	t.Run("duplicate username", func(t *testing.T) {
		resp := s.doJSON(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"username": "alice", "password": "other", "age": 40, "weight": 70, "height": 170,
		}, nil)
		expectStatus(t, resp, fiber.StatusConflict)
	})

	t.Run("invalid age", func(t *testing.T) {
		resp := s.doJSON(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"username": "bob", "password": "pw", "age": 150, "weight": 70, "height": 170,
		}, nil)
		expectStatus(t, resp, fiber.StatusBadRequest)
		var body struct {
			Error string `json:"error"`
		}
		decode(t, resp, &body)
		if !strings.Contains(body.Error, "age") {
			t.Errorf("error = %q, want it to mention age", body.Error)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := s.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
			"username": "alice", "password": "wrong",
		}, nil)
		expectStatus(t, resp, fiber.StatusUnauthorized)
		for _, c := range resp.Cookies() {
			if c.Name == cookieName && c.Value != "" {
				t.Error("failed login set a session cookie")
			}
		}
	})

	t.Run("me", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil, cookie)
		expectStatus(t, resp, fiber.StatusOK)
		var body struct {
			Session session.Session `json:"session"`
		}
		decode(t, resp, &body)
		if body.Session.Username != "alice" || body.Session.Age != 30 || body.Session.Weight != 60 || body.Session.Height != 165 {
			t.Errorf("session = %+v", body.Session)
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/v1/dashboard", "", nil, cookie)
		expectStatus(t, resp, fiber.StatusOK)
		var body dashboard.Dashboard
		decode(t, resp, &body)
		if body.Profile.BMI != dashboard.BMI(60, 165) {
			t.Errorf("BMI = %v, want %v", body.Profile.BMI, dashboard.BMI(60, 165))
		}
		if len(body.Trends) != 7 {
			t.Errorf("len(Trends) = %d, want 7", len(body.Trends))
		}
	})

	t.Run("logout", func(t *testing.T) {
		expectStatus(t, s.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil, cookie), fiber.StatusOK)
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil, cookie), fiber.StatusUnauthorized)
		// Logging out again is harmless.
		expectStatus(t, s.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil, cookie), fiber.StatusOK)
	})
}

func TestDiagnosisPredict(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	resp := s.do(t, http.MethodGet, "/api/v1/diagnosis/symptoms", "", nil, cookie)
	expectStatus(t, resp, fiber.StatusOK)
	var vocab struct {
		Symptoms []string `json:"symptoms"`
	}
	decode(t, resp, &vocab)
	if len(vocab.Symptoms) != len(diagnosis.Symptoms) {
		t.Errorf("len(symptoms) = %d, want %d", len(vocab.Symptoms), len(diagnosis.Symptoms))
	}

	resp = s.doJSON(t, http.MethodPost, "/api/v1/diagnosis/predict", map[string]any{
		"symptoms": []string{"itching", "skin_rash"},
	}, cookie)
	expectStatus(t, resp, fiber.StatusOK)
	var res diagnosis.Result
	decode(t, resp, &res)
	if res.Disease != "Fungal infection" {
		t.Errorf("Disease = %q, want Fungal infection", res.Disease)
	}
	if len(res.Symptoms) != 2 {
		t.Errorf("Symptoms = %v, want two entries", res.Symptoms)
	}

	tests := []struct {
		name     string
		symptoms []string
	}{
		{"empty selection", []string{}},
		{"unknown symptom", []string{"not_a_symptom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.doJSON(t, http.MethodPost, "/api/v1/diagnosis/predict", map[string]any{"symptoms": tt.symptoms}, cookie)
			expectStatus(t, resp, fiber.StatusBadRequest)
		})
	}
}

func TestDiagnosisUnavailable(t *testing.T) {
	s := newTestServerWith(t, diagnosis.Unavailable(errors.New("model file missing")))
	cookie := s.login(t)

	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/diagnosis/symptoms", "", nil, cookie), fiber.StatusServiceUnavailable)
	resp := s.doJSON(t, http.MethodPost, "/api/v1/diagnosis/predict", map[string]any{
		"symptoms": []string{"itching"},
	}, cookie)
	expectStatus(t, resp, fiber.StatusServiceUnavailable)

	// The rest of the API keeps serving.
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/dashboard", "", nil, cookie), fiber.StatusOK)

	resp = s.do(t, http.MethodGet, "/api/v1/ready", "", nil, nil)
	expectStatus(t, resp, fiber.StatusOK)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	if body.Status != "degraded" {
		t.Errorf("status = %q, want degraded", body.Status)
	}
	if !strings.Contains(body.Checks["diagnosis"], "unavailable") {
		t.Errorf("diagnosis check = %q, want unavailable", body.Checks["diagnosis"])
	}
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/routes/last", "", nil, cookie), fiber.StatusNotFound)

	resp := s.doJSON(t, http.MethodPost, "/api/v1/routes/shortest", map[string]any{
		"start": "Ambulance", "destination_type": "Cardiology",
	}, cookie)
	expectStatus(t, resp, fiber.StatusOK)
	var res routing.Result
	decode(t, resp, &res)
	if res.Destination != "Heart Care Center" {
		t.Errorf("Destination = %q, want Heart Care Center", res.Destination)
	}
	if got := res.Path.Nodes[len(res.Path.Nodes)-1]; got != "Heart Care Center" {
		t.Errorf("path ends at %q", got)
	}
	if len(res.Segments) != len(res.Path.Nodes)-1 {
		t.Errorf("len(Segments) = %d, want %d", len(res.Segments), len(res.Path.Nodes)-1)
	}

	resp = s.do(t, http.MethodGet, "/api/v1/routes/last", "", nil, cookie)
	expectStatus(t, resp, fiber.StatusOK)
	var last routing.Result
	decode(t, resp, &last)
	if last.Destination != res.Destination || last.Path.DistanceKm != res.Path.DistanceKm {
		t.Errorf("last route = %+v, want %+v", last, res)
	}

	resp = s.doJSON(t, http.MethodPost, "/api/v1/routes/shortest", map[string]any{
		"start": "Nowhere", "destination_type": "Cardiology",
	}, cookie)
	expectStatus(t, resp, fiber.StatusBadRequest)
}

func TestExercisePlan(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	tests := []struct {
		goal        string
		placeholder bool
	}{
		{"Increase%20Strength", false},
		{"Rehabilitation", true},
	}
	for _, tt := range tests {
		resp := s.do(t, http.MethodGet, "/api/v1/exercise/plan?goal="+tt.goal+"&level=Beginner", "", nil, cookie)
		expectStatus(t, resp, fiber.StatusOK)
		var plan struct {
			Exercises   []exercise.Item `json:"exercises"`
			Placeholder bool            `json:"placeholder"`
		}
		decode(t, resp, &plan)
		if len(plan.Exercises) == 0 || plan.Placeholder != tt.placeholder {
			t.Errorf("plan for %s = %+v, want placeholder=%v", tt.goal, plan, tt.placeholder)
		}
	}

	resp := s.do(t, http.MethodGet, "/api/v1/exercise/plan?goal=Rehabilitation&level=Expert", "", nil, cookie)
	expectStatus(t, resp, fiber.StatusBadRequest)
}

// armAt places the right arm so the elbow angle equals deg.
func armAt(deg float64) pose.Frame {
	lm := make([]pose.Landmark, pose.NumLandmarks)
	elbow := pose.Landmark{X: 0.5, Y: 0.5}
	rad := deg * math.Pi / 180
	lm[pose.RightShoulder] = pose.Landmark{X: 0.5, Y: 0.4}
	lm[pose.RightElbow] = elbow
	lm[pose.RightWrist] = pose.Landmark{X: elbow.X + 0.1*math.Sin(rad), Y: elbow.Y - 0.1*math.Cos(rad)}
	return pose.Frame{Landmarks: lm}
}

func TestPose(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	t.Run("analyze", func(t *testing.T) {
		frames := []pose.Frame{armAt(170), armAt(150), armAt(80), armAt(170)}
		resp := s.doJSON(t, http.MethodPost, "/api/v1/pose/analyze", map[string]any{
			"exercise": "Arm Curl", "frames": frames,
		}, cookie)
		expectStatus(t, resp, fiber.StatusOK)
		var sum pose.Summary
		decode(t, resp, &sum)
		if sum.Reps != 1 || sum.Stage != pose.StageUp {
			t.Errorf("reps=%d stage=%s, want 1 up", sum.Reps, sum.Stage)
		}
	})

	t.Run("unknown exercise", func(t *testing.T) {
		resp := s.doJSON(t, http.MethodPost, "/api/v1/pose/analyze", map[string]any{
			"exercise": "Cartwheel", "frames": []pose.Frame{armAt(170)},
		}, cookie)
		expectStatus(t, resp, fiber.StatusBadRequest)
	})

	t.Run("posture", func(t *testing.T) {
		lm := make([]pose.Landmark, pose.NumLandmarks)
		lm[pose.LeftShoulder] = pose.Landmark{X: 0.6, Y: 0.4}
		lm[pose.RightShoulder] = pose.Landmark{X: 0.4, Y: 0.5}
		resp := s.doJSON(t, http.MethodPost, "/api/v1/pose/posture", pose.Frame{Landmarks: lm}, cookie)
		expectStatus(t, resp, fiber.StatusOK)
		var res pose.PostureResult
		decode(t, resp, &res)
		if res.Good {
			t.Errorf("posture reported good for a 0.1 shoulder difference")
		}
	})

	t.Run("websocket requires upgrade", func(t *testing.T) {
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/pose/ws", "", nil, cookie), fiber.StatusUpgradeRequired)
	})
}

func multipartBody(t *testing.T, field string, files map[string][]string) (string, io.Reader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, contents := range files {
		for _, content := range contents {
			part, err := w.CreateFormFile(field, name)
			if err != nil {
				t.Fatalf("CreateFormFile: %v", err)
			}
			part.Write([]byte(content))
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return w.FormDataContentType(), &buf
}

func TestDocuments(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	contentType, body := multipartBody(t, "files", map[string][]string{
		"report.pdf": {"%PDF-1.4 first", "%PDF-1.4 second"},
	})
	resp := s.do(t, http.MethodPost, "/api/v1/documents", contentType, body, cookie)
	expectStatus(t, resp, fiber.StatusCreated)

	resp = s.do(t, http.MethodGet, "/api/v1/documents", "", nil, cookie)
	expectStatus(t, resp, fiber.StatusOK)
	var list struct {
		Documents []struct {
			ID       string `json:"id"`
			FileName string `json:"file_name"`
		} `json:"documents"`
	}
	decode(t, resp, &list)
	if len(list.Documents) != 2 {
		t.Fatalf("len(documents) = %d, want 2", len(list.Documents))
	}

	got := map[string]bool{}
	for _, d := range list.Documents {
		resp := s.do(t, http.MethodGet, "/api/v1/documents/"+d.ID+"/download", "", nil, cookie)
		expectStatus(t, resp, fiber.StatusOK)
		data, _ := io.ReadAll(resp.Body)
		got[string(data)] = true
	}
	if !got["%PDF-1.4 first"] || !got["%PDF-1.4 second"] {
		t.Errorf("downloaded payloads = %v, want both uploads intact", got)
	}

	t.Run("unknown id", func(t *testing.T) {
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/documents/missing/download", "", nil, cookie), fiber.StatusNotFound)
	})

	t.Run("rejected type", func(t *testing.T) {
		contentType, body := multipartBody(t, "files", map[string][]string{"script.exe": {"MZ"}})
		expectStatus(t, s.do(t, http.MethodPost, "/api/v1/documents", contentType, body, cookie), fiber.StatusBadRequest)
	})

	t.Run("payload removed from disk", func(t *testing.T) {
		if err := os.RemoveAll(s.uploadDir); err != nil {
			t.Fatal(err)
		}
		resp := s.do(t, http.MethodGet, "/api/v1/documents/"+list.Documents[0].ID+"/download", "", nil, cookie)
		expectStatus(t, resp, fiber.StatusGone)
	})
}

func TestOCRRejectsNonImage(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	contentType, body := multipartBody(t, "image", map[string][]string{"notes.txt": {"plain text, not an image"}})
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/ocr", contentType, body, cookie), fiber.StatusBadRequest)

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/ocr", "", nil, cookie), fiber.StatusBadRequest)
}
