package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go-silversense/db"
	"go-silversense/guidance"
	"go-silversense/processor"
	"go-silversense/types"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := db.OpenSQLite(filepath.Join(t.TempDir(), "routes.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return SetupRouter(processor.New(processor.Deps{Store: s}))
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doUpload(t *testing.T, r *gin.Engine, path, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type analyzeResponse struct {
	ID        string                `json:"id"`
	Situation types.SituationRecord `json:"situation"`
	Guideline string                `json:"guideline"`
	Degraded  bool                  `json:"degraded"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAnalyze(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/emergency/analyze",
		`{"stt_text":"할머니가 쓰러져서 숨을 안 쉬어요","sound_event":"fall","sound_confidence":0.93}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	res := decode[analyzeResponse](t, w)
	if res.Situation.SituationID != types.S2 || res.Situation.EmergencyLevel != types.LevelHigh {
		t.Fatalf("unexpected situation: %+v", res.Situation)
	}
	if res.Guideline != guidance.GuidanceFor(types.S2) || !res.Degraded {
		t.Fatalf("expected fallback guidance, got %q", res.Guideline)
	}

	w = doJSON(t, r, http.MethodGet, "/api/emergency/situations/"+res.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("stored situation not found: %d %s", w.Code, w.Body)
	}
	stored := decode[db.StoredSituation](t, w)
	if stored.Situation.SituationID != types.S2 {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
}

func TestAnalyzeCoercesNonStringText(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/emergency/analyze", `{"stt_text":119,"sound_event":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	res := decode[analyzeResponse](t, w)
	if res.Situation.Speech == nil || res.Situation.Speech.RawText != "119" {
		t.Fatalf("expected coerced text, got %+v", res.Situation.Speech)
	}
	if res.Situation.Sound != nil {
		t.Fatalf("expected null sound, got %+v", res.Situation.Sound)
	}
}

func TestAnalyzeRejectsBadSound(t *testing.T) {
	r := newTestRouter(t)
	for _, body := range []string{
		`{"stt_text":"x","sound_event":"explosion","sound_confidence":0.5}`,
		`{"stt_text":"x","sound_event":"fall","sound_confidence":1.2}`,
		`{"stt_text":"x","source":"stream"}`,
		`not json`,
	} {
		if w := doJSON(t, r, http.MethodPost, "/api/emergency/analyze", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestAnalyzeAudioFallsBack(t *testing.T) {
	r := newTestRouter(t)
	w := doUpload(t, r, "/api/emergency/analyze-audio", "clip.wav", []byte("not really audio"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	res := decode[analyzeResponse](t, w)
	if res.Situation.Sound == nil || res.Situation.Sound.Event != types.EventAmbientNoise {
		t.Fatalf("expected fallback sound, got %+v", res.Situation.Sound)
	}
	if res.Guideline == "" {
		t.Fatal("expected guidance")
	}

	if w := doUpload(t, r, "/api/emergency/analyze-audio", "clip.mp3", []byte("x")); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-wav upload, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/emergency/analyze-audio", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", w.Code)
	}
}

func TestAskWithoutNarrator(t *testing.T) {
	r := newTestRouter(t)
	body := `{"question":"어떻게 해야 하나요?","situation":{"situation_id":"S1","situation_label":"medical_emergency","emergency_level":"medium","speech":null,"sound":null,"symptoms":["unclear_condition"],"meta":{"timestamp":null,"language":"ko","source":"realtime"}}}`
	w := doJSON(t, r, http.MethodPost, "/api/emergency/ask", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	out := decode[map[string]string](t, w)
	if !strings.HasPrefix(out["answer"], "죄송합니다") {
		t.Fatalf("expected apology, got %q", out["answer"])
	}

	for _, bad := range []string{
		`{"question":"","situation":{"situation_id":"S1","emergency_level":"low"}}`,
		`{"question":"q"}`,
		`{"question":"q","situation":{"situation_id":"S9","emergency_level":"low"}}`,
		`{"question":"q","situation":{"situation_id":"S1","emergency_level":"low","symptoms":["a","a"]}}`,
	} {
		if w := doJSON(t, r, http.MethodPost, "/api/emergency/ask", bad); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", bad, w.Code)
		}
	}
}

func TestGuidanceLookup(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/emergency/guidance/s2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	out := decode[map[string]string](t, w)
	if out["guideline"] != guidance.GuidanceFor(types.S2) {
		t.Fatalf("unexpected guidance %q", out["guideline"])
	}
	if w := doJSON(t, r, http.MethodGet, "/api/emergency/guidance/S8", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSituationsListing(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/emergency/situations", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"situations":[]`) {
		t.Fatalf("expected empty list, got %d %s", w.Code, w.Body)
	}

	for i := 0; i < 3; i++ {
		doJSON(t, r, http.MethodPost, "/api/emergency/analyze", `{"stt_text":"불이 났어요"}`)
	}
	w = doJSON(t, r, http.MethodGet, "/api/emergency/situations?limit=2", "")
	out := decode[struct {
		Situations []db.StoredSituation `json:"situations"`
		Count      int                  `json:"count"`
	}](t, w)
	if out.Count != 2 || len(out.Situations) != 2 {
		t.Fatalf("expected 2 situations, got %d", out.Count)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/emergency/situations?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/emergency/situations/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestBatchUpload(t *testing.T) {
	r := newTestRouter(t)
	csv := "text,event,confidence\n불이 났어요,fire,0.9\n가슴이 아파요,,\n"
	w := doUpload(t, r, "/api/emergency/batch", "rows.csv", []byte(csv))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	out := decode[struct {
		Results []processor.BatchResult `json:"results"`
	}](t, w)
	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	if out.Results[0].Result.Situation.Meta.Source != types.SourceBatchDataset {
		t.Fatalf("unexpected source: %+v", out.Results[0].Result.Situation.Meta)
	}
}
