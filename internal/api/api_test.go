package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/assessment"
	"github.com/abhisek/wordsmith/internal/curriculum"
	"github.com/abhisek/wordsmith/internal/lexicon"
	"github.com/abhisek/wordsmith/internal/llm"
	"github.com/abhisek/wordsmith/internal/mastery"
	"github.com/abhisek/wordsmith/internal/progression"
	"github.com/abhisek/wordsmith/internal/store"
	"github.com/abhisek/wordsmith/internal/telemetry"
	"github.com/abhisek/wordsmith/internal/writing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	mock    *llm.MockProvider
	metrics *telemetry.Metrics
}

func newTestServer(t *testing.T, opts Options, replies ...llm.MockResponse) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, curriculum.Publish(context.Background(), s.LevelRepo(), curriculum.Default()))

	mock := llm.NewMockProvider(replies...)
	metrics := telemetry.NewMetrics()
	svc := writing.NewService(writing.Deps{
		Levels:   s.LevelRepo(),
		Attempts: s.AttemptRepo(),
		Oracle:   assessment.NewOracle(mock, assessment.DefaultOracleConfig()),
		Progression: progression.NewService(s.ProgressRepo(), s.LevelRepo(),
			progression.ServiceConfig{WriteAttempts: 1}, zap.NewNop()),
		Mastery: mastery.NewService(s.MasteryRepo(), mastery.DefaultWindow, zap.NewNop()),
		Metrics: metrics,
		Logger:  zap.NewNop(),
	})
	opts.Metrics = metrics
	return &testServer{router: NewRouter(svc, opts), mock: mock, metrics: metrics}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func assessmentReply(percentage float64, passed bool) llm.MockResponse {
	body, _ := json.Marshal(map[string]any{
		"score":            percentage / 10,
		"total":            10,
		"percentage":       percentage,
		"passed":           passed,
		"performance_band": assessment.BandSecure,
		"badge":            "Sentence Builder",
		"feedback": map[string]any{
			"main_message":    "Good work.",
			"specific_praise": "Clear verbs.",
			"growth_area":     "Adverbs.",
			"encouragement":   "Keep going!",
		},
		"detailed_analysis": map[string]any{
			"correct_elements":      []string{"Capital letters"},
			"areas_for_improvement": []string{},
			"primary_strength":      "Verbs",
			"primary_growth_area":   "Adverbs",
		},
		"error_patterns":      []string{},
		"intervention_needed": false,
		"teacher_notes":       "On track.",
	})
	return llm.MockResponse{Content: body}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

var curriculumBody = map[string]any{
	"attempt_id": "a1",
	"pupil_id":   "pupil-1",
	"level_id":   "wl-01",
	"text":       "The dog runs. The cat sleeps.",
}

func TestSubmitCurriculum(t *testing.T) {
	ts := newTestServer(t, Options{}, assessmentReply(80, true))

	w := ts.do(http.MethodPost, "/api/v1/assessments", curriculumBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Assessment         assessment.ValidatedAssessment `json:"assessment"`
		Attempt            writing.Attempt                `json:"attempt"`
		ProgressionPending bool                           `json:"progression_pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Assessment.Passed)
	assert.False(t, body.ProgressionPending)
	assert.Equal(t, "a1", body.Attempt.ID)
	assert.Equal(t, "wl-02", body.Attempt.NextLevelID)

	w = ts.do(http.MethodGet, "/api/v1/pupils/pupil-1/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p progression.Progress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 2, p.CurrentLevel)
}

func TestSubmitCurriculum_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		replies  []llm.MockResponse
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed json",
			body:     "{not json",
			wantCode: http.StatusBadRequest,
			wantErr:  CodeInvalidRequest,
		},
		{
			name:     "empty text",
			body:     map[string]any{"pupil_id": "p", "level_id": "wl-01", "text": "  "},
			wantCode: http.StatusBadRequest,
			wantErr:  CodeValidation,
		},
		{
			name:     "missing attempt id",
			body:     map[string]any{"pupil_id": "p", "level_id": "wl-01", "text": "The dog runs."},
			wantCode: http.StatusBadRequest,
			wantErr:  CodeValidation,
		},
		{
			name:     "unknown level",
			body:     map[string]any{"attempt_id": "a1", "pupil_id": "p", "level_id": "wl-99", "text": "The dog runs."},
			wantCode: http.StatusNotFound,
			wantErr:  CodeUnknownLevel,
		},
		{
			name:     "oracle unavailable",
			body:     curriculumBody,
			replies:  []llm.MockResponse{{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}}, {Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}}},
			wantCode: http.StatusInternalServerError,
			wantErr:  CodeAssessmentFailed,
		},
		{
			name:     "unparseable reply",
			body:     curriculumBody,
			replies:  []llm.MockResponse{{Content: json.RawMessage(`["verdict", "great"]`)}},
			wantCode: http.StatusInternalServerError,
			wantErr:  CodeAssessmentFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Options{}, tt.replies...)
			w := ts.do(http.MethodPost, "/api/v1/assessments", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			e := decodeError(t, w)
			assert.Equal(t, tt.wantErr, e.Code)
			if tt.wantCode >= http.StatusInternalServerError {
				assert.Equal(t, GenericFailureMessage, e.Message)
				assert.NotContains(t, w.Body.String(), "verdict")
			}
		})
	}
}

func TestSubmitDemo(t *testing.T) {
	ts := newTestServer(t, Options{}, assessmentReply(70, true))

	w := ts.do(http.MethodPost, "/api/v1/assessments/demo", map[string]any{
		"text":                "The dog runs fast.",
		"level_number":        3,
		"activity_name":       "Practice",
		"prompt_title":        "Pets",
		"prompt_instructions": "Write about a pet.",
		"rubric":              map[string]any{"total": 10},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "assessment")
	assert.NotContains(t, body, "attempt")
}

func TestSaveDraft_AfterSubmitConflicts(t *testing.T) {
	ts := newTestServer(t, Options{}, assessmentReply(80, true))

	w := ts.do(http.MethodPost, "/api/v1/attempts/draft", map[string]any{
		"attempt_id": "a1",
		"pupil_id":   "pupil-1",
		"level_id":   "wl-01",
		"text":       "The dog",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(http.MethodPost, "/api/v1/assessments", curriculumBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(http.MethodPost, "/api/v1/attempts/draft", map[string]any{
		"attempt_id": "a1",
		"pupil_id":   "pupil-1",
		"level_id":   "wl-01",
		"text":       "Edited after submission.",
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, CodeAttemptSubmitted, decodeError(t, w).Code)

	w = ts.do(http.MethodGet, "/api/v1/pupils/pupil-1/attempts?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Attempts []writing.Attempt `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Attempts, 1)
	assert.Equal(t, "The dog runs. The cat sleeps.", list.Attempts[0].Text)
}

func TestFormulas(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(http.MethodGet, "/api/v1/formulas?lesson=10&subject=Dog&category=animal", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Lesson   int               `json:"lesson"`
		Formulas []json.RawMessage `json:"formulas"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 10, body.Lesson)
	assert.NotEmpty(t, body.Formulas)

	tests := []struct {
		query   string
		wantErr string
	}{
		{"lesson=x&subject=Dog", CodeValidation},
		{"lesson=10&subject=", CodeValidation},
		{"lesson=10&subject=Dog&category=robot", CodeValidation},
		{"lesson=99&subject=Dog", CodeUnsupportedLesson},
	}
	for _, tt := range tests {
		w := ts.do(http.MethodGet, "/api/v1/formulas?"+tt.query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.query)
		assert.Equal(t, tt.wantErr, decodeError(t, w).Code, tt.query)
	}
}

func TestLevels(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(http.MethodGet, "/api/v1/levels", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Levels []writing.Level `json:"levels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Levels, progression.MaxLevel)

	w = ts.do(http.MethodGet, "/api/v1/levels/wl-05", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/levels/wl-77", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeUnknownLevel, decodeError(t, w).Code)
}

func TestMastery_EmptyPupil(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(http.MethodGet, "/api/v1/pupils/nobody/mastery", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"pupil_id":"nobody"`)
}

func TestAttempts_BadLimit(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(http.MethodGet, "/api/v1/pupils/p/attempts?limit=0", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidation, decodeError(t, w).Code)
}

func TestRateLimit_AssessmentRoutes(t *testing.T) {
	ts := newTestServer(t, Options{RequestsPerSecond: 0.001, Burst: 1})

	body := map[string]any{"pupil_id": "p", "level_id": "wl-01", "text": ""}
	w := ts.do(http.MethodPost, "/api/v1/assessments", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/assessments", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, CodeRateLimited, decodeError(t, w).Code)

	// Read routes are not throttled.
	w = ts.do(http.MethodGet, "/api/v1/levels", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPLimiter_SweepsIdleVisitors(t *testing.T) {
	now := time.Unix(1000, 0)
	l := newIPLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))

	now = now.Add(time.Hour)
	assert.True(t, l.allow("10.0.0.2"))
	l.mu.Lock()
	_, kept := l.visitors["10.0.0.1"]
	l.mu.Unlock()
	assert.False(t, kept)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Options{})
	w := ts.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestServer(t, Options{Health: func(context.Context) error { return errors.New("db closed") }})
	w = down.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "db closed")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Options{}, assessmentReply(80, true))
	ts.do(http.MethodPost, "/api/v1/assessments", curriculumBody)

	w := ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wordsmith_assessments_total")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{&writing.ValidationError{Field: "text", Message: "is required"}, http.StatusBadRequest, CodeValidation},
		{fmt.Errorf("wrap: %w", &lexicon.UnsupportedLessonError{Lesson: 3}), http.StatusBadRequest, CodeUnsupportedLesson},
		{fmt.Errorf("%w: wl-99", writing.ErrUnknownLevel), http.StatusNotFound, CodeUnknownLevel},
		{store.ErrAttemptFinal, http.StatusConflict, CodeAttemptSubmitted},
		{&assessment.ParseError{Raw: []byte("secret"), Err: errors.New("bad")}, http.StatusInternalServerError, CodeAssessmentFailed},
		{&assessment.OracleUnavailableError{Err: errors.New("down")}, http.StatusInternalServerError, CodeAssessmentFailed},
		{errors.New("disk full"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		status, code, msg := classify(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
		assert.Equal(t, tt.wantCode, code, tt.err.Error())
		if status >= http.StatusInternalServerError {
			assert.Equal(t, GenericFailureMessage, msg)
		}
	}
}
