package guidance

import (
	"context"
	"errors"
	"testing"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMatcher struct {
	matches []domain.Match
	err     error
	last    port.MatchQuery
}

func (m *stubMatcher) Match(_ context.Context, q port.MatchQuery) ([]domain.Match, error) {
	m.last = q
	return m.matches, m.err
}

type stubGen struct {
	out       string
	err       error
	lastInput string
}

func (g *stubGen) ModelName() string { return "stub" }
func (g *stubGen) Complete(_ context.Context, _, input string) (string, error) {
	g.lastInput = input
	return g.out, g.err
}
func (g *stubGen) Chat(context.Context, []port.ChatTurn) (string, error) { return g.out, g.err }

type stubPrompts struct{}

func (stubPrompts) Render(id string, _ any) (string, error) { return "instructions " + id, nil }

var sampleMatches = []domain.Match{
	{
		EmbeddingID: 15, EventID: 150, Similarity: 0.380166411399844,
		Content: "Name: DevBoost 스터디\nDescription: 기술 학습 스터디\nPosition: 프론트엔드 리더\n" +
			"Event Role: 프론트엔드 개발 총괄\nEvent Category: 프론트엔드 개발, UI/UX 설계, 문제 해결 능력\n\n문단",
	},
	{
		EmbeddingID: 8, EventID: 80, Similarity: 0.359812817562391,
		Content: "Name: 교내 IT동아리\nDescription: 프로젝트 개발\nPosition: 프론트엔드 팀장\n" +
			"Event Role: 기획 및 프론트엔드 개발\nEvent Category: 기술 구현 능력, 문제 해결 능력, 리더십\n\n문단",
	},
}

func TestAnalyzeParsesFit(t *testing.T) {
	m := &stubMatcher{matches: sampleMatches}
	res, err := NewAnalyzeStrategy(m, Retrieval{Threshold: 0.3, TopK: 3}).
		Generate(context.Background(), port.GuidanceRequest{UserID: "u1", Question: "q"})
	require.NoError(t, err)

	assert.Equal(t, 0.3, m.last.Threshold)
	assert.Equal(t, 3, m.last.TopK)
	assert.Equal(t, domain.StageReturned, res.Stage)

	names := make([]string, len(res.Abilities))
	for i, a := range res.Abilities {
		names[i] = a.Name
		assert.Equal(t, i+1, a.ID)
	}
	assert.Equal(t, []string{"프론트엔드 개발", "UI/UX 설계", "문제 해결 능력", "기술 구현 능력", "리더십"}, names)

	require.Len(t, res.Activities, 2)
	assert.Equal(t, domain.ActivityFit{
		ID: 15, EventID: 150, Activity: "DevBoost 스터디", Fit: 0.38,
		EventsList: []domain.FitEvent{{ID: "15-event", Event: "프론트엔드 개발 총괄"}},
	}, res.Activities[0])
	assert.Equal(t, 0.36, res.Activities[1].Fit)
}

func TestStrategiesPropagateFlowErrors(t *testing.T) {
	flowErr := &port.FlowError{Stage: domain.StageEmbedded, Err: errors.New("provider down")}
	m := &stubMatcher{err: flowErr}
	gen := &stubGen{out: "unused"}
	r := Retrieval{Threshold: 0.3, TopK: 3}

	for _, s := range []port.GuidanceStrategy{
		NewAnalyzeStrategy(m, r),
		NewRecommendStrategy(m, gen, stubPrompts{}, r),
		NewQuestionGuidelineStrategy(m, gen, stubPrompts{}, r),
		NewEditorGuidelineStrategy(m, gen, stubPrompts{}, r),
	} {
		_, err := s.Generate(context.Background(), port.GuidanceRequest{UserID: "u1", Question: "q", Draft: "d"})
		assert.ErrorIs(t, err, flowErr, s.Name())
	}
}

func TestRecommendComposes(t *testing.T) {
	gen := &stubGen{out: "```json\n" + `{"analysis":"문제 해결력","suggested_events":[{"event_id":150,"activity_name":"DevBoost 스터디","event_name":"협업 툴","situation":"s","task":"t","action":"a","result":"r","contribution":90,"comment":"fits"}],"tip":"수치를 쓰세요"}` + "\n```"}
	res, err := NewRecommendStrategy(&stubMatcher{matches: sampleMatches}, gen, stubPrompts{}, Retrieval{TopK: 5}).
		Generate(context.Background(), port.GuidanceRequest{UserID: "u1", Question: "협업 경험은?"})
	require.NoError(t, err)

	assert.False(t, res.Degraded)
	require.NotNil(t, res.Recommendation)
	assert.Equal(t, "문제 해결력", res.Recommendation.Analysis)
	require.Len(t, res.Recommendation.SuggestedEvents, 1)
	assert.Equal(t, int64(150), res.Recommendation.SuggestedEvents[0].EventID)
	assert.Contains(t, gen.lastInput, "event_id=150")
	assert.Contains(t, gen.lastInput, "Question: 협업 경험은?")
}

func TestRecommendDegradesOnBadOutput(t *testing.T) {
	for name, gen := range map[string]*stubGen{
		"not json":      {out: "I think event 150 fits."},
		"unknown field": {out: `{"analysis":"a","suggested_events":[],"tip":"t","score":3}`},
		"foreign event": {out: `{"analysis":"a","suggested_events":[{"event_id":999}],"tip":"t"}`},
		"trailing data": {out: `{"analysis":"a","suggested_events":[],"tip":"t"} {}`},
		"provider":      {err: &port.UpstreamError{Provider: "stub", Op: "complete", StatusCode: 502, Err: errors.New("bad gateway")}},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := NewRecommendStrategy(&stubMatcher{matches: sampleMatches}, gen, stubPrompts{}, Retrieval{TopK: 5}).
				Generate(context.Background(), port.GuidanceRequest{UserID: "u1", Question: "q"})
			require.NoError(t, err)
			assert.True(t, res.Degraded)
			assert.Nil(t, res.Recommendation)
			assert.Equal(t, sampleMatches, res.Matches)
		})
	}
}

func TestDecodeRecommendationParseFailure(t *testing.T) {
	_, err := DecodeRecommendation(`{"analysis": 1}`, nil)
	var pf *port.ParseFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, `{"analysis": 1}`, pf.Raw)
}

func TestGuidelines(t *testing.T) {
	gen := &stubGen{out: "### 1. 관점 설정\n..."}
	m := &stubMatcher{matches: sampleMatches}

	res, err := NewQuestionGuidelineStrategy(m, gen, stubPrompts{}, Retrieval{Threshold: 0.3, TopK: 3}).
		Generate(context.Background(), port.GuidanceRequest{UserID: "u1", Question: "지원 동기는?"})
	require.NoError(t, err)
	assert.Equal(t, "question_guideline", res.Strategy)
	assert.Equal(t, "### 1. 관점 설정\n...", res.Content)
	assert.NotContains(t, gen.lastInput, "Draft:")

	editor := NewEditorGuidelineStrategy(m, gen, stubPrompts{}, Retrieval{Threshold: 0.3, TopK: 3})
	_, err = editor.Generate(context.Background(), port.GuidanceRequest{UserID: "u1", Question: "q"})
	assert.ErrorIs(t, err, port.ErrValidation)

	res, err = editor.Generate(context.Background(), port.GuidanceRequest{UserID: "u1", Question: "q", Draft: "제 초안"})
	require.NoError(t, err)
	assert.Contains(t, gen.lastInput, "Draft:\n제 초안")
	assert.False(t, res.Degraded)

	gen.out = "  "
	res, err = editor.Generate(context.Background(), port.GuidanceRequest{UserID: "u1", Question: "q", Draft: "d"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
}
