package guidance

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// AnalyzeStrategy lists the abilities and activities that fit a question.
// It reads them from the stored event headers and needs no completion.
type AnalyzeStrategy struct {
	matcher   port.Matcher
	retrieval Retrieval
}

func NewAnalyzeStrategy(matcher port.Matcher, r Retrieval) *AnalyzeStrategy {
	return &AnalyzeStrategy{matcher: matcher, retrieval: r}
}

func (s *AnalyzeStrategy) Name() string { return "analyze" }
func (s *AnalyzeStrategy) Description() string {
	return "Abilities and activities fitting the question"
}

func (s *AnalyzeStrategy) Generate(ctx context.Context, req port.GuidanceRequest) (*port.GuidanceResult, error) {
	matches, err := retrieve(ctx, s.matcher, s.retrieval, req)
	if err != nil {
		return nil, err
	}
	abilities, activities := ParseFit(matches)
	return &port.GuidanceResult{
		Strategy:   s.Name(),
		Stage:      domain.StageReturned,
		Abilities:  abilities,
		Activities: activities,
		Matches:    matches,
	}, nil
}

// ParseFit reads the Name, Event Role and Event Category header lines of each
// match. Abilities are the distinct categories in first-seen order.
func ParseFit(matches []domain.Match) ([]domain.Ability, []domain.ActivityFit) {
	abilities := []domain.Ability{}
	seen := map[string]bool{}
	activities := make([]domain.ActivityFit, 0, len(matches))

	for _, m := range matches {
		var name, role string
		for _, line := range strings.Split(m.Content, "\n") {
			switch {
			case strings.HasPrefix(line, "Name:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			case strings.HasPrefix(line, "Event Role:"):
				role = strings.TrimSpace(strings.TrimPrefix(line, "Event Role:"))
			case strings.HasPrefix(line, "Event Category:"):
				for _, c := range strings.Split(strings.TrimPrefix(line, "Event Category:"), ",") {
					c = strings.TrimSpace(c)
					if c == "" || seen[c] {
						continue
					}
					seen[c] = true
					abilities = append(abilities, domain.Ability{
						ID:          len(abilities) + 1,
						Name:        c,
						Description: fmt.Sprintf("%s 관련 경험과 문제 해결에 대한 적용 능력을 보여줍니다.", c),
					})
				}
			}
		}
		activities = append(activities, domain.ActivityFit{
			ID:         m.EmbeddingID,
			EventID:    m.EventID,
			Activity:   name,
			Fit:        math.Round(m.Similarity*1000) / 1000,
			EventsList: []domain.FitEvent{{ID: fmt.Sprintf("%d-event", m.EmbeddingID), Event: role}},
		})
	}
	return abilities, activities
}
