package fyp

import (
	"fmt"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/model"
)

// ScoreSheet collects one score per rubric criterion.
type ScoreSheet struct {
	rubric model.Rubric
	scores []model.Score
}

func NewScoreSheet(r model.Rubric) *ScoreSheet {
	scores := make([]model.Score, len(r.Criteria))
	for i, c := range r.Criteria {
		scores[i] = model.Score{Name: c.Name, Max: c.Max}
	}
	return &ScoreSheet{rubric: r, scores: scores}
}

// Set records score for the named criterion; it must lie in [0, max].
func (s *ScoreSheet) Set(name string, score float64) error {
	for i := range s.scores {
		if s.scores[i].Name != name {
			continue
		}
		if score < 0 || score > s.scores[i].Max {
			return fmt.Errorf("%s: score must be between 0 and %g", name, s.scores[i].Max)
		}
		s.scores[i].Score = score
		return nil
	}
	return fmt.Errorf("%s: not a criterion of rubric %q", name, s.rubric.Name)
}

func (s *ScoreSheet) Scores() []model.Score {
	out := make([]model.Score, len(s.scores))
	copy(out, s.scores)
	return out
}

func (s *ScoreSheet) Total() float64 {
	var total float64
	for _, sc := range s.scores {
		total += sc.Score
	}
	return total
}

// Max is the rubric's stated maximum, or the sum of criterion maxima when
// the rubric does not give one.
func (s *ScoreSheet) Max() float64 {
	if s.rubric.MaxScore > 0 {
		return s.rubric.MaxScore
	}
	var max float64
	for _, sc := range s.scores {
		max += sc.Max
	}
	return max
}

func (s *ScoreSheet) Evaluation(projectID int, comments string) api.EvaluationInput {
	return api.EvaluationInput{
		Project:    projectID,
		Rubric:     s.rubric.ID,
		Scores:     s.Scores(),
		TotalScore: s.Total(),
		Comments:   comments,
	}
}

// ScoreOf finds the score an evaluation gave for criterion, if any.
func ScoreOf(e model.Evaluation, criterion string) (float64, bool) {
	for _, sc := range e.Scores {
		if sc.Name == criterion {
			return sc.Score, true
		}
	}
	return 0, false
}
