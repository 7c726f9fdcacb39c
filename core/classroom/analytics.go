package classroom

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/STPREETHI/learning-portal/core/user"
)

const (
	unknownWardName   = "Unknown Ward"
	hardestQuestionsN = 3
)

type (
	LeaderboardEntry struct {
		Rank     int     `json:"rank"`
		WardID   string  `json:"wardId"`
		WardName string  `json:"wardName"`
		Score    float64 `json:"score"`
		Attempt  int     `json:"attempt"`
	}

	QuestionStat struct {
		Index          int    `json:"index"`
		Question       string `json:"question"`
		IncorrectCount int    `json:"incorrectCount"`
	}

	QuizAnalytics struct {
		QuizID            string         `json:"quizId"`
		EnrolledCount     int            `json:"enrolledCount"`
		ParticipantCount  int            `json:"participantCount"`
		ParticipationRate float64        `json:"participationRate"`
		AverageScore      float64        `json:"averageScore"`
		SubmissionCount   int            `json:"submissionCount"`
		HardestQuestions  []QuestionStat `json:"hardestQuestions"`
	}
)

// Leaderboard ranks every submission of the quiz by score, highest first.
// Ties keep submission order.
func (svc *service) Leaderboard(ctx context.Context, caller user.User, classroomID, quizID string) ([]LeaderboardEntry, error) {
	c, err := svc.Get(ctx, caller, classroomID)
	if err != nil {
		return nil, err
	}
	quiz := c.quiz(quizID)
	if quiz == nil {
		return nil, ErrQuizNotFound
	}

	subs := make([]WardSubmission, len(quiz.Submissions))
	copy(subs, quiz.Submissions)
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Score > subs[j].Score })

	names := make(map[string]string)
	if len(subs) > 0 {
		ids := make([]string, 0, len(subs))
		for _, sub := range subs {
			ids = append(ids, sub.WardID)
		}
		wards, err := svc.usrSvc.QueryWards(ctx, ids...)
		if err != nil {
			return nil, err
		}
		for _, w := range wards {
			names[w.ID] = w.Name
		}
	}

	entries := make([]LeaderboardEntry, 0, len(subs))
	for i, sub := range subs {
		name, ok := names[sub.WardID]
		if !ok {
			name = unknownWardName
		}
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			WardID:   sub.WardID,
			WardName: name,
			Score:    sub.Score,
			Attempt:  sub.Attempt,
		})
	}
	return entries, nil
}

func (svc *service) QuizAnalytics(ctx context.Context, tutor user.User, classroomID, quizID string) (QuizAnalytics, error) {
	c, err := svc.loadOwned(ctx, tutor, classroomID)
	if err != nil {
		return QuizAnalytics{}, err
	}
	quiz := c.quiz(quizID)
	if quiz == nil {
		return QuizAnalytics{}, ErrQuizNotFound
	}
	return computeAnalytics(c, *quiz), nil
}

func computeAnalytics(c Classroom, quiz Quiz) QuizAnalytics {
	qa := QuizAnalytics{
		QuizID:           quiz.ID,
		EnrolledCount:    len(c.WardIDs),
		SubmissionCount:  len(quiz.Submissions),
		HardestQuestions: []QuestionStat{},
	}

	participants := make(map[string]struct{})
	total := decimal.Zero
	for _, sub := range quiz.Submissions {
		participants[sub.WardID] = struct{}{}
		total = total.Add(decimal.NewFromFloat(sub.Score))
	}
	qa.ParticipantCount = len(participants)

	hundred := decimal.NewFromInt(100)
	if qa.EnrolledCount > 0 {
		qa.ParticipationRate, _ = decimal.NewFromInt(int64(qa.ParticipantCount)).
			Div(decimal.NewFromInt(int64(qa.EnrolledCount))).
			Mul(hundred).
			Round(2).
			Float64()
	}
	if qa.SubmissionCount > 0 {
		qa.AverageScore, _ = total.Div(decimal.NewFromInt(int64(qa.SubmissionCount))).Round(2).Float64()
	} else {
		return qa
	}

	stats := make([]QuestionStat, len(quiz.Questions))
	for i, q := range quiz.Questions {
		stats[i] = QuestionStat{Index: i, Question: q.Question}
		for _, sub := range quiz.Submissions {
			if i >= len(sub.Answers) || sub.Answers[i] != q.CorrectAnswer {
				stats[i].IncorrectCount++
			}
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].IncorrectCount > stats[j].IncorrectCount })
	if len(stats) > hardestQuestionsN {
		stats = stats[:hardestQuestionsN]
	}
	qa.HardestQuestions = stats
	return qa
}
