package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Candidate is a document of the users collection. Only the fields the
// worker reads are mapped; the rest of the document is left untouched.
type Candidate struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Interviews []Interview        `bson:"interviews" json:"interviews"`
}

type Interview struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	Role              string             `bson:"role" json:"role"`
	ResumeName        string             `bson:"resumeName,omitempty" json:"resume_name"`
	ResumeData        []byte             `bson:"resumeData,omitempty" json:"-"`
	IsResumeProcessed bool               `bson:"isResumeProcessed" json:"is_resume_processed"`
	Time              time.Time          `bson:"time,omitempty" json:"time"`
	Questions         []QuestionItem     `bson:"questions" json:"questions"`
	Feedback          string             `bson:"feedback" json:"feedback"`
	Rating            float64            `bson:"rating" json:"rating"`
}

type QuestionItem struct {
	Question       string `bson:"question" json:"question"`
	UserAnswer     string `bson:"userAnswer" json:"user_answer"`
	ExpectedAnswer string `bson:"expectedAnswer" json:"expected_answer"`
}

// NewQuestionItems pairs questions with their expected answers. Extra
// entries on either side are dropped, matching how the batch is persisted.
func NewQuestionItems(questions, expectedAnswers []string) []QuestionItem {
	n := min(len(questions), len(expectedAnswers))
	items := make([]QuestionItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, QuestionItem{
			Question:       questions[i],
			UserAnswer:     "",
			ExpectedAnswer: expectedAnswers[i],
		})
	}
	return items
}

// Split projects the items into three position-aligned sequences.
func Split(items []QuestionItem) (questions, given, expected []string) {
	questions = make([]string, len(items))
	given = make([]string, len(items))
	expected = make([]string, len(items))
	for i, item := range items {
		questions[i] = item.Question
		given[i] = item.UserAnswer
		expected[i] = item.ExpectedAnswer
	}
	return questions, given, expected
}
