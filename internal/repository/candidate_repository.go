package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/interview-worker/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrInterviewNotFound  = errors.New("interview not found")
	ErrInvalidInterviewID = errors.New("invalid interview id")
)

// CandidateRecordStore reads and updates one interview of a candidate,
// matched by email and interview id.
type CandidateRecordStore interface {
	FindInterviewResume(ctx context.Context, email, interviewID string) ([]byte, error)
	FindInterviewQuestions(ctx context.Context, email, interviewID string) ([]model.QuestionItem, error)
	AppendQuestions(ctx context.Context, email, interviewID string, items []model.QuestionItem) (int64, error)
	SetFeedback(ctx context.Context, email, interviewID, feedback string, rating float64) (int64, error)
}

type CandidateRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewCandidateRepository(collection *mongo.Collection, timeout time.Duration) *CandidateRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CandidateRepository{collection: collection, timeout: timeout}
}

func (r *CandidateRepository) FindInterviewResume(ctx context.Context, email, interviewID string) ([]byte, error) {
	interview, err := r.findInterview(ctx, email, interviewID, bson.M{"interviews.$": 1})
	if err != nil {
		return nil, err
	}
	return interview.ResumeData, nil
}

func (r *CandidateRepository) FindInterviewQuestions(ctx context.Context, email, interviewID string) ([]model.QuestionItem, error) {
	interview, err := r.findInterview(ctx, email, interviewID, bson.M{"interviews.$": 1})
	if err != nil {
		return nil, err
	}
	return interview.Questions, nil
}

// AppendQuestions pushes the batch onto the interview and marks its résumé
// as processed in one update. It returns the modified document count.
func (r *CandidateRepository) AppendQuestions(ctx context.Context, email, interviewID string, items []model.QuestionItem) (int64, error) {
	update := bson.M{
		"$push": bson.M{"interviews.$.questions": bson.M{"$each": items}},
		"$set":  bson.M{"interviews.$.isResumeProcessed": true},
	}
	return r.updateInterview(ctx, email, interviewID, update)
}

func (r *CandidateRepository) SetFeedback(ctx context.Context, email, interviewID, feedback string, rating float64) (int64, error) {
	update := bson.M{
		"$set": bson.M{
			"interviews.$.feedback": feedback,
			"interviews.$.rating":   rating,
		},
	}
	return r.updateInterview(ctx, email, interviewID, update)
}

func (r *CandidateRepository) findInterview(ctx context.Context, email, interviewID string, projection bson.M) (*model.Interview, error) {
	filter, err := interviewFilter(email, interviewID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var candidate model.Candidate
	err = r.collection.FindOne(ctx, filter, options.FindOne().SetProjection(projection)).Decode(&candidate)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInterviewNotFound
		}
		return nil, fmt.Errorf("find interview: %w", err)
	}
	if len(candidate.Interviews) == 0 {
		return nil, ErrInterviewNotFound
	}
	return &candidate.Interviews[0], nil
}

func (r *CandidateRepository) updateInterview(ctx context.Context, email, interviewID string, update bson.M) (int64, error) {
	filter, err := interviewFilter(email, interviewID)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("update interview: %w", err)
	}
	return result.ModifiedCount, nil
}

func interviewFilter(email, interviewID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(interviewID)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidInterviewID, interviewID, err)
	}
	return bson.M{"email": email, "interviews._id": oid}, nil
}
