package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fadilmartias/interview-worker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testEmail = "ada@example.com"

func candidateDoc(interviewID primitive.ObjectID, interview bson.D) bson.D {
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "email", Value: testEmail},
		{Key: "interviews", Value: bson.A{append(bson.D{{Key: "_id", Value: interviewID}}, interview...)}},
	}
}

func TestCandidateRepository_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	interviewID := primitive.NewObjectID()

	mt.Run("resume found", func(mt *mtest.T) {
		repo := NewCandidateRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "aip.users", mtest.FirstBatch,
			candidateDoc(interviewID, bson.D{{Key: "resumeData", Value: []byte("%PDF-1.7")}}),
		))

		data, err := repo.FindInterviewResume(ctx, testEmail, interviewID.Hex())
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7"), data)

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "find", started.CommandName)
		assert.Equal(t, testEmail, started.Command.Lookup("filter", "email").StringValue())
		assert.Equal(t, interviewID, started.Command.Lookup("filter", "interviews._id").ObjectID())
	})

	mt.Run("questions found", func(mt *mtest.T) {
		repo := NewCandidateRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "aip.users", mtest.FirstBatch,
			candidateDoc(interviewID, bson.D{{Key: "questions", Value: bson.A{
				bson.D{{Key: "question", Value: "Q1"}, {Key: "userAnswer", Value: "U1"}, {Key: "expectedAnswer", Value: "E1"}},
				bson.D{{Key: "question", Value: "Q2"}, {Key: "userAnswer", Value: ""}, {Key: "expectedAnswer", Value: "E2"}},
			}}}),
		))

		items, err := repo.FindInterviewQuestions(ctx, testEmail, interviewID.Hex())
		require.NoError(t, err)
		assert.Equal(t, []model.QuestionItem{
			{Question: "Q1", UserAnswer: "U1", ExpectedAnswer: "E1"},
			{Question: "Q2", UserAnswer: "", ExpectedAnswer: "E2"},
		}, items)
	})

	mt.Run("no document", func(mt *mtest.T) {
		repo := NewCandidateRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "aip.users", mtest.FirstBatch))

		_, err := repo.FindInterviewResume(ctx, testEmail, interviewID.Hex())
		assert.ErrorIs(t, err, ErrInterviewNotFound)
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		repo := NewCandidateRepository(mt.Coll, time.Second)

		_, err := repo.FindInterviewQuestions(ctx, testEmail, "not-an-object-id")
		assert.ErrorIs(t, err, ErrInvalidInterviewID)
	})
}

func TestCandidateRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	interviewID := primitive.NewObjectID()

	mt.Run("append questions", func(mt *mtest.T) {
		repo := NewCandidateRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		items := model.NewQuestionItems([]string{"Q1", "Q2"}, []string{"A1", "A2"})
		modified, err := repo.AppendQuestions(ctx, testEmail, interviewID.Hex(), items)
		require.NoError(t, err)
		assert.Equal(t, int64(1), modified)

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "update", started.CommandName)
		assert.Equal(t, testEmail, started.Command.Lookup("updates", "0", "q", "email").StringValue())
		assert.True(t, started.Command.Lookup("updates", "0", "u", "$set", "interviews.$.isResumeProcessed").Boolean())
		each := []string{"updates", "0", "u", "$push", "interviews.$.questions", "$each"}
		assert.Equal(t, "Q1", started.Command.Lookup(append(each, "0", "question")...).StringValue())
		assert.Equal(t, "A2", started.Command.Lookup(append(each, "1", "expectedAnswer")...).StringValue())
	})

	mt.Run("set feedback not modified", func(mt *mtest.T) {
		repo := NewCandidateRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		modified, err := repo.SetFeedback(ctx, testEmail, interviewID.Hex(), "Solid answers.", 4.2)
		require.NoError(t, err)
		assert.Zero(t, modified)
	})

	mt.Run("command error", func(mt *mtest.T) {
		repo := NewCandidateRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad update",
		}))

		_, err := repo.SetFeedback(ctx, testEmail, interviewID.Hex(), "x", 1)
		assert.Error(t, err)
	})
}
