package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscare/support-chat/backend/internal/analysis/emotion"
	"github.com/campuscare/support-chat/backend/internal/model/chat"
	"github.com/campuscare/support-chat/backend/pkg/logging"
)

type mockDynamo struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (m *mockDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoStore_WriteChatPersistsRecord(t *testing.T) {
	mock := &mockDynamo{}
	s := NewDynamoStore(mock, "chats", "flagged_messages", logging.Nop())

	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	err := s.WriteChat(context.Background(), chat.Message{
		UserID:    "student-1",
		Message:   "I feel so anxious about my exam",
		Reply:     "That sounds hard.",
		Emotion:   emotion.Anxious,
		Timestamp: ts,
	})
	require.NoError(t, err)
	require.Len(t, mock.inputs, 1)

	in := mock.inputs[0]
	assert.Equal(t, "chats", aws.ToString(in.TableName))
	assert.Equal(t, "attribute_not_exists(id)", aws.ToString(in.ConditionExpression))

	var stored chat.Message
	require.NoError(t, attributevalue.UnmarshalMap(in.Item, &stored))
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "student-1", stored.UserID)
	assert.Equal(t, "That sounds hard.", stored.Reply)
	assert.Equal(t, emotion.Anxious, stored.Emotion)
	assert.True(t, stored.Timestamp.Equal(ts))
}

func TestDynamoStore_WriteFlaggedUsesFlaggedTable(t *testing.T) {
	mock := &mockDynamo{}
	s := NewDynamoStore(mock, "chats", "flagged_messages", logging.Nop())

	err := s.WriteFlagged(context.Background(), chat.FlaggedMessage{
		ID:      "fixed-id",
		UserID:  "student-2",
		Message: "I want to kill myself",
		Reason:  "self-harm or crisis keywords detected",
	})
	require.NoError(t, err)
	require.Len(t, mock.inputs, 1)
	assert.Equal(t, "flagged_messages", aws.ToString(mock.inputs[0].TableName))

	var stored chat.FlaggedMessage
	require.NoError(t, attributevalue.UnmarshalMap(mock.inputs[0].Item, &stored))
	assert.Equal(t, "fixed-id", stored.ID)
	assert.Equal(t, "self-harm or crisis keywords detected", stored.Reason)
	assert.False(t, stored.Timestamp.IsZero(), "timestamp should default to now")
}

func TestDynamoStore_PropagatesPutError(t *testing.T) {
	boom := errors.New("throughput exceeded")
	s := NewDynamoStore(&mockDynamo{err: boom}, "chats", "flagged_messages", logging.Nop())

	err := s.WriteChat(context.Background(), chat.Message{UserID: "u", Message: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestDynamoStore_RequiresUser(t *testing.T) {
	mock := &mockDynamo{}
	s := NewDynamoStore(mock, "chats", "flagged_messages", nil)

	assert.ErrorIs(t, s.WriteChat(context.Background(), chat.Message{}), ErrUserRequired)
	assert.ErrorIs(t, s.WriteFlagged(context.Background(), chat.FlaggedMessage{}), ErrUserRequired)
	assert.Empty(t, mock.inputs)
}

func TestNewDynamoStorePanicsOnBadInput(t *testing.T) {
	assert.Panics(t, func() { NewDynamoStore(nil, "chats", "flagged", nil) })
	assert.Panics(t, func() { NewDynamoStore(&mockDynamo{}, "", "flagged", nil) })
}
