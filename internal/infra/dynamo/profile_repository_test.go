package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"lectio-quiz-service/internal/domain"
)

type mockProfileAPI struct {
	*testing.T
	getOutput *dynamodb.GetItemOutput
	putError  error
	lastPut   *dynamodb.PutItemInput
}

func (m *mockProfileAPI) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if params.TableName == nil || *params.TableName == "" {
		m.Error("got empty table name")
	}
	if m.getOutput != nil {
		return m.getOutput, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockProfileAPI) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.lastPut = params
	if params.ConditionExpression == nil {
		m.Error("expected a condition expression on every write")
	}
	return &dynamodb.PutItemOutput{}, m.putError
}

func (m *mockProfileAPI) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if params.IndexName == nil || *params.IndexName != usernameIndex {
		m.Errorf("expected query against %s", usernameIndex)
	}
	return &dynamodb.QueryOutput{}, nil
}

func TestFindByAccountIDNotFound(t *testing.T) {
	repo := NewProfileRepository(&mockProfileAPI{T: t}, "profiles")

	_, err := repo.FindByAccountID(context.Background(), "acc-1")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindByAccountIDRoundTrip(t *testing.T) {
	now := time.Date(2025, 9, 26, 10, 0, 0, 0, domain.ReferenceZone)
	stored := domain.NewProfile("acc-1", "ana", 30, now)
	stored = stored.WithAnswer(domain.AnswerRecord{DailyQuestionsID: "set-1", QuestionID: 0, AnsweredAt: now})
	stored.Version = 4

	item, err := attributevalue.MarshalMap(fromDomain(stored))
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	repo := NewProfileRepository(&mockProfileAPI{T: t, getOutput: &dynamodb.GetItemOutput{Item: item}}, "profiles")

	got, err := repo.FindByAccountID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Points != 30 || got.Username != "ana" || got.Version != 4 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	if !got.HasAnswered("set-1", 0) {
		t.Fatalf("expected answer history preserved")
	}
}

func TestSaveMapsConditionFailureToConflict(t *testing.T) {
	api := &mockProfileAPI{T: t, putError: &types.ConditionalCheckFailedException{}}
	repo := NewProfileRepository(api, "profiles")

	now := time.Date(2025, 9, 26, 10, 0, 0, 0, domain.ReferenceZone)
	_, err := repo.Save(context.Background(), domain.NewProfile("acc-1", "ana", 0, now))
	if !errors.Is(err, domain.ErrProfileConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSaveBumpsVersion(t *testing.T) {
	api := &mockProfileAPI{T: t}
	repo := NewProfileRepository(api, "profiles")

	now := time.Date(2025, 9, 26, 10, 0, 0, 0, domain.ReferenceZone)
	profile := domain.NewProfile("acc-1", "ana", 0, now)
	profile.Version = 2

	saved, err := repo.Save(context.Background(), profile)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Version != 3 {
		t.Fatalf("expected version bump to 3, got %d", saved.Version)
	}

	var written profileItem
	if err := attributevalue.UnmarshalMap(api.lastPut.Item, &written); err != nil {
		t.Fatalf("unmarshal written item: %v", err)
	}
	if written.Version != 3 {
		t.Fatalf("expected written version 3, got %d", written.Version)
	}
}
