package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"lectio-quiz-service/internal/domain"
)

// ProfileAPI is the subset of the DynamoDB client the profile
// repository uses; the indirection keeps the repository unit-testable.
type ProfileAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// usernameIndex is the GSI serving username lookups.
const usernameIndex = "UsernameIndex"

// profileItem is the table representation of a profile.
type profileItem struct {
	AccountID        string             `dynamodbav:"account_id"`
	Username         string             `dynamodbav:"username"`
	Points           int                `dynamodbav:"points"`
	Shields          int                `dynamodbav:"shields"`
	StreakCount      int                `dynamodbav:"streak_count"`
	LastActivityDate time.Time          `dynamodbav:"last_activity_date"`
	CreatedAt        time.Time          `dynamodbav:"created_at"`
	LastAnswers      []answerRecordItem `dynamodbav:"last_answers"`
	Version          int64              `dynamodbav:"version"`
}

type answerRecordItem struct {
	DailyQuestionsID   string    `dynamodbav:"daily_questions_id"`
	QuestionID         int       `dynamodbav:"question_id"`
	AnsweredAt         time.Time `dynamodbav:"answered_at"`
	UserAnswerIndex    int       `dynamodbav:"user_answer_index"`
	CorrectAnswerText  string    `dynamodbav:"correct_answer_text"`
	CorrectOptionIndex int       `dynamodbav:"correct_option_index"`
}

// ProfileRepository persists profiles in a DynamoDB table keyed by
// account_id, with writes conditioned on a version attribute.
type ProfileRepository struct {
	client    ProfileAPI
	tableName string
}

func NewProfileRepository(client ProfileAPI, tableName string) *ProfileRepository {
	return &ProfileRepository{client: client, tableName: tableName}
}

func (r *ProfileRepository) FindByAccountID(ctx context.Context, accountID string) (domain.Profile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"account_id": &types.AttributeValueMemberS{Value: accountID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if len(out.Item) == 0 {
		return domain.Profile{}, domain.ErrProfileNotFound
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return domain.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return item.toDomain(), nil
}

func (r *ProfileRepository) FindByUsername(ctx context.Context, username string) (domain.Profile, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("username").Equal(expression.Value(username))).
		Build()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("build username query: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(usernameIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("query username: %w", err)
	}
	if len(out.Items) == 0 {
		return domain.Profile{}, domain.ErrProfileNotFound
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return domain.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return item.toDomain(), nil
}

// Create writes the initial item; a second signup for the same account
// loses on the attribute_not_exists condition. Username uniqueness is
// checked through the GSI before the write, which is race-prone only
// across simultaneous signups picking the same name.
func (r *ProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	if _, err := r.FindByUsername(ctx, profile.Username); err == nil {
		return domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}

	profile.Version = 1
	item, err := attributevalue.MarshalMap(fromDomain(profile))
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("account_id"))).
		Build()
	if err != nil {
		return fmt.Errorf("build create condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return domain.ErrProfileConflict
	}
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// Save replaces the item only when the stored version still matches the
// caller's snapshot, so concurrent submissions cannot overwrite each
// other's points or shields.
func (r *ProfileRepository) Save(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	currentVersion := profile.Version
	profile.Version = currentVersion + 1

	item, err := attributevalue.MarshalMap(fromDomain(profile))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("marshal profile: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("version").Equal(expression.Value(currentVersion))).
		Build()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("build save condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return domain.Profile{}, domain.ErrProfileConflict
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("put profile: %w", err)
	}
	return profile, nil
}

func isConditionalCheckFailed(err error) bool {
	var conditionFailed *types.ConditionalCheckFailedException
	return errors.As(err, &conditionFailed)
}

func (i profileItem) toDomain() domain.Profile {
	answers := make([]domain.AnswerRecord, 0, len(i.LastAnswers))
	for _, a := range i.LastAnswers {
		answers = append(answers, domain.AnswerRecord(a))
	}
	return domain.Profile{
		AccountID:        i.AccountID,
		Username:         i.Username,
		Points:           i.Points,
		Shields:          i.Shields,
		StreakCount:      i.StreakCount,
		LastActivityDate: i.LastActivityDate,
		CreatedAt:        i.CreatedAt,
		LastAnswers:      answers,
		Version:          i.Version,
	}
}

func fromDomain(p domain.Profile) profileItem {
	answers := make([]answerRecordItem, 0, len(p.LastAnswers))
	for _, a := range p.LastAnswers {
		answers = append(answers, answerRecordItem(a))
	}
	return profileItem{
		AccountID:        p.AccountID,
		Username:         p.Username,
		Points:           p.Points,
		Shields:          p.Shields,
		StreakCount:      p.StreakCount,
		LastActivityDate: p.LastActivityDate,
		CreatedAt:        p.CreatedAt,
		LastAnswers:      answers,
		Version:          p.Version,
	}
}
