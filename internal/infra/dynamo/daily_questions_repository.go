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

// DailyQuestionsAPI is the subset of the DynamoDB client the daily
// questions repository uses.
type DailyQuestionsAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// dateIndex is the GSI serving by-date lookups.
const dateIndex = "DateIndex"

type dailyQuestionsItem struct {
	ID        string         `dynamodbav:"id"`
	Date      string         `dynamodbav:"date"`
	Questions []questionItem `dynamodbav:"questions"`
	CreatedAt time.Time      `dynamodbav:"created_at"`
}

type questionItem struct {
	ID                 int      `dynamodbav:"id"`
	Text               string   `dynamodbav:"text"`
	Difficulty         string   `dynamodbav:"difficulty"`
	Points             int      `dynamodbav:"points"`
	Options            []string `dynamodbav:"options"`
	CorrectOptionIndex int      `dynamodbav:"correct_option_index"`
	Answer             string   `dynamodbav:"answer"`
}

// DailyQuestionsRepository stores question sets keyed by id, with a GSI
// on the calendar date.
type DailyQuestionsRepository struct {
	client    DailyQuestionsAPI
	tableName string
}

func NewDailyQuestionsRepository(client DailyQuestionsAPI, tableName string) *DailyQuestionsRepository {
	return &DailyQuestionsRepository{client: client, tableName: tableName}
}

func (r *DailyQuestionsRepository) FindByID(ctx context.Context, id string) (domain.DailyQuestions, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("get daily questions: %w", err)
	}
	if len(out.Item) == 0 {
		return domain.DailyQuestions{}, domain.ErrDailyQuestionsNotFound
	}

	var item dailyQuestionsItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("unmarshal daily questions: %w", err)
	}
	return item.toDomain()
}

func (r *DailyQuestionsRepository) FindByDate(ctx context.Context, date time.Time) (domain.DailyQuestions, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("date").Equal(expression.Value(dayString(date)))).
		Build()
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("build date query: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(dateIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("query daily questions: %w", err)
	}
	if len(out.Items) == 0 {
		return domain.DailyQuestions{}, domain.ErrDailyQuestionsNotFound
	}

	var item dailyQuestionsItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("unmarshal daily questions: %w", err)
	}
	return item.toDomain()
}

// Create de-duplicates by date: the existing set wins. The queue
// consumer producing daily content is a single writer, so the
// check-then-put gap is acceptable here.
func (r *DailyQuestionsRepository) Create(ctx context.Context, set domain.DailyQuestions) (domain.DailyQuestions, error) {
	existing, err := r.FindByDate(ctx, set.Date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrDailyQuestionsNotFound) {
		return domain.DailyQuestions{}, err
	}

	item, err := attributevalue.MarshalMap(fromDomainSet(set))
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("marshal daily questions: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("id"))).
		Build()
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("build create condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("put daily questions: %w", err)
	}
	return set, nil
}

func (i dailyQuestionsItem) toDomain() (domain.DailyQuestions, error) {
	date, err := time.ParseInLocation("2006-01-02", i.Date, domain.ReferenceZone)
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("parse date %q: %w", i.Date, err)
	}
	questions := make([]domain.Question, 0, len(i.Questions))
	for _, q := range i.Questions {
		questions = append(questions, domain.Question{
			ID:                 q.ID,
			Text:               q.Text,
			Difficulty:         domain.Difficulty(q.Difficulty),
			Points:             q.Points,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			Answer:             q.Answer,
		})
	}
	return domain.DailyQuestions{
		ID:        i.ID,
		Date:      date,
		Questions: questions,
		CreatedAt: i.CreatedAt,
	}, nil
}

func fromDomainSet(set domain.DailyQuestions) dailyQuestionsItem {
	questions := make([]questionItem, 0, len(set.Questions))
	for _, q := range set.Questions {
		questions = append(questions, questionItem{
			ID:                 q.ID,
			Text:               q.Text,
			Difficulty:         string(q.Difficulty),
			Points:             q.Points,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			Answer:             q.Answer,
		})
	}
	return dailyQuestionsItem{
		ID:        set.ID,
		Date:      dayString(set.Date),
		Questions: questions,
		CreatedAt: set.CreatedAt,
	}
}

func dayString(date time.Time) string {
	return domain.DayOf(date).Format("2006-01-02")
}
