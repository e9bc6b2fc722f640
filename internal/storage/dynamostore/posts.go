package dynamostore

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yndnr/postvote-go/internal/core/domain"
)

// PostStore implements the post repository on the posts table.
type PostStore struct {
	api   API
	table string
}

// NewPostStore creates a post store on table.
func NewPostStore(api API, table string) *PostStore {
	return &PostStore{api: api, table: table}
}

// CreatePost stores a new post.
func (s *PostStore) CreatePost(ctx context.Context, post *domain.Post) error {
	item, err := marshalPost(post)
	if err != nil {
		return err
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if err != nil {
		if _, ok := conditionFailed(err); ok {
			return domain.ErrPostConflict
		}
		return storageError(err, s.table)
	}
	return nil
}

// GetPost retrieves a post with a strongly consistent read.
func (s *PostStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageError(err, s.table)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrPostNotFound
	}

	var post domain.Post
	if err := attributevalue.UnmarshalMap(out.Item, &post); err != nil {
		return nil, domain.ErrStorageError.WithDetails("corrupt post record").WithCause(err)
	}
	if post.Upvoters == nil {
		post.Upvoters = []string{}
	}
	if post.Downvoters == nil {
		post.Downvoters = []string{}
	}
	return &post, nil
}

// UpdatePost replaces a post if the stored version equals expectedVersion.
func (s *PostStore) UpdatePost(ctx context.Context, post *domain.Post, expectedVersion uint64) error {
	next := post.Clone()
	next.Version = expectedVersion + 1
	item, err := marshalPost(next)
	if err != nil {
		return err
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      item,
		ConditionExpression:       aws.String("#version = :version"),
		ExpressionAttributeNames:  map[string]string{"#version": "version"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":version": &types.AttributeValueMemberN{Value: strconv.FormatUint(expectedVersion, 10)}},

		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if old, ok := conditionFailed(err); ok {
			if len(old) == 0 {
				return domain.ErrPostNotFound
			}
			return domain.ErrPostVersionConflict
		}
		return storageError(err, s.table)
	}

	post.Version = next.Version
	return nil
}

// marshalPost stores voter sets as lists so that empty sets survive;
// DynamoDB string sets cannot be empty.
func marshalPost(post *domain.Post) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(post)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return item, nil
}
