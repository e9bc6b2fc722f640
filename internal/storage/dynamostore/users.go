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

// UserStore implements the user repository on the users table.
type UserStore struct {
	api   API
	table string
}

// NewUserStore creates a user store on table.
func NewUserStore(api API, table string) *UserStore {
	return &UserStore{api: api, table: table}
}

// idPointerPrefix keys the item that maps a user id to its email. Real
// emails always contain '@', so pointer keys never collide with them.
const idPointerPrefix = "id#"

// CreateUser stores a user unless the email is taken. The user item and its
// id pointer are written in one transaction so GetUserByID can resolve the
// id with a consistent read as soon as CreateUser returns.
func (s *UserStore) CreateUser(ctx context.Context, user *domain.User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	pointer := map[string]types.AttributeValue{
		"email":      &types.AttributeValueMemberS{Value: idPointerPrefix + user.ID},
		"user_email": &types.AttributeValueMemberS{Value: user.Email},
	}
	put := func(it map[string]types.AttributeValue) types.TransactWriteItem {
		return types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(s.table),
			Item:                     it,
			ConditionExpression:      aws.String("attribute_not_exists(#email)"),
			ExpressionAttributeNames: map[string]string{"#email": "email"},
		}}
	}

	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{put(item), put(pointer)},
	})
	if err != nil {
		if transactionConditionFailed(err) {
			return domain.ErrUserAlreadyExists
		}
		return storageError(err, s.table)
	}
	return nil
}

// GetUserByEmail retrieves a user with a strongly consistent read.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]types.AttributeValue{"email": &types.AttributeValueMemberS{Value: email}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageError(err, s.table)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrUserNotFound
	}

	var user domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, domain.ErrStorageError.WithDetails("corrupt user record").WithCause(err)
	}
	return &user, nil
}

// GetUserByID resolves the email through the id pointer item, then reads
// the user. Both reads are strongly consistent.
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]types.AttributeValue{"email": &types.AttributeValueMemberS{Value: idPointerPrefix + id}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageError(err, s.table)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrUserNotFound
	}

	email, ok := out.Item["user_email"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, domain.ErrStorageError.WithDetails("id pointer without user_email")
	}

	user, err := s.GetUserByEmail(ctx, email.Value)
	if err != nil {
		return nil, err
	}
	if user.ID != id {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// UpdateUser replaces a user if the stored version equals expectedVersion.
func (s *UserStore) UpdateUser(ctx context.Context, user *domain.User, expectedVersion uint64) error {
	next := user.Clone()
	next.Version = expectedVersion + 1
	item, err := attributevalue.MarshalMap(next)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("#id = :id AND #version = :version"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":      &types.AttributeValueMemberS{Value: user.ID},
			":version": &types.AttributeValueMemberN{Value: strconv.FormatUint(expectedVersion, 10)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if old, ok := conditionFailed(err); ok {
			if id, isS := old["id"].(*types.AttributeValueMemberS); !isS || id.Value != user.ID {
				return domain.ErrUserNotFound
			}
			return domain.ErrUserVersionConflict
		}
		return storageError(err, s.table)
	}

	user.Version = next.Version
	return nil
}
