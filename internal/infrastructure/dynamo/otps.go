package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-homeservices-api/internal/domain"
)

// OTPRepo manages issued one-time codes.
// PK: otp_id. GSI email_purpose-index on email_purpose ("<email>#<purpose>").
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, o *domain.OTP) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(otp_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp %s already exists: %w", o.OTPID, domain.ErrConflict)
	}
	return err
}

// ListUnused returns every record for (email, purpose) with is_used=false, newest first.
func (r *OTPRepo) ListUnused(ctx context.Context, email, purpose string) ([]domain.OTP, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email_purpose-index"),
		KeyConditionExpression: aws.String("email_purpose = :k"),
		FilterExpression:       aws.String("#u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldIsUsed,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k": &types.AttributeValueMemberS{Value: domain.EmailPurposeKey(email, purpose)},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	var otps []domain.OTP
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.OTP
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		otps = append(otps, page...)
	}
	sort.SliceStable(otps, func(i, j int) bool {
		return otps[i].CreatedAt.After(otps[j].CreatedAt)
	})
	return otps, nil
}

// MarkUsed flips is_used to true only if it is still false.
// Returns ErrConflict when another caller got there first.
func (r *OTPRepo) MarkUsed(ctx context.Context, otpID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("otp_id", otpID),
		UpdateExpression:    aws.String("SET #u = :t"),
		ConditionExpression: aws.String("attribute_exists(otp_id) AND #u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldIsUsed,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp %s no longer unused: %w", otpID, domain.ErrConflict)
	}
	return err
}

// Consume is MarkUsed with the additional guard attempts < maxAttempts.
func (r *OTPRepo) Consume(ctx context.Context, otpID string, maxAttempts int) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("otp_id", otpID),
		UpdateExpression:    aws.String("SET #u = :t"),
		ConditionExpression: aws.String("attribute_exists(otp_id) AND #u = :f AND #a < :max"),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldIsUsed,
			"#a": fieldAttempts,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   &types.AttributeValueMemberBOOL{Value: true},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":max": &types.AttributeValueMemberN{Value: strconv.Itoa(maxAttempts)},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp %s cannot be consumed: %w", otpID, domain.ErrConflict)
	}
	return err
}

// IncrementAttempts atomically adds one to attempts on an unused record.
func (r *OTPRepo) IncrementAttempts(ctx context.Context, otpID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("otp_id", otpID),
		UpdateExpression:    aws.String("ADD #a :one"),
		ConditionExpression: aws.String("attribute_exists(otp_id) AND #u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#a": fieldAttempts,
			"#u": fieldIsUsed,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp %s no longer unused: %w", otpID, domain.ErrConflict)
	}
	return err
}

func (r *OTPRepo) Delete(ctx context.Context, otpID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("otp_id", otpID),
	})
	return err
}
