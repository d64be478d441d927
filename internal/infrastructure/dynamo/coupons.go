package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-homeservices-api/internal/domain"
)

// CouponRepo provides typed DynamoDB operations for the coupons table. PK: code.
type CouponRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCouponRepo(client *dynamodb.Client, tableName string) *CouponRepo {
	return &CouponRepo{client: client, tableName: tableName}
}

// Create inserts a new coupon. Returns ErrConflict if the code is taken.
func (r *CouponRepo) Create(ctx context.Context, c *domain.Coupon) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal coupon: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": "code",
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("coupon %s already exists: %w", c.Code, domain.ErrConflict)
	}
	return err
}

func (r *CouponRepo) Get(ctx context.Context, code string) (*domain.Coupon, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("code", code),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("coupon not found: %w", domain.ErrNotFound)
	}
	var c domain.Coupon
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Scan returns all coupons (admin listing; the table is small).
func (r *CouponRepo) Scan(ctx context.Context) ([]domain.Coupon, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	var coupons []domain.Coupon
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.Coupon
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		coupons = append(coupons, page...)
	}
	return coupons, nil
}

func (r *CouponRepo) Update(ctx context.Context, code string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = "code"
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("code", code),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("coupon not found: %w", domain.ErrNotFound)
	}
	return err
}

// Redeem appends usage to used_by, increments usage_count and records the user
// in redeemed_user_ids in one conditional write. The write only succeeds while
// the coupon is active and the user has not redeemed it yet; otherwise ErrConflict.
func (r *CouponRepo) Redeem(ctx context.Context, code string, usage domain.CouponUsage) error {
	entry, err := attributevalue.MarshalMap(usage)
	if err != nil {
		return fmt.Errorf("marshal coupon usage: %w", err)
	}
	now, err := attributevalue.Marshal(usage.UsedAt)
	if err != nil {
		return fmt.Errorf("marshal coupon usage time: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("code", code),
		UpdateExpression: aws.String(
			"SET #ub = list_append(if_not_exists(#ub, :empty), :entry), #upd = :now " +
				"ADD #uc :one, #ru :uidset"),
		ConditionExpression: aws.String(
			"attribute_exists(#pk) AND #act = :t AND NOT contains(#ru, :uid)"),
		ExpressionAttributeNames: map[string]string{
			"#pk":  "code",
			"#ub":  fieldUsedBy,
			"#uc":  fieldUsageCount,
			"#ru":  fieldRedeemedUserIDs,
			"#act": fieldIsActive,
			"#upd": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty":  &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":entry":  &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberM{Value: entry}}},
			":now":    now,
			":one":    &types.AttributeValueMemberN{Value: "1"},
			":uidset": &types.AttributeValueMemberSS{Value: []string{usage.UserID}},
			":uid":    &types.AttributeValueMemberS{Value: usage.UserID},
			":t":      &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("coupon %s redemption rejected: %w", code, domain.ErrConflict)
	}
	return err
}
