package dynamo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"description": "summer sale"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "description"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"is_active":           false,
		"discount_percentage": 15.0,
		"description":         "festival",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// description < discount_percentage < is_active
	assert.Equal(t, "description", ue1.Names["#f0"])
	assert.Equal(t, "discount_percentage", ue1.Names["#f1"])
	assert.Equal(t, "is_active", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"is_active": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestIsConditionFailed(t *testing.T) {
	ccf := &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	assert.True(t, isConditionFailed(ccf))
	assert.True(t, isConditionFailed(fmt.Errorf("update item: %w", ccf)))
	assert.False(t, isConditionFailed(errors.New("throttled")))
	assert.False(t, isConditionFailed(nil))
}

func TestIsTxConditionFailed(t *testing.T) {
	tce := &types.TransactionCanceledException{
		Message: strPtr("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: strPtr("None")},
			{Code: strPtr("ConditionalCheckFailed")},
		},
	}
	assert.True(t, isTxConditionFailed(tce))
	assert.True(t, isTxConditionFailed(fmt.Errorf("put user: %w", tce)))

	throttled := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: strPtr("ThrottlingError")}},
	}
	assert.False(t, isTxConditionFailed(throttled))
	assert.False(t, isTxConditionFailed(&types.ConditionalCheckFailedException{}))
	assert.False(t, isTxConditionFailed(nil))
}

func TestEmailMarkerKey_DoesNotCollideWithUserIDs(t *testing.T) {
	key := emailMarkerKey("alice@example.com")
	v, ok := key["user_id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "email#alice@example.com", v.Value)
	_, hasEmail := key["email"]
	assert.False(t, hasEmail)
}

func TestCursorRoundTrip(t *testing.T) {
	c := encodeCursor("01HZX3K9Q2")
	got, err := decodeCursor(c)
	require.NoError(t, err)
	assert.Equal(t, "01HZX3K9Q2", got)

	_, err = decodeCursor("%%%")
	assert.Error(t, err)
}

func strPtr(s string) *string { return &s }
