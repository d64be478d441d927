package dynamo

// DynamoDB attribute names used in update and condition expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable          = "enable"
	fieldUpdatedAt       = "updated_at"
	fieldIsUsed          = "is_used"
	fieldAttempts        = "attempts"
	fieldIsActive        = "is_active"
	fieldUsedBy          = "used_by"
	fieldUsageCount      = "usage_count"
	fieldRedeemedUserIDs = "redeemed_user_ids"
	fieldStatus          = "status"
)
