package shared

const (
	KidID = "kid_id"

	// Canonical access denial reason codes. These are wire-stable: clients
	// branch on them, so renaming one is a breaking change.
	ReasonSchedule        = "schedule"
	ReasonBedtime         = "bedtime"
	ReasonDailyLimit      = "daily_limit"
	ReasonCategoryLimit   = "category_limit"
	ReasonPendingApproval = "pending_approval"
	ReasonBlockedChannel  = "blocked_channel"
	ReasonWordFilter      = "word_filter"
	ReasonShortsDisabled  = "shorts_disabled"

	RequestTypeChannel = "channel"
	RequestTypeVideo   = "video"
	RequestTypeBonus   = "bonus"

	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"

	RequestActionApprove = "approve"
	RequestActionDeny    = "deny"

	// Sentinel subject id for bonus requests meaning "minutes remaining
	// until the next UTC midnight".
	BonusCodeToday = "today"
)

// reasonDetails maps canonical reason codes to user-facing copy. Kept at the
// API boundary only; the decision core never sees these strings.
var reasonDetails = map[string]string{
	ReasonSchedule:        "Outside allowed schedule",
	ReasonBedtime:         "Within bedtime window",
	ReasonDailyLimit:      "Daily watch limit reached",
	ReasonCategoryLimit:   "Daily watch limit reached",
	ReasonPendingApproval: "Waiting for approval",
	ReasonBlockedChannel:  "Channel is blocked",
	ReasonWordFilter:      "Title contains a blocked word",
	ReasonShortsDisabled:  "Shorts are turned off",
}

func ReasonDetail(reason string) string {
	if detail, ok := reasonDetails[reason]; ok {
		return detail
	}
	return reason
}
