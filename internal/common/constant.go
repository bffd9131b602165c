package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Entity kinds served by the sync core.
const (
	KindTasks   = "tasks"
	KindJournal = "journal"
)
